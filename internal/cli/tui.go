package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/matzehuels/typescout/pkg/selection"
)

// errAborted is returned when the user quits a prompt. It wraps
// context.Canceled so the process exits like an interrupt.
var errAborted = fmt.Errorf("selection aborted: %w", context.Canceled)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	listCheckedStyle  = lipgloss.NewStyle().Foreground(colorGreen)
)

// =============================================================================
// Decider
// =============================================================================

// promptModel is a tea.Model that can report its answer once finished.
type promptModel interface {
	tea.Model
	result() (selection.Answer, bool)
}

// teaDecider renders prompts with bubbletea.
type teaDecider struct {
	in  io.Reader
	out io.Writer
}

// Decide runs one prompt program to completion.
func (d teaDecider) Decide(ctx context.Context, p selection.Prompt) (selection.Answer, error) {
	var m promptModel
	switch p.Kind {
	case selection.Confirm:
		m = newConfirmModel(p)
	case selection.Choice:
		m = newChoiceModel(p)
	case selection.MultiSelect:
		m = newMultiSelectModel(p)
	default:
		return p.Default, nil
	}

	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if d.in != nil {
		opts = append(opts, tea.WithInput(d.in))
	}
	if d.out != nil {
		opts = append(opts, tea.WithOutput(d.out))
	}

	final, err := tea.NewProgram(m, opts...).Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, tea.ErrProgramKilled) {
			return selection.Answer{}, ctxErr
		}
		return selection.Answer{}, fmt.Errorf("prompt %s: %w", p.Name, err)
	}

	answer, ok := final.(promptModel).result()
	if !ok {
		return selection.Answer{}, errAborted
	}
	return answer, nil
}

func isAbortKey(k string) bool {
	return k == "ctrl+c" || k == "esc"
}

// =============================================================================
// ConfirmModel - yes/no
// =============================================================================

type confirmModel struct {
	prompt  selection.Prompt
	value   bool
	done    bool
	aborted bool
}

func newConfirmModel(p selection.Prompt) confirmModel {
	return confirmModel{prompt: p, value: p.Default.Confirm}
}

func (m confirmModel) Init() tea.Cmd { return nil }

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch k := msg.String(); {
		case isAbortKey(k) || k == "q":
			m.aborted = true
			return m, tea.Quit
		case k == "y" || k == "Y":
			m.value, m.done = true, true
			return m, tea.Quit
		case k == "n" || k == "N":
			m.value, m.done = false, true
			return m, tea.Quit
		case k == "left" || k == "right" || k == "tab" || k == "h" || k == "l":
			m.value = !m.value
		case k == "enter":
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.done || m.aborted {
		return ""
	}
	yes, no := listDimStyle.Render("yes"), listDimStyle.Render("no")
	if m.value {
		yes = listSelectedStyle.Render("[yes]")
	} else {
		no = listSelectedStyle.Render("[no]")
	}
	return fmt.Sprintf("%s %s  %s / %s\n", StyleTitle.Render("?"), m.prompt.Message, yes, no)
}

func (m confirmModel) result() (selection.Answer, bool) {
	return selection.Answer{Confirm: m.value}, m.done
}

// =============================================================================
// ChoiceModel - pick one option
// =============================================================================

type choiceModel struct {
	prompt selection.Prompt
	cursor int
	done   bool
}

func newChoiceModel(p selection.Prompt) choiceModel {
	m := choiceModel{prompt: p}
	for i, opt := range p.Options {
		if opt == p.Default.Choice {
			m.cursor = i
		}
	}
	return m
}

func (m choiceModel) Init() tea.Cmd { return nil }

func (m choiceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.prompt.Options)-1 {
				m.cursor++
			}
		case "enter":
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m choiceModel) View() string {
	if m.done {
		return ""
	}
	var b strings.Builder
	b.WriteString(StyleTitle.Render("? " + m.prompt.Message))
	b.WriteString("\n")
	for i, opt := range m.prompt.Options {
		if i == m.cursor {
			b.WriteString(listSelectedStyle.Render("▸ " + opt))
		} else {
			b.WriteString(listNormalStyle.Render("  " + opt))
		}
		b.WriteString("\n")
	}
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n")
	return b.String()
}

func (m choiceModel) result() (selection.Answer, bool) {
	if !m.done || len(m.prompt.Options) == 0 {
		return selection.Answer{}, false
	}
	return selection.Answer{Choice: m.prompt.Options[m.cursor]}, true
}

// =============================================================================
// MultiSelectModel - pick a subset, with fuzzy filtering
// =============================================================================

type multiSelectModel struct {
	prompt   selection.Prompt
	checked  map[string]bool
	filter   textinput.Model
	visible  []int // indexes into prompt.Options, in display order
	cursor   int   // index into visible
	height   int
	offset   int
	done     bool
	finished bool
}

func newMultiSelectModel(p selection.Prompt) multiSelectModel {
	ti := textinput.New()
	ti.Placeholder = "type to filter"
	ti.Prompt = "/ "
	ti.CharLimit = 214
	ti.Width = 40
	ti.Focus()

	checked := make(map[string]bool, len(p.Default.Selected))
	for _, name := range p.Default.Selected {
		checked[name] = true
	}

	m := multiSelectModel{prompt: p, checked: checked, filter: ti, height: 15}
	m.applyFilter()
	return m
}

func (m *multiSelectModel) applyFilter() {
	pattern := strings.TrimSpace(m.filter.Value())
	m.visible = m.visible[:0]
	if pattern == "" {
		for i := range m.prompt.Options {
			m.visible = append(m.visible, i)
		}
	} else {
		for _, match := range fuzzy.Find(pattern, m.prompt.Options) {
			m.visible = append(m.visible, match.Index)
		}
	}
	m.cursor, m.offset = 0, 0
}

func (m multiSelectModel) Init() tea.Cmd { return textinput.Blink }

func (m multiSelectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.finished = true
			return m, tea.Quit
		case "esc":
			if m.filter.Value() != "" {
				m.filter.SetValue("")
				m.applyFilter()
				return m, nil
			}
			m.finished = true
			return m, tea.Quit
		case "up", "ctrl+p":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
			return m, nil
		case "down", "ctrl+n":
			if m.cursor < len(m.visible)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
			return m, nil
		case " ", "tab":
			if len(m.visible) > 0 {
				name := m.prompt.Options[m.visible[m.cursor]]
				m.checked[name] = !m.checked[name]
			}
			return m, nil
		case "ctrl+a":
			all := true
			for _, i := range m.visible {
				all = all && m.checked[m.prompt.Options[i]]
			}
			for _, i := range m.visible {
				m.checked[m.prompt.Options[i]] = !all
			}
			return m, nil
		case "enter":
			m.done, m.finished = true, true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-8, 5)
		return m, nil
	}

	before := m.filter.Value()
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	if m.filter.Value() != before {
		m.applyFilter()
	}
	return m, cmd
}

func (m multiSelectModel) View() string {
	if m.finished {
		return ""
	}
	var b strings.Builder
	b.WriteString(StyleTitle.Render("? " + m.prompt.Message))
	b.WriteString("\n")
	b.WriteString(m.filter.View())
	b.WriteString("\n\n")

	end := min(m.offset+m.height, len(m.visible))
	for row := m.offset; row < end; row++ {
		name := m.prompt.Options[m.visible[row]]
		box := "[ ]"
		if m.checked[name] {
			box = listCheckedStyle.Render("[x]")
		}
		cursor := "  "
		style := listNormalStyle
		if row == m.cursor {
			cursor = "▸ "
			style = listSelectedStyle
		}
		b.WriteString(cursor + box + " " + style.Render(name) + "\n")
	}
	if len(m.visible) == 0 {
		b.WriteString(listDimStyle.Render("  no matches") + "\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  %d/%d selected  ␣ toggle  ctrl+a all  ⏎ confirm  esc quit",
		m.selectedCount(), len(m.prompt.Options))))
	b.WriteString("\n")
	return b.String()
}

func (m multiSelectModel) selectedCount() int {
	n := 0
	for _, opt := range m.prompt.Options {
		if m.checked[opt] {
			n++
		}
	}
	return n
}

func (m multiSelectModel) result() (selection.Answer, bool) {
	if !m.done {
		return selection.Answer{}, false
	}
	selected := make([]string, 0, len(m.prompt.Options))
	for _, opt := range m.prompt.Options {
		if m.checked[opt] {
			selected = append(selected, opt)
		}
	}
	return selection.Answer{Selected: selected}, true
}
