package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight for emphasized values.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
	styleVersion = lipgloss.NewStyle().Foreground(colorGray)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

// printer writes styled status lines.
type printer struct {
	w io.Writer
}

func (p printer) success(format string, args ...any) {
	fmt.Fprintln(p.w, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func (p printer) error(format string, args ...any) {
	fmt.Fprintln(p.w, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func (p printer) warning(format string, args ...any) {
	fmt.Fprintln(p.w, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func (p printer) info(format string, args ...any) {
	fmt.Fprintln(p.w, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

// detail prints an indented, dimmed line.
func (p printer) detail(format string, args ...any) {
	fmt.Fprintln(p.w, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// pkg prints an indented package line, with its version when known.
func (p printer) pkg(name, version string) {
	line := "  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(name)
	if version != "" {
		line += styleVersion.Render("@" + version)
	}
	fmt.Fprintln(p.w, line)
}

// nextStep prints a suggested next command.
func (p printer) nextStep(description, cmd string) {
	fmt.Fprintln(p.w, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}
