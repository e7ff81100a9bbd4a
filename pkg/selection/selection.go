// Package selection decides which confirmed declaration packages get
// installed, and with which package manager.
//
// The decision is a fixed sequence of prompts: module selection, install
// confirmation, then package manager. A prompt whose answer is already fixed
// by configuration is skipped and resolves to its default, so a
// non-interactive run behaves exactly like an interactive run in which every
// default is accepted.
package selection

import (
	"context"
	"fmt"

	"github.com/matzehuels/typescout/pkg/installer"
)

// State is a terminal state of the orchestrator.
type State int

const (
	// NoCandidates means nothing was confirmed, so nothing was asked.
	NoCandidates State = iota
	// DeclinedInstall means configuration or the user chose not to install,
	// or deselected everything.
	DeclinedInstall
	// ReadyToInstall carries a non-empty selection and a manager.
	ReadyToInstall
)

// String returns the state's name.
func (s State) String() string {
	switch s {
	case NoCandidates:
		return "no-candidates"
	case DeclinedInstall:
		return "declined-install"
	case ReadyToInstall:
		return "ready-to-install"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Outcome is the result of [Orchestrator.Select].
type Outcome struct {
	State     State
	Selection []string
	Manager   installer.Manager
}

// Orchestrator runs the selection prompts.
type Orchestrator struct {
	Decider Decider

	// Interactive enables the module selection prompt and makes the
	// install and manager prompts askable unless fixed below.
	Interactive bool

	// Install is the configured install-all flag. When true the install
	// confirmation is skipped.
	Install bool

	// Manager is the configured package manager; ManagerFixed skips the
	// manager prompt.
	Manager      installer.Manager
	ManagerFixed bool
}

// Select walks the prompts for the confirmed names (assumed sorted and
// unique) and returns a terminal outcome.
func (o *Orchestrator) Select(ctx context.Context, confirmed []string) (Outcome, error) {
	manager := o.Manager
	if !manager.Valid() {
		manager = installer.NPM
	}

	if len(confirmed) == 0 {
		return Outcome{State: NoCandidates, Manager: manager}, nil
	}

	picked, err := ask(ctx, o.Decider, Prompt{
		Name:    PromptModules,
		Kind:    MultiSelect,
		Message: "Select the type declarations to install",
		Default: Answer{Selected: confirmed},
		Options: confirmed,
		Ask:     o.Interactive,
	})
	if err != nil {
		return Outcome{}, err
	}
	selection := restrict(picked.Selected, confirmed)
	if len(selection) == 0 {
		return Outcome{State: DeclinedInstall, Manager: manager}, nil
	}

	confirm, err := ask(ctx, o.Decider, Prompt{
		Name:    PromptInstall,
		Kind:    Confirm,
		Message: fmt.Sprintf("Install %d type declaration package(s)?", len(selection)),
		Default: Answer{Confirm: o.Install},
		Ask:     o.Interactive && !o.Install,
	})
	if err != nil {
		return Outcome{}, err
	}
	if !confirm.Confirm {
		return Outcome{State: DeclinedInstall, Selection: selection, Manager: manager}, nil
	}

	options := make([]string, len(installer.Managers))
	for i, m := range installer.Managers {
		options[i] = m.String()
	}
	choice, err := ask(ctx, o.Decider, Prompt{
		Name:    PromptManager,
		Kind:    Choice,
		Message: "Which package manager should install them?",
		Default: Answer{Choice: manager.String()},
		Options: options,
		Ask:     o.Interactive && !o.ManagerFixed,
	})
	if err != nil {
		return Outcome{}, err
	}
	manager, err = installer.ParseManager(choice.Choice)
	if err != nil {
		return Outcome{}, err
	}

	return Outcome{State: ReadyToInstall, Selection: selection, Manager: manager}, nil
}

// ScopeDecision decides whether development dependencies feed the candidate
// set. A non-nil fixed value wins; otherwise the prompt is asked in
// interactive runs and defaults to false.
func ScopeDecision(ctx context.Context, d Decider, fixed *bool, interactive bool) (bool, error) {
	def := false
	if fixed != nil {
		def = *fixed
	}
	a, err := ask(ctx, d, Prompt{
		Name:    PromptScope,
		Kind:    Confirm,
		Message: "Also check devDependencies?",
		Default: Answer{Confirm: def},
		Ask:     interactive && fixed == nil,
	})
	if err != nil {
		return false, err
	}
	return a.Confirm, nil
}

// restrict keeps the names in picked that are also in allowed, in allowed's
// order.
func restrict(picked, allowed []string) []string {
	want := make(map[string]bool, len(picked))
	for _, p := range picked {
		want[p] = true
	}
	out := make([]string, 0, len(picked))
	for _, a := range allowed {
		if want[a] {
			out = append(out, a)
		}
	}
	return out
}
