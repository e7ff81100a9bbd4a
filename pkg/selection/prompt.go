package selection

import (
	"context"
	"slices"
)

// Kind is the shape of answer a prompt expects.
type Kind int

const (
	// Confirm expects a yes/no answer in Answer.Confirm.
	Confirm Kind = iota
	// Choice expects one of Prompt.Options in Answer.Choice.
	Choice
	// MultiSelect expects a subset of Prompt.Options in Answer.Selected.
	MultiSelect
)

// String returns the kind's name.
func (k Kind) String() string {
	switch k {
	case Confirm:
		return "confirm"
	case Choice:
		return "choice"
	case MultiSelect:
		return "multiselect"
	default:
		return "unknown"
	}
}

// Prompt names, stable for decider implementations that key on them.
const (
	PromptScope   = "devDependencies"
	PromptModules = "modules"
	PromptInstall = "install"
	PromptManager = "manager"
)

// Answer holds the value for whichever Kind was asked.
type Answer struct {
	Confirm  bool
	Choice   string
	Selected []string
}

// Prompt is one decision point. When Ask is false the decision is fixed
// and Default is used without consulting the [Decider].
type Prompt struct {
	Name    string
	Kind    Kind
	Message string
	Default Answer
	Options []string
	Ask     bool
}

// Decider supplies answers to prompts. Implementations render the prompt
// however they like; the engine only consumes the answer.
type Decider interface {
	Decide(ctx context.Context, p Prompt) (Answer, error)
}

// DeciderFunc adapts a function to [Decider].
type DeciderFunc func(ctx context.Context, p Prompt) (Answer, error)

// Decide calls f.
func (f DeciderFunc) Decide(ctx context.Context, p Prompt) (Answer, error) { return f(ctx, p) }

// Defaults answers every prompt with its default.
type Defaults struct{}

// Decide returns a copy of p.Default.
func (Defaults) Decide(_ context.Context, p Prompt) (Answer, error) {
	a := p.Default
	a.Selected = slices.Clone(a.Selected)
	return a, nil
}

// ask resolves p, consulting d only when p.Ask is set.
func ask(ctx context.Context, d Decider, p Prompt) (Answer, error) {
	if !p.Ask {
		return Defaults{}.Decide(ctx, p)
	}
	if d == nil {
		d = Defaults{}
	}
	if err := ctx.Err(); err != nil {
		return Answer{}, err
	}
	return d.Decide(ctx, p)
}
