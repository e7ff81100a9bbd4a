package installer

import (
	"strings"

	tserrors "github.com/matzehuels/typescout/pkg/errors"
)

// Manager identifies a supported package manager.
type Manager string

const (
	NPM  Manager = "npm"
	Yarn Manager = "yarn"
)

// Managers lists the supported package managers in display order.
var Managers = []Manager{NPM, Yarn}

// String returns the manager's executable name.
func (m Manager) String() string { return string(m) }

// Valid reports whether m is a supported manager.
func (m Manager) Valid() bool {
	return m == NPM || m == Yarn
}

// ParseManager resolves a manager name, case-insensitively.
func ParseManager(s string) (Manager, error) {
	m := Manager(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", tserrors.New(tserrors.ErrCodeInvalidManager,
			"unsupported package manager %q (use npm or yarn)", s)
	}
	return m, nil
}

// Command returns the argv that adds names as development dependencies in
// a single invocation.
func Command(m Manager, names []string) []string {
	var argv []string
	switch m {
	case Yarn:
		argv = []string{"yarn", "add", "--dev"}
	default:
		argv = []string{"npm", "install", "--save-dev"}
	}
	return append(argv, names...)
}
