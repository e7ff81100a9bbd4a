// Package candidates derives declaration-package names from manifest
// dependency names.
//
// A declaration package is published under the @types scope. Plain names are
// prefixed ("lodash" becomes "@types/lodash") and scoped names are folded into
// a single segment ("@babel/core" becomes "@types/babel__core"). [Build]
// combines the manifest's dependencies with static include and exclude lists
// and drops anything the project already lists as a development dependency.
package candidates

import (
	"slices"
	"strings"
)

// Prefix is the scope under which declaration packages are published.
const Prefix = "@types/"

// DefaultWhitelist lists packages whose declarations are always considered,
// whether or not the manifest depends on them.
var DefaultWhitelist = []string{
	"node",
}

// DefaultBlacklist lists packages that ship their own declarations or for
// which an @types entry is a deprecated stub.
var DefaultBlacklist = []string{
	"axios",
	"date-fns",
	"dayjs",
	"rxjs",
	"ts-node",
	"tslib",
	"typescript",
	"vue",
	"zod",
}

// Input holds everything [Build] needs. All slices hold raw package names as
// they appear in package.json; Build normalizes them.
type Input struct {
	Dependencies    []string
	DevDependencies []string
	// IncludeDev adds DevDependencies to the candidate union. Existing
	// development dependencies are excluded from the result either way.
	IncludeDev bool

	Whitelist []string
	Blacklist []string
	// Include and Exclude come from the manifest's tool config block.
	Include []string
	Exclude []string
}

// Normalize returns the declaration-package name for a package. Names
// already under the @types scope are returned unchanged. An empty or
// whitespace-only name normalizes to "".
func Normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, Prefix) {
		return name
	}
	if scoped, ok := strings.CutPrefix(name, "@"); ok {
		scope, pkg, found := strings.Cut(scoped, "/")
		if !found || scope == "" || pkg == "" {
			return Prefix + scoped
		}
		return Prefix + scope + "__" + pkg
	}
	return Prefix + name
}

// Build returns the sorted, deduplicated candidate set:
//
//	normalize(deps ∪ whitelist ∪ include ∪ devDeps if opted in)
//	  − normalize(blacklist ∪ exclude)
//	  − existing devDependencies
//
// The blacklist wins over every source of inclusion.
func Build(in Input) []string {
	union := newSet()
	union.addNormalized(in.Dependencies...)
	union.addNormalized(in.Whitelist...)
	union.addNormalized(in.Include...)
	if in.IncludeDev {
		union.addNormalized(in.DevDependencies...)
	}

	excluded := newSet()
	excluded.addNormalized(in.Blacklist...)
	excluded.addNormalized(in.Exclude...)

	// Existing dev dependencies are removed verbatim: an entry such as
	// "@types/lodash" already satisfies the candidate of the same name.
	for _, name := range in.DevDependencies {
		excluded.add(strings.ToLower(strings.TrimSpace(name)))
	}

	result := make([]string, 0, len(union))
	for name := range union {
		if !excluded.has(name) {
			result = append(result, name)
		}
	}
	slices.Sort(result)
	return result
}

type set map[string]struct{}

func newSet() set { return make(set) }

func (s set) add(name string) {
	if name != "" {
		s[name] = struct{}{}
	}
}

func (s set) addNormalized(names ...string) {
	for _, name := range names {
		s.add(Normalize(name))
	}
}

func (s set) has(name string) bool {
	_, ok := s[name]
	return ok
}
