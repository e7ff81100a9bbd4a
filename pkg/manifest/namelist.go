package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// NameList is either absent or an explicit list of package names.
// The zero value is absent.
type NameList struct {
	names   []string
	present bool
}

// Absent returns a NameList that was not given.
func Absent() NameList { return NameList{} }

// List returns a present NameList holding names.
func List(names ...string) NameList {
	return NameList{names: slices.Clone(names), present: true}
}

// IsAbsent reports whether the list was not given at all.
func (l NameList) IsAbsent() bool { return !l.present }

// Names returns the names in the list; nil when absent.
func (l NameList) Names() []string { return slices.Clone(l.names) }

// UnmarshalJSON accepts null, an array of strings, or an object whose keys
// are names (values are ignored). Object keys are sorted for determinism.
func (l *NameList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*l = Absent()
		return nil
	case len(data) > 0 && data[0] == '[':
		var names []string
		if err := json.Unmarshal(data, &names); err != nil {
			return fmt.Errorf("name list: %w", err)
		}
		*l = List(names...)
		return nil
	case len(data) > 0 && data[0] == '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			return fmt.Errorf("name list: %w", err)
		}
		*l = List(slices.Sorted(maps.Keys(obj))...)
		return nil
	default:
		return fmt.Errorf("name list: want an array or an object, got %s", data)
	}
}

// MarshalJSON writes an absent list as null and a present one as an array.
func (l NameList) MarshalJSON() ([]byte, error) {
	if !l.present {
		return []byte("null"), nil
	}
	if l.names == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.names)
}
