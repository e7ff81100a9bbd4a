// Package manifest reads the dependency sections of a package.json file.
//
// Only the fields typescout acts on are decoded: dependencies,
// devDependencies, and the tool's own configuration block:
//
//	{
//	  "dependencies": {"lodash": "^4.17.21"},
//	  "devDependencies": {"@types/lodash": "^4.17.0"},
//	  "typescout": {"exclude": ["left-pad"], "include": ["node"]}
//	}
//
// The include and exclude lists accept either an array of names or an object
// whose keys are names. Both shapes resolve to a [NameList] at load time.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	tserrors "github.com/matzehuels/typescout/pkg/errors"
)

// FileName is the manifest file looked up in a project directory.
const FileName = "package.json"

// ConfigKey is the top-level key holding typescout settings in package.json.
const ConfigKey = "typescout"

// Manifest is the parsed subset of package.json. It is read once per run
// and treated as immutable afterwards.
type Manifest struct {
	Path            string
	Name            string
	Version         string
	Dependencies    map[string]string
	DevDependencies map[string]string
	Config          ToolConfig
}

// ToolConfig is the "typescout" block of package.json.
type ToolConfig struct {
	Include NameList `json:"include"`
	Exclude NameList `json:"exclude"`
}

// DependencyNames returns the runtime dependency names, sorted.
func (m *Manifest) DependencyNames() []string {
	return slices.Sorted(maps.Keys(m.Dependencies))
}

// DevDependencyNames returns the development dependency names, sorted.
func (m *Manifest) DevDependencyNames() []string {
	return slices.Sorted(maps.Keys(m.DevDependencies))
}

// Dir returns the project directory, the one holding the manifest file.
func (m *Manifest) Dir() string {
	return filepath.Dir(m.Path)
}

// Path resolves dir to the manifest path. A path that already names a
// package.json file is returned unchanged.
func Path(dir string) string {
	if strings.EqualFold(filepath.Base(dir), FileName) {
		return dir
	}
	return filepath.Join(dir, FileName)
}

// Load reads and parses the manifest in dir.
//
// It fails with MANIFEST_NOT_FOUND when the file does not exist and with
// MANIFEST_PARSE_ERROR when it is not a valid package.json.
func Load(dir string) (*Manifest, error) {
	path := Path(dir)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, tserrors.Wrap(tserrors.ErrCodeManifestNotFound, err, "no %s in %s", FileName, filepath.Dir(path))
	}
	if err != nil {
		return nil, tserrors.Wrap(tserrors.ErrCodeManifestNotFound, err, "read %s", path)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, err
	}
	m.Path = path
	return m, nil
}

// Parse decodes package.json content.
func Parse(data []byte) (*Manifest, error) {
	var raw packageFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, tserrors.Wrap(tserrors.ErrCodeManifestParse, err, "invalid %s", FileName)
	}
	if raw.isNull {
		return nil, tserrors.New(tserrors.ErrCodeManifestParse, "invalid %s: top-level value must be an object", FileName)
	}

	m := &Manifest{
		Name:            raw.Name,
		Version:         raw.Version,
		Dependencies:    raw.Dependencies,
		DevDependencies: raw.DevDependencies,
	}
	if raw.Config != nil {
		m.Config = *raw.Config
	}
	if m.Dependencies == nil {
		m.Dependencies = map[string]string{}
	}
	if m.DevDependencies == nil {
		m.DevDependencies = map[string]string{}
	}
	return m, nil
}

type packageFile struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
	Config          *ToolConfig       `json:"typescout"`

	isNull bool
}

func (p *packageFile) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		p.isNull = true
		return nil
	}
	type plain packageFile
	return json.Unmarshal(data, (*plain)(p))
}
