package levels

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

//go:embed *.json
var LevelsFS embed.FS

// Dir is checked for a level file before the embedded copies.
var Dir = "levels"

var ErrNoLevel = errors.New("levels: level not found")

type Level struct {
	Name     string   `json:"name"`
	Entities []Entity `json:"entities,omitempty"`
}

type Entity struct {
	Type  string                 `json:"type"`
	X     float64                `json:"x"`
	Y     float64                `json:"y"`
	Props map[string]interface{} `json:"props,omitempty"`
}

// Float returns a numeric prop. ok is false when the prop is absent or not
// a number.
func (e Entity) Float(key string) (float64, bool) {
	v, ok := e.Props[key].(float64)
	return v, ok
}

func (e Entity) Bool(key string) (bool, bool) {
	v, ok := e.Props[key].(bool)
	return v, ok
}

func (e Entity) String(key string) string {
	v, _ := e.Props[key].(string)
	return v
}

// Load reads a level by name, preferring a copy on disk.
func Load(name string) (*Level, error) {
	name = normalizeName(name)
	if data, err := os.ReadFile(filepath.Join(Dir, name)); err == nil {
		return parse(name, data)
	}
	return LoadLevelFromFS(name)
}

func LoadLevelFromFS(name string) (*Level, error) {
	name = normalizeName(name)
	data, err := fs.ReadFile(LevelsFS, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q", ErrNoLevel, name)
		}
		return nil, fmt.Errorf("read level: %w", err)
	}
	return parse(name, data)
}

// Names lists the embedded levels.
func Names() []string {
	matches, _ := fs.Glob(LevelsFS, "*.json")
	sort.Strings(matches)
	return matches
}

func parse(name string, data []byte) (*Level, error) {
	var lvl Level
	if err := json.Unmarshal(data, &lvl); err != nil {
		return nil, fmt.Errorf("unmarshal level %q: %w", name, err)
	}
	if lvl.Name == "" {
		lvl.Name = strings.TrimSuffix(name, ".json")
	}
	return &lvl, nil
}

func normalizeName(name string) string {
	name = path.Base(filepath.ToSlash(name))
	if !strings.HasSuffix(name, ".json") {
		name += ".json"
	}
	return name
}
