package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SpawnEntry places one prototype instance in a level.
type SpawnEntry struct {
	Prototype string `yaml:"prototype"`
	Name      string `yaml:"name"`
	Position  Vec3   `yaml:"position"`
	Direction Vec3   `yaml:"direction"`
	Parent    string `yaml:"parent,omitempty"`
}

// SpawnList is a level's spawn entries in placement order. Parents must be
// listed before their children.
type SpawnList struct {
	Level   string       `yaml:"level"`
	Entries []SpawnEntry `yaml:"entities"`
}

// LoadSpawnList loads a level file.
func LoadSpawnList(path string) (*SpawnList, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spawn list: %w", err)
	}
	var l SpawnList
	if err := yaml.Unmarshal(raw, &l); err != nil {
		return nil, fmt.Errorf("parse spawn list: %w", err)
	}
	if err := l.Validate(nil); err != nil {
		return nil, fmt.Errorf("spawn list %s: %w", path, err)
	}
	return &l, nil
}

// Validate checks names are present and unique and that every parent comes
// earlier in the list. With a table it also resolves prototype names.
func (l *SpawnList) Validate(protos *PrototypeTable) error {
	seen := make(map[string]struct{}, len(l.Entries))
	for i, e := range l.Entries {
		if e.Name == "" {
			return fmt.Errorf("entry %d: missing name", i)
		}
		if _, dup := seen[e.Name]; dup {
			return fmt.Errorf("entry %d: duplicate name %q", i, e.Name)
		}
		if e.Parent != "" {
			if _, ok := seen[e.Parent]; !ok {
				return fmt.Errorf("entry %q: parent %q not placed before it", e.Name, e.Parent)
			}
		}
		if protos != nil && protos.Get(e.Prototype) == nil {
			return fmt.Errorf("entry %q: %w %q", e.Name, ErrUnknownPrototype, e.Prototype)
		}
		seen[e.Name] = struct{}{}
	}
	return nil
}

// Marshal renders the list back to YAML.
func (l *SpawnList) Marshal() ([]byte, error) {
	out, err := yaml.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("marshal spawn list: %w", err)
	}
	return out, nil
}

// WriteFile writes the list to path.
func (l *SpawnList) WriteFile(path string) error {
	out, err := l.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write spawn list: %w", err)
	}
	return nil
}
