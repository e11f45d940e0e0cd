package data

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"cogentcore.org/core/math32"
	"gopkg.in/yaml.v3"

	"github.com/orbitforge/client/internal/engine"
)

// ErrUnknownPrototype is returned when a spawn names a prototype the table
// does not hold.
var ErrUnknownPrototype = errors.New("unknown prototype")

// Kind selects the build call a prototype finishes with.
type Kind string

const (
	KindVisual  Kind = "visual"
	KindStatic  Kind = "static"
	KindMovable Kind = "movable"
	KindDynamic Kind = "dynamic"
	KindGhost   Kind = "ghost"
)

func (k Kind) valid() bool {
	switch k {
	case KindVisual, KindStatic, KindMovable, KindDynamic, KindGhost:
		return true
	}
	return false
}

// Vec3 is a YAML triple such as [1, 0, -2].
type Vec3 [3]float32

func (v Vec3) Vector3() math32.Vector3 { return math32.Vec3(v[0], v[1], v[2]) }

func FromVector3(v math32.Vector3) Vec3 { return Vec3{v.X, v.Y, v.Z} }

// ShapeEntry is the YAML form of engine.Shape.
type ShapeEntry struct {
	Kind string `yaml:"kind"`
	Size Vec3   `yaml:"size"`
	Mesh string `yaml:"mesh,omitempty"`
}

func (s ShapeEntry) Shape() (engine.Shape, error) {
	kind, err := engine.ParseShapeKind(s.Kind)
	if err != nil {
		return engine.Shape{}, err
	}
	return engine.Shape{Kind: kind, Size: s.Size.Vector3(), Mesh: s.Mesh}, nil
}

// Prototype describes a reusable kind of object.
type Prototype struct {
	Name         string      `yaml:"name"`
	Kind         Kind        `yaml:"kind"`
	Shape        ShapeEntry  `yaml:"shape"`
	PhysicsShape *ShapeEntry `yaml:"physics_shape"` // nil = same as shape
	Material     string      `yaml:"material"`
	Color        string      `yaml:"color"`
	Mass         float32     `yaml:"mass"`
	Scale        *Vec3       `yaml:"scale"` // nil = unit scale

	shape  engine.Shape
	pshape engine.Shape
}

func (p *Prototype) GraphicShape() engine.Shape { return p.shape }
func (p *Prototype) PhysicShape() engine.Shape  { return p.pshape }

func (p *Prototype) MaterialDesc() engine.Material {
	return engine.Material{Name: p.Material, Color: p.Color}
}

func (p *Prototype) resolve() error {
	if p.Name == "" {
		return errors.New("prototype without name")
	}
	if !p.Kind.valid() {
		return fmt.Errorf("prototype %q: unknown kind %q", p.Name, p.Kind)
	}
	var err error
	if p.shape, err = p.Shape.Shape(); err != nil {
		return fmt.Errorf("prototype %q: %w", p.Name, err)
	}
	p.pshape = p.shape
	if p.PhysicsShape != nil {
		if p.pshape, err = p.PhysicsShape.Shape(); err != nil {
			return fmt.Errorf("prototype %q physics shape: %w", p.Name, err)
		}
	}
	if p.Kind == KindDynamic && p.Mass <= 0 {
		return fmt.Errorf("prototype %q: dynamic object needs a positive mass", p.Name)
	}
	return nil
}

// PrototypeTable holds every prototype by name.
type PrototypeTable struct {
	protos map[string]*Prototype
}

// LoadPrototypeTable loads prototypes.yaml.
func LoadPrototypeTable(path string) (*PrototypeTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prototypes: %w", err)
	}
	return ParsePrototypeTable(raw)
}

func ParsePrototypeTable(raw []byte) (*PrototypeTable, error) {
	var entries []Prototype
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse prototypes: %w", err)
	}
	t := &PrototypeTable{
		protos: make(map[string]*Prototype, len(entries)),
	}
	for i := range entries {
		p := &entries[i]
		if err := p.resolve(); err != nil {
			return nil, fmt.Errorf("parse prototypes: entry %d: %w", i, err)
		}
		if _, dup := t.protos[p.Name]; dup {
			return nil, fmt.Errorf("parse prototypes: duplicate %q", p.Name)
		}
		t.protos[p.Name] = p
	}
	return t, nil
}

// Get returns the prototype with the given name, or nil if none.
func (t *PrototypeTable) Get(name string) *Prototype {
	return t.protos[name]
}

// Count returns the total number of prototypes loaded.
func (t *PrototypeTable) Count() int {
	return len(t.protos)
}

// Names returns the prototype names in sorted order.
func (t *PrototypeTable) Names() []string {
	out := make([]string, 0, len(t.protos))
	for n := range t.protos {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
