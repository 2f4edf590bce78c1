// Package scene loads interaction setups from YAML: targets placed in a
// spatial index, agents with their candidate sources and filters, and groups
// arbitrating between them.
package scene

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	ErrDuplicateName = errors.New("duplicate name")
	ErrUnknownMember = errors.New("unknown group member")
	ErrSharedMember  = errors.New("interactor belongs to more than one group")
	ErrGroupCycle    = errors.New("group contains itself")
	ErrUnknownSource = errors.New("unknown candidate source")
	ErrShape         = errors.New("target needs exactly one of box or circle")
	ErrComparator    = errors.New("unknown comparator")
	ErrMissingInput  = errors.New("missing input binding")
)

// Source kinds accepted in AgentSpec.Source.
const (
	SourcePointer   = "pointer"
	SourceProximity = "proximity"
)

// Comparator names accepted in GroupSpec.Comparator.
const (
	ComparatorPriority = "priority"
	ComparatorDistance = "distance"
)

type Scene struct {
	Name    string       `yaml:"name"`
	Targets []TargetSpec `yaml:"targets"`
	Agents  []AgentSpec  `yaml:"agents"`
	Groups  []GroupSpec  `yaml:"groups"`
}

// TargetSpec places one interactable. Box is [x, y, w, h] with y growing down
// the way screens do; Circle is [x, y, r].
type TargetSpec struct {
	Name           string    `yaml:"name"`
	Box            []float64 `yaml:"box"`
	Circle         []float64 `yaml:"circle"`
	Layer          uint      `yaml:"layer"`
	MaxInteractors *int      `yaml:"max_interactors"`
	MaxSelecting   *int      `yaml:"max_selecting"`
	Disabled       bool      `yaml:"disabled"`
	Data           any       `yaml:"data"`
}

type AgentSpec struct {
	Name          string    `yaml:"name"`
	Source        string    `yaml:"source"`
	Range         float64   `yaml:"range"`
	At            []float64 `yaml:"at"`
	Layers        []uint    `yaml:"layers"`
	Filters       []string  `yaml:"filters"`
	MaxIterations int       `yaml:"max_iterations"`
}

type GroupSpec struct {
	Name          string   `yaml:"name"`
	Members       []string `yaml:"members"`
	Comparator    string   `yaml:"comparator"`
	MaxIterations int      `yaml:"max_iterations"`
}

// Load reads and validates a scene file.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scene: load %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("scene: %s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates a scene document. Unknown keys are rejected.
func Parse(data []byte) (*Scene, error) {
	var s Scene
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks names, shapes, sources and group structure.
func (s *Scene) Validate() error {
	targets := make(map[string]bool, len(s.Targets))
	for i, t := range s.Targets {
		if t.Name == "" {
			return fmt.Errorf("target %d: empty name", i)
		}
		if targets[t.Name] {
			return fmt.Errorf("target %s: %w", t.Name, ErrDuplicateName)
		}
		targets[t.Name] = true
		boxOK := len(t.Box) == 4 && t.Box[2] > 0 && t.Box[3] > 0
		circleOK := len(t.Circle) == 3 && t.Circle[2] > 0
		if boxOK == circleOK || (t.Box != nil && !boxOK) || (t.Circle != nil && !circleOK) {
			return fmt.Errorf("target %s: %w", t.Name, ErrShape)
		}
	}

	interactors := make(map[string]bool, len(s.Agents)+len(s.Groups))
	for i, a := range s.Agents {
		if a.Name == "" {
			return fmt.Errorf("agent %d: empty name", i)
		}
		if interactors[a.Name] {
			return fmt.Errorf("agent %s: %w", a.Name, ErrDuplicateName)
		}
		interactors[a.Name] = true
		switch a.Source {
		case SourcePointer:
		case SourceProximity:
			if a.Range <= 0 {
				return fmt.Errorf("agent %s: proximity source needs a positive range", a.Name)
			}
			if a.At != nil && len(a.At) != 2 {
				return fmt.Errorf("agent %s: at must be [x, y]", a.Name)
			}
		default:
			return fmt.Errorf("agent %s: %q: %w", a.Name, a.Source, ErrUnknownSource)
		}
	}

	groups := make(map[string]GroupSpec, len(s.Groups))
	for i, g := range s.Groups {
		if g.Name == "" {
			return fmt.Errorf("group %d: empty name", i)
		}
		if interactors[g.Name] {
			return fmt.Errorf("group %s: %w", g.Name, ErrDuplicateName)
		}
		interactors[g.Name] = true
		groups[g.Name] = g
		switch g.Comparator {
		case "", ComparatorPriority, ComparatorDistance:
		default:
			return fmt.Errorf("group %s: %q: %w", g.Name, g.Comparator, ErrComparator)
		}
	}

	owner := make(map[string]string)
	for _, g := range s.Groups {
		for _, m := range g.Members {
			if !interactors[m] {
				return fmt.Errorf("group %s: %s: %w", g.Name, m, ErrUnknownMember)
			}
			if prev, ok := owner[m]; ok {
				return fmt.Errorf("group %s: %s already in %s: %w", g.Name, m, prev, ErrSharedMember)
			}
			owner[m] = g.Name
		}
	}
	for _, g := range s.Groups {
		seen := map[string]bool{g.Name: true}
		for parent, ok := owner[g.Name]; ok; parent, ok = owner[parent] {
			if seen[parent] {
				return fmt.Errorf("group %s: %w", g.Name, ErrGroupCycle)
			}
			seen[parent] = true
		}
	}
	return nil
}

// Roots returns the names of agents and groups that no group owns, in
// declaration order, agents first.
func (s *Scene) Roots() []string {
	owned := make(map[string]bool)
	for _, g := range s.Groups {
		for _, m := range g.Members {
			owned[m] = true
		}
	}
	var roots []string
	for _, a := range s.Agents {
		if !owned[a.Name] {
			roots = append(roots, a.Name)
		}
	}
	for _, g := range s.Groups {
		if !owned[g.Name] {
			roots = append(roots, g.Name)
		}
	}
	return roots
}
