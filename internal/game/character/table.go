package character

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed classes.yaml
var defaultTableYAML []byte

// Profile holds the fixed per-class numbers.
type Profile struct {
	Class        Class   `yaml:"class"`
	MoveRadius   int     `yaml:"move_radius"`
	AttackRadius int     `yaml:"attack_radius"`
	Attack       float64 `yaml:"attack"`
	Defence      float64 `yaml:"defence"`
}

// Table is the class lookup table keyed by Class.
//
// Invariant: every valid Class has exactly one Profile; mirrored classes share radii.
type Table struct {
	StartHealth float64   `yaml:"start_health"`
	Classes     []Profile `yaml:"classes"`

	byClass map[Class]Profile
}

// Validate checks completeness, value ranges and the mirrored-pair rule.
//
// Postcondition: nil return guarantees Profile succeeds for every valid Class.
func (t *Table) Validate() error {
	var errs []string
	if t.StartHealth <= 0 || t.StartHealth > MaxHealth {
		errs = append(errs, fmt.Sprintf("start_health must be in (0, %g], got %g", MaxHealth, t.StartHealth))
	}
	byClass := make(map[Class]Profile, len(t.Classes))
	for _, p := range t.Classes {
		if !p.Class.Valid() {
			errs = append(errs, "profile with invalid class")
			continue
		}
		if _, dup := byClass[p.Class]; dup {
			errs = append(errs, fmt.Sprintf("duplicate profile for %s", p.Class))
		}
		if p.MoveRadius < 0 || p.AttackRadius < 0 {
			errs = append(errs, fmt.Sprintf("%s: radii must be >= 0", p.Class))
		}
		if p.Attack <= 0 || p.Defence < 0 {
			errs = append(errs, fmt.Sprintf("%s: attack must be > 0 and defence >= 0", p.Class))
		}
		byClass[p.Class] = p
	}
	for _, c := range AllClasses() {
		p, ok := byClass[c]
		if !ok {
			errs = append(errs, fmt.Sprintf("missing profile for %s", c))
			continue
		}
		m, ok := byClass[c.Mirror()]
		if ok && (p.MoveRadius != m.MoveRadius || p.AttackRadius != m.AttackRadius) {
			errs = append(errs, fmt.Sprintf("%s and %s must share radii", c, c.Mirror()))
		}
	}
	if len(errs) > 0 {
		return errors.New("class table: " + strings.Join(errs, "; "))
	}
	t.byClass = byClass
	return nil
}

// LoadTable parses and validates a class table from YAML.
func LoadTable(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing class table: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// DefaultTable returns the embedded class table. It panics if the embedded
// data is invalid, which can only happen through a broken build.
func DefaultTable() *Table {
	t, err := LoadTable(defaultTableYAML)
	if err != nil {
		panic(err)
	}
	return t
}

// Profile returns the numbers for c.
func (t *Table) Profile(c Class) (Profile, bool) {
	p, ok := t.byClass[c]
	return p, ok
}

// Radii returns the move and attack radius for c; unknown classes get 0, 0.
func (t *Table) Radii(c Class) (move, attack int) {
	p := t.byClass[c]
	return p.MoveRadius, p.AttackRadius
}
