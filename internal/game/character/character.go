package character

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

// MaxHealth caps a character's health.
const MaxHealth = 100.0

// HealthLevel is the display band for a health value.
type HealthLevel string

const (
	HealthCritical HealthLevel = "critical"
	HealthNormal   HealthLevel = "normal"
	HealthHigh     HealthLevel = "high"
)

// HealthLevelOf classifies h: below 15 critical, below 50 normal, otherwise high.
func HealthLevelOf(h float64) HealthLevel {
	switch {
	case h < 15:
		return HealthCritical
	case h < 50:
		return HealthNormal
	default:
		return HealthHigh
	}
}

// Character is one combatant. Health may go to or below zero internally;
// such a character is dead and gets removed from the board.
type Character struct {
	ID      string
	Class   Class
	Level   int
	Attack  float64
	Defence float64
	Health  float64
}

// New builds a level-1 character of class c from the table and promotes it
// until it reaches level.
//
// Precondition: c must be valid; level >= 1.
// Postcondition: Returns a character with a fresh UUID, or an error.
func New(t *Table, c Class, level int) (*Character, error) {
	p, ok := t.Profile(c)
	if !ok {
		return nil, fmt.Errorf("no profile for class %s", c)
	}
	if level < 1 {
		return nil, fmt.Errorf("level must be >= 1, got %d", level)
	}
	ch := &Character{
		ID:      uuid.NewString(),
		Class:   c,
		Level:   1,
		Attack:  p.Attack,
		Defence: p.Defence,
		Health:  t.StartHealth,
	}
	for ch.Level < level {
		ch.Promote()
	}
	return ch, nil
}

// Faction returns the side the character fights for.
func (c *Character) Faction() Faction { return c.Class.Faction() }

// Alive reports whether health is above zero.
func (c *Character) Alive() bool { return c.Health > 0 }

// TakeDamage subtracts amount from health and reports whether the character died.
//
// Precondition: amount >= 0.
func (c *Character) TakeDamage(amount float64) (dead bool) {
	c.Health -= amount
	return !c.Alive()
}

// Promote applies one level of growth: attack scales by (80 + health) / 100,
// level increases by one and health recovers by 80 up to MaxHealth.
func (c *Character) Promote() {
	c.Attack = c.Attack * (80 + c.Health) / 100
	c.Level++
	c.Health = math.Min(c.Health+80, MaxHealth)
}

// HealthLevel returns the display band of the current health.
func (c *Character) HealthLevel() HealthLevel { return HealthLevelOf(c.Health) }

// Title is the tooltip line shown when hovering a unit.
func (c *Character) Title() string {
	return fmt.Sprintf("🎖️ %d ⚔️ %g 🛡️ %g ❤️ %g", c.Level, c.Attack, c.Defence, c.Health)
}

// Clone returns an independent copy.
func (c *Character) Clone() *Character {
	cp := *c
	return &cp
}
