// Package character defines the six unit classes, their stat table and the
// squad generator that produces fresh characters for a level.
package character

import "fmt"

// Faction groups classes into the two opposing sides.
type Faction int

const (
	FactionNone Faction = iota
	FactionPlayer
	FactionEnemy
)

// String returns "player", "enemy" or "none".
func (f Faction) String() string {
	switch f {
	case FactionPlayer:
		return "player"
	case FactionEnemy:
		return "enemy"
	default:
		return "none"
	}
}

// Opponent returns the opposing faction; FactionNone has no opponent.
func (f Faction) Opponent() Faction {
	switch f {
	case FactionPlayer:
		return FactionEnemy
	case FactionEnemy:
		return FactionPlayer
	default:
		return FactionNone
	}
}

// Classes returns the classes belonging to f in declaration order.
func (f Faction) Classes() []Class {
	switch f {
	case FactionPlayer:
		return []Class{Swordsman, Bowman, Magician}
	case FactionEnemy:
		return []Class{Undead, Vampire, Daemon}
	default:
		return nil
	}
}

// Class is the closed set of unit types.
// The zero value (ClassUnknown) is intentionally invalid.
type Class int

const (
	ClassUnknown Class = iota
	Swordsman
	Bowman
	Magician
	Undead
	Vampire
	Daemon
)

var classNames = map[Class]string{
	Swordsman: "swordsman",
	Bowman:    "bowman",
	Magician:  "magician",
	Undead:    "undead",
	Vampire:   "vampire",
	Daemon:    "daemon",
}

// AllClasses lists every valid class.
func AllClasses() []Class {
	return []Class{Swordsman, Bowman, Magician, Undead, Vampire, Daemon}
}

// String returns the lowercase class name, or "unknown".
func (c Class) String() string {
	if name, ok := classNames[c]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether c is one of the six classes.
func (c Class) Valid() bool {
	_, ok := classNames[c]
	return ok
}

// Faction returns the side c fights for.
func (c Class) Faction() Faction {
	switch c {
	case Swordsman, Bowman, Magician:
		return FactionPlayer
	case Undead, Vampire, Daemon:
		return FactionEnemy
	default:
		return FactionNone
	}
}

// Mirror returns the class on the opposing side that shares c's radii.
func (c Class) Mirror() Class {
	switch c {
	case Swordsman:
		return Undead
	case Bowman:
		return Vampire
	case Magician:
		return Daemon
	case Undead:
		return Swordsman
	case Vampire:
		return Bowman
	case Daemon:
		return Magician
	default:
		return ClassUnknown
	}
}

// ParseClass maps a class name back to its Class.
func ParseClass(name string) (Class, error) {
	for c, n := range classNames {
		if n == name {
			return c, nil
		}
	}
	return ClassUnknown, fmt.Errorf("unknown class %q", name)
}

// MarshalText encodes the class by name.
func (c Class) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("cannot encode invalid class %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText decodes a class name.
func (c *Class) UnmarshalText(text []byte) error {
	parsed, err := ParseClass(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
