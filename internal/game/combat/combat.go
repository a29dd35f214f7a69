// Package combat resolves a single attack between two units on the board.
package combat

import (
	"errors"
	"fmt"
	"math"

	"github.com/cory-johannsen/tactics/internal/game/character"
	"github.com/cory-johannsen/tactics/internal/game/roster"
)

// ErrInvariant marks an attack the caller should never have issued: an empty
// cell or a same-faction target. It signals a programming error.
var ErrInvariant = errors.New("combat invariant violated")

// MinDamageFraction is the share of attack that always lands.
const MinDamageFraction = 0.1

// Damage returns the damage attacker deals to defender: attack minus defence,
// but never less than a tenth of attack.
//
// Postcondition: Returns > 0 when attacker.Attack > 0.
func Damage(attacker, defender *character.Character) float64 {
	return math.Max(attacker.Attack-defender.Defence, attacker.Attack*MinDamageFraction)
}

// Hit is the outcome of one resolved attack.
type Hit struct {
	// AttackerID is the attacking character's ID.
	AttackerID string
	// TargetID is the defending character's ID.
	TargetID string
	// From is the attacker's cell.
	From int
	// To is the defender's cell.
	To int
	// Amount is the health removed.
	Amount float64
	// Remaining is the defender's health after the hit.
	Remaining float64
	// Killed is true when the defender died and left the board.
	Killed bool
}

// Resolve applies an attack from the unit on from to the unit on to. A
// defender at or below zero health is removed from reg.
//
// Precondition: both cells hold units of opposing factions.
// Postcondition: On error reg is unchanged.
func Resolve(reg *roster.Registry, from, to int) (Hit, error) {
	attacker, ok := reg.At(from)
	if !ok {
		return Hit{}, fmt.Errorf("attacker at %d: %w", from, ErrInvariant)
	}
	defender, ok := reg.At(to)
	if !ok {
		return Hit{}, fmt.Errorf("defender at %d: %w", to, ErrInvariant)
	}
	if attacker.Faction() == defender.Faction() {
		return Hit{}, fmt.Errorf("%s at %d attacking own faction at %d: %w",
			attacker.Character.Class, from, to, ErrInvariant)
	}

	amount := Damage(attacker.Character, defender.Character)
	killed := defender.Character.TakeDamage(amount)
	if killed {
		reg.Remove(to)
	}
	return Hit{
		AttackerID: attacker.Character.ID,
		TargetID:   defender.Character.ID,
		From:       from,
		To:         to,
		Amount:     amount,
		Remaining:  defender.Character.Health,
		Killed:     killed,
	}, nil
}
