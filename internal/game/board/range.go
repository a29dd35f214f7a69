package board

import "github.com/cory-johannsen/tactics/internal/game/character"

// Square returns every cell within Chebyshev distance r of origin on an n×n
// board, origin included. Cells past an edge are dropped, never wrapped.
//
// Precondition: Contains(origin, n); r >= 0.
func Square(origin, r, n int) Set {
	row, col := RowOf(origin, n), ColOf(origin, n)
	out := make(Set)
	for dr := -r; dr <= r; dr++ {
		rr := row + dr
		if rr < 0 || rr >= n {
			continue
		}
		for dc := -r; dc <= r; dc++ {
			cc := col + dc
			if cc < 0 || cc >= n {
				continue
			}
			out.Add(IndexOf(rr, cc, n))
		}
	}
	return out
}

// Role selects which radius of a class profile a range uses.
type Role int

const (
	RoleMove Role = iota
	RoleAttack
)

// Calculator computes class ranges on a fixed board.
type Calculator struct {
	size  int
	table *character.Table
}

// NewCalculator creates a Calculator for an n×n board.
//
// Precondition: size >= 1; table is validated.
func NewCalculator(size int, table *character.Table) *Calculator {
	return &Calculator{size: size, table: table}
}

// Size returns the board side length.
func (c *Calculator) Size() int { return c.size }

// Range returns the square of the class radius for role around origin,
// origin excluded.
func (c *Calculator) Range(origin int, class character.Class, role Role) Set {
	move, attack := c.table.Radii(class)
	r := move
	if role == RoleAttack {
		r = attack
	}
	return Square(origin, r, c.size).Without(origin)
}

// Reach is everything a unit standing on a cell can do next.
type Reach struct {
	Move     Set
	Attack   Set
	Reselect Set
}

// Reach computes the move and attack squares of a unit at origin and the
// positions of its friends it could switch to. Attack cells are not filtered
// by occupancy; that is left to the caller.
//
// Postcondition: origin is in none of the returned sets.
func (c *Calculator) Reach(origin int, class character.Class, friends []int) Reach {
	return Reach{
		Move:     c.Range(origin, class, RoleMove),
		Attack:   c.Range(origin, class, RoleAttack),
		Reselect: NewSet(friends...).Without(origin),
	}
}

// MoveWithReselect merges the move square with friendly positions, the way a
// player's highlighted move range is drawn.
func (r Reach) MoveWithReselect() Set { return r.Move.Union(r.Reselect) }
