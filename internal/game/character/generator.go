package character

import (
	"fmt"

	"github.com/cory-johannsen/tactics/internal/game/dice"
)

// Generator produces random characters for squad seeding.
type Generator struct {
	table  *Table
	roller *dice.Roller
}

// NewGenerator creates a Generator.
//
// Precondition: table and roller must be non-nil.
func NewGenerator(table *Table, roller *dice.Roller) *Generator {
	return &Generator{table: table, roller: roller}
}

// Generate returns one character with a class drawn uniformly from allowed and
// a level drawn uniformly from [1, maxLevel].
//
// Precondition: allowed is non-empty; maxLevel >= 1.
func (g *Generator) Generate(allowed []Class, maxLevel int) (*Character, error) {
	if len(allowed) == 0 {
		return nil, fmt.Errorf("generate: no allowed classes")
	}
	if maxLevel < 1 {
		return nil, fmt.Errorf("generate: max level must be >= 1, got %d", maxLevel)
	}
	class := allowed[g.roller.Between(1, len(allowed))-1]
	level := g.roller.Between(1, maxLevel)
	return New(g.table, class, level)
}

// GenerateSquad returns count characters built by Generate, in draw order.
//
// Postcondition: len(result) == count on success.
func (g *Generator) GenerateSquad(allowed []Class, maxLevel, count int) ([]*Character, error) {
	squad := make([]*Character, 0, count)
	for i := 0; i < count; i++ {
		c, err := g.Generate(allowed, maxLevel)
		if err != nil {
			return nil, err
		}
		squad = append(squad, c)
	}
	return squad, nil
}
