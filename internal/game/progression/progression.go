// Package progression advances the campaign between levels: survivors grow,
// fresh squads are generated and both sides are placed in their spawn columns.
package progression

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/tactics/internal/game/board"
	"github.com/cory-johannsen/tactics/internal/game/character"
	"github.com/cory-johannsen/tactics/internal/game/dice"
	"github.com/cory-johannsen/tactics/internal/game/roster"
)

// DefaultLevelCap is the last playable level.
const DefaultLevelCap = 4

// Factory produces random characters for a squad.
type Factory interface {
	GenerateSquad(allowed []character.Class, maxLevel, count int) ([]*character.Character, error)
}

// LevelState tracks the campaign position.
type LevelState struct {
	Level int
	Cap   int
}

// Won reports whether the level counter has passed the cap.
func (s LevelState) Won() bool { return s.Level > s.Cap }

// Config holds the numbers that shape seeding.
type Config struct {
	BoardSize        int
	LevelCap         int
	InitialSquadSize int
}

// Progression seeds levels and applies level-up growth.
type Progression struct {
	cfg     Config
	factory Factory
	src     dice.Source
	logger  *zap.Logger
}

// New creates a Progression.
//
// Precondition: cfg.BoardSize >= 2; factory, src and logger must be non-nil.
func New(cfg Config, factory Factory, src dice.Source, logger *zap.Logger) *Progression {
	return &Progression{cfg: cfg, factory: factory, src: src, logger: logger}
}

// Cap returns the configured level cap.
func (p *Progression) Cap() int { return p.cfg.LevelCap }

// SquadSize returns the number of units per side at level, bounded by the
// number of spawn cells of one side.
func (p *Progression) SquadSize(level int) int {
	n := p.cfg.InitialSquadSize + level - 1
	if limit := 2 * p.cfg.BoardSize; n > limit {
		n = limit
	}
	if n < 1 {
		n = 1
	}
	return n
}

// SpawnCells returns the cells a faction deploys on: columns 0 and 1 for the
// player, the last two columns for the enemy, in ascending order.
func SpawnCells(f character.Faction, n int) []int {
	first := 0
	if f == character.FactionEnemy {
		first = n - 2
	}
	cells := make([]int, 0, 2*n)
	for row := 0; row < n; row++ {
		cells = append(cells, board.IndexOf(row, first, n), board.IndexOf(row, first+1, n))
	}
	return cells
}

// PromoteAll applies one level of growth to every character.
func PromoteAll(chars []*character.Character) {
	for _, c := range chars {
		c.Promote()
	}
}

// Seed clears reg and deploys fresh squads for level. Survivors take the
// first player slots in order; extra survivors beyond the squad size are dropped.
//
// Postcondition: On success reg holds SquadSize(level) units per side.
func (p *Progression) Seed(reg *roster.Registry, level int, survivors []*character.Character) error {
	size := p.SquadSize(level)
	players, err := p.factory.GenerateSquad(character.FactionPlayer.Classes(), level, size)
	if err != nil {
		return fmt.Errorf("seeding player squad: %w", err)
	}
	if len(players) != size {
		return fmt.Errorf("seeding player squad: factory returned %d of %d", len(players), size)
	}
	for i, s := range survivors {
		if i >= size {
			break
		}
		players[i] = s
	}
	enemies, err := p.factory.GenerateSquad(character.FactionEnemy.Classes(), level, size)
	if err != nil {
		return fmt.Errorf("seeding enemy squad: %w", err)
	}
	if len(enemies) != size {
		return fmt.Errorf("seeding enemy squad: factory returned %d of %d", len(enemies), size)
	}

	units := make([]roster.Unit, 0, 2*size)
	units = p.deploy(units, players, character.FactionPlayer)
	units = p.deploy(units, enemies, character.FactionEnemy)
	if err := reg.Reset(units); err != nil {
		return fmt.Errorf("seeding level %d: %w", level, err)
	}
	p.logger.Info("level seeded",
		zap.Int("level", level),
		zap.Int("squad_size", size),
		zap.Int("survivors", min(len(survivors), size)),
	)
	return nil
}

func (p *Progression) deploy(units []roster.Unit, squad []*character.Character, f character.Faction) []roster.Unit {
	cells := SpawnCells(f, p.cfg.BoardSize)
	dice.Shuffle(p.src, cells)
	for i, c := range squad {
		units = append(units, roster.Unit{Character: c, Cell: cells[i]})
	}
	return units
}

// Advance promotes the living player units, increments the level and seeds
// the next board unless the cap has been passed. Promotion is applied to
// copies that only reach the board once seeding succeeded.
//
// Postcondition: next.Won() reports victory; reg is reseeded otherwise. On
// error reg and its characters are unchanged.
func (p *Progression) Advance(reg *roster.Registry, current LevelState) (LevelState, error) {
	var survivors, promoted []*character.Character
	for _, u := range reg.Faction(character.FactionPlayer) {
		if u.Character.Alive() {
			survivors = append(survivors, u.Character)
			promoted = append(promoted, u.Character.Clone())
		}
	}
	PromoteAll(promoted)
	next := LevelState{Level: current.Level + 1, Cap: current.Cap}
	if next.Won() {
		for i, c := range survivors {
			*c = *promoted[i]
		}
	} else if err := p.Seed(reg, next.Level, promoted); err != nil {
		return current, err
	}
	p.logger.Info("level cleared",
		zap.Int("level", current.Level),
		zap.Int("survivors", len(survivors)),
	)
	return next, nil
}
