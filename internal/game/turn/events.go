package turn

import "github.com/cory-johannsen/tactics/internal/game/character"

// EventKind identifies a presentation event.
type EventKind int

const (
	EventSelection EventKind = iota
	EventMoved
	EventDamaged
	EventLevelStarted
	EventGameOver
)

func (k EventKind) String() string {
	switch k {
	case EventSelection:
		return "selection"
	case EventMoved:
		return "moved"
	case EventDamaged:
		return "damaged"
	case EventLevelStarted:
		return "level-started"
	case EventGameOver:
		return "game-over"
	default:
		return "unknown"
	}
}

// Event tells the presentation layer what just changed.
//
// Cells holds the selected cell for EventSelection (empty when the selection
// was cleared), [from, to] for EventMoved and [attacker, defender] for
// EventDamaged.
type Event struct {
	Kind    EventKind
	Side    character.Faction
	Cells   []int
	Amount  float64
	Removed bool
	Level   int
	Outcome Outcome
}

// Listener receives events synchronously, after the state change. It must not
// call back into the controller.
type Listener interface {
	OnEvent(Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Event)

// OnEvent calls f(e).
func (f ListenerFunc) OnEvent(e Event) { f(e) }
