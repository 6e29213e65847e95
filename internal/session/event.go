package session

// EventType classifies controller events.
type EventType int

const (
	EventState    EventType = iota // state transition
	EventDraw                      // accepted draw
	EventFinished                  // session ended, Snapshot carries the outcome
)

// Event carries a snapshot to observers.
type Event struct {
	Type     EventType
	Snapshot *Snapshot // safe to retain
	Draw     *DrawEvent
}
