package session

import (
	"encoding/json"
	"time"

	"github.com/cringo/cringo/internal/draw"
)

type State int

const (
	Idle State = iota
	Seeding
	Active
	Finished
	AwaitingRestart
)

var stateNames = map[State]string{
	Idle:            "idle",
	Seeding:         "seeding",
	Active:          "active",
	Finished:        "finished",
	AwaitingRestart: "awaiting_restart",
}

var stateFromName = map[string]State{
	"idle":             Idle,
	"seeding":          Seeding,
	"active":           Active,
	"finished":         Finished,
	"awaiting_restart": AwaitingRestart,
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *State) UnmarshalJSON(data []byte) error {
	var n string
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if v, ok := stateFromName[n]; ok {
		*s = v
	}
	return nil
}

// Outcome records how a session ended.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeWon
	OutcomeExhausted
	OutcomeAborted
)

var outcomeNames = map[Outcome]string{
	OutcomeNone:      "",
	OutcomeWon:       "won",
	OutcomeExhausted: "exhausted",
	OutcomeAborted:   "aborted",
}

var outcomeFromName = map[string]Outcome{
	"":          OutcomeNone,
	"won":       OutcomeWon,
	"exhausted": OutcomeExhausted,
	"aborted":   OutcomeAborted,
}

func (o Outcome) String() string {
	if n, ok := outcomeNames[o]; ok {
		return n
	}
	return "unknown"
}

func (o Outcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

func (o *Outcome) UnmarshalJSON(data []byte) error {
	var n string
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if v, ok := outcomeFromName[n]; ok {
		*o = v
	}
	return nil
}

// DrawEvent is produced once per accepted draw.
type DrawEvent struct {
	Seed     draw.Seed `json:"seed"`
	Sequence int       `json:"sequence"`
	Value    int       `json:"value"`
}

// Snapshot is the externally visible view of the controller.
type Snapshot struct {
	ID         string     `json:"id,omitempty"`
	State      State      `json:"state"`
	Connected  bool       `json:"connected"`
	Seed       draw.Seed  `json:"seed"`
	Draws      []int      `json:"draws"`
	Outcome    Outcome    `json:"outcome,omitempty"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

// Clone returns a deep copy so the snapshot can be mutated independently.
func (s *Snapshot) Clone() *Snapshot {
	c := *s
	if s.FinishedAt != nil {
		t := *s.FinishedAt
		c.FinishedAt = &t
	}
	if s.Draws != nil {
		c.Draws = make([]int, len(s.Draws))
		copy(c.Draws, s.Draws)
	}
	return &c
}

// Count is the number of accepted draws.
func (s *Snapshot) Count() int { return len(s.Draws) }

func (s *Snapshot) Last() (int, bool) {
	if len(s.Draws) == 0 {
		return 0, false
	}
	return s.Draws[len(s.Draws)-1], true
}

func (s *Snapshot) IsTerminal() bool {
	return s.State == Finished || s.State == AwaitingRestart
}
