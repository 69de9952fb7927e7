package system

import (
	"math"
	"time"

	coresys "github.com/dustrun/engine/internal/core/system"
	"github.com/dustrun/engine/internal/scene"
	"github.com/dustrun/engine/internal/world"
)

// Tracker is the shared per-tick reference state. The input system writes
// it; every later phase reads it.
type Tracker struct {
	Pos     scene.Vec3
	Speed   float64 // forward units per second
	Elapsed float64
}

// InputSystem advances the reference point down the track and ticks
// session timers. Phase 0 (Input).
type InputSystem struct {
	session *world.Session
	tracker *Tracker
}

func NewInputSystem(session *world.Session, tracker *Tracker) *InputSystem {
	return &InputSystem{session: session, tracker: tracker}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(dt time.Duration) {
	step := dt.Seconds()
	s.tracker.Elapsed += step
	s.tracker.Pos.Z += s.tracker.Speed * step
	// Gentle lane weave so the window crosses cell boundaries on both axes.
	s.tracker.Pos.X = math.Sin(s.tracker.Elapsed*0.4) * 8
	s.session.Advance(step)
}
