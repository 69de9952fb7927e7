package system

import (
	"time"

	coresys "github.com/dustrun/engine/internal/core/system"
	"github.com/dustrun/engine/internal/enemy"
	"github.com/dustrun/engine/internal/world"
)

// SimulateSystem runs the collectible and hazard passes plus enemy patrol
// motion. Phase 2 (Update).
type SimulateSystem struct {
	session *world.Session
	enemies *enemy.Manager
	tracker *Tracker
}

func NewSimulateSystem(session *world.Session, enemies *enemy.Manager, tracker *Tracker) *SimulateSystem {
	return &SimulateSystem{session: session, enemies: enemies, tracker: tracker}
}

func (s *SimulateSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *SimulateSystem) Update(dt time.Duration) {
	step := dt.Seconds()
	s.session.Simulate(step, s.tracker.Elapsed, s.tracker.Pos)
	if s.enemies != nil {
		s.enemies.Update(step, s.tracker.Elapsed)
	}
}
