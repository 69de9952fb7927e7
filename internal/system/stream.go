package system

import (
	"time"

	coresys "github.com/dustrun/engine/internal/core/system"
	"github.com/dustrun/engine/internal/world"
)

// StreamSystem re-centers the segment window on the reference point.
// Phase 1 (Stream).
type StreamSystem struct {
	session *world.Session
	tracker *Tracker
}

func NewStreamSystem(session *world.Session, tracker *Tracker) *StreamSystem {
	return &StreamSystem{session: session, tracker: tracker}
}

func (s *StreamSystem) Phase() coresys.Phase { return coresys.PhaseStream }

func (s *StreamSystem) Update(_ time.Duration) {
	s.session.Stream(s.tracker.Pos)
}
