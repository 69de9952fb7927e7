package system

import (
	"time"

	coresys "github.com/dustrun/engine/internal/core/system"
	"github.com/dustrun/engine/internal/world"
)

// FeedbackSystem delivers the feedback events buffered during this tick.
// Phase 3 (Feedback).
type FeedbackSystem struct {
	session *world.Session
}

func NewFeedbackSystem(session *world.Session) *FeedbackSystem {
	return &FeedbackSystem{session: session}
}

func (s *FeedbackSystem) Phase() coresys.Phase { return coresys.PhaseFeedback }

func (s *FeedbackSystem) Update(_ time.Duration) {
	s.session.Dispatch()
}
