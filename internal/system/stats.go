package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/dustrun/engine/internal/core/system"
	"github.com/dustrun/engine/internal/world"
)

// StatsSystem logs run accounting at a fixed tick interval. Phase 4
// (Cleanup).
type StatsSystem struct {
	session  *world.Session
	log      *zap.Logger
	interval int
	ticks    int
}

func NewStatsSystem(session *world.Session, interval int, log *zap.Logger) *StatsSystem {
	if interval < 1 {
		interval = 300
	}
	return &StatsSystem{session: session, log: log, interval: interval}
}

func (s *StatsSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *StatsSystem) Update(_ time.Duration) {
	s.ticks++
	if s.ticks%s.interval != 0 {
		return
	}
	points, collected := s.session.Score()
	stats := s.session.PoolStats()
	s.log.Info("run stats",
		zap.Int("score", points),
		zap.Int("collected", collected),
		zap.Int("segments", s.session.Chunks().Resident()),
		zap.Int("pool_evictions", stats.Evictions),
		zap.Int("pool_discards", stats.Discards))
}
