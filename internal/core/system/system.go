package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput    Phase = iota // 0: advance the reference point
	PhaseStream                // 1: segment window diffing
	PhaseUpdate                // 2: collectibles, hazards, enemies
	PhaseFeedback              // 3: dispatch buffered feedback events
	PhaseCleanup               // 4: end-of-tick accounting
)

// System is the interface every per-tick system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
