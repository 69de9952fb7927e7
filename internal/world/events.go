package world

// Feedback events emitted by the streaming core. All fire-and-forget: the
// core never waits on a consumer.

// CoinCollected fires when collectObject succeeds.
type CoinCollected struct {
	Segment SegmentKey
	Index   int
	Kind    string
	Score   int
}

// SegmentLoaded fires after a segment's content population has fully
// returned and the segment became resident.
type SegmentLoaded struct {
	Segment    SegmentKey
	Placements int
	Enemies    int
}

// SegmentUnloaded fires after a segment's teardown.
type SegmentUnloaded struct {
	Segment SegmentKey
}

// HazardRecycled fires when a dynamic hazard instance is returned to the
// pool during segment teardown.
type HazardRecycled struct {
	Segment SegmentKey
	Kind    string
}
