package event

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type scored struct{ points int }
type noted struct{ text string }

func TestEmitBuffersUntilFlush(t *testing.T) {
	b := NewBus()
	var got []scored
	Subscribe(b, func(e scored) { got = append(got, e) })

	Emit(b, scored{points: 1})
	Emit(b, scored{points: 2})
	require.Empty(t, got)

	b.Flush()
	require.Equal(t, []scored{{1}, {2}}, got)

	// Nothing new queued: a second flush delivers nothing again.
	b.Flush()
	require.Len(t, got, 2)
}

func TestTypedRouting(t *testing.T) {
	b := NewBus()
	var scores, notes int
	Subscribe(b, func(scored) { scores++ })
	Subscribe(b, func(noted) { notes++ })

	Emit(b, scored{})
	Emit(b, noted{})
	Emit(b, noted{})
	b.Flush()

	require.Equal(t, 1, scores)
	require.Equal(t, 2, notes)
}

func TestMultipleHandlersAllRun(t *testing.T) {
	b := NewBus()
	var a, c int
	Subscribe(b, func(scored) { a++ })
	Subscribe(b, func(scored) { c++ })

	Emit(b, scored{})
	b.Flush()
	require.Equal(t, 1, a)
	require.Equal(t, 1, c)
}

func TestEmitWithoutSubscribersIsHarmless(t *testing.T) {
	b := NewBus()
	Emit(b, noted{text: "nobody listening"})
	b.Flush()
}

func TestEmitDuringDispatchLandsNextFlush(t *testing.T) {
	b := NewBus()
	var chain []string
	Subscribe(b, func(e noted) {
		chain = append(chain, e.text)
		if e.text == "first" {
			Emit(b, noted{text: "second"})
		}
	})

	Emit(b, noted{text: "first"})
	b.Flush()
	require.Equal(t, []string{"first"}, chain)

	b.Flush()
	require.Equal(t, []string{"first", "second"}, chain)
}
