// Package terrain provides the deterministic height field the rest of the
// engine samples. Segments, decorations and rolling hazards all track the
// same HeightAt, so there is exactly one notion of "ground".
package terrain

import (
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/dustrun/engine/internal/data"
)

// Field is a fractal-noise height function over the XZ plane.
type Field struct {
	noise  opensimplex.Noise
	params data.NoiseParams
}

// New builds a height field from a seed and the level's noise parameters.
func New(seed int64, params data.NoiseParams) *Field {
	if params.Octaves <= 0 {
		params.Octaves = 1
	}
	return &Field{
		noise:  opensimplex.New(seed),
		params: params,
	}
}

// HeightAt returns the terrain height at a world position. Deterministic in
// (seed, x, z): the same spot always reports the same ground level no matter
// how many times its segment has been streamed in and out.
func (f *Field) HeightAt(x, z float64) float64 {
	freq := f.params.Frequency
	amp := f.params.Amplitude
	var h float64
	for i := 0; i < f.params.Octaves; i++ {
		h += f.noise.Eval2(x*freq, z*freq) * amp
		freq *= f.params.Lacunarity
		amp *= f.params.Persistence
	}
	return h
}

// SlopeAt returns the downhill XZ gradient at a position, sampled by central
// differences. Used by rolling hazards to pick up speed on inclines.
func (f *Field) SlopeAt(x, z float64) (dx, dz float64) {
	const eps = 0.5
	dx = (f.HeightAt(x-eps, z) - f.HeightAt(x+eps, z)) / (2 * eps)
	dz = (f.HeightAt(x, z-eps) - f.HeightAt(x, z+eps)) / (2 * eps)
	return dx, dz
}
