package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/san-kum/xpbd/internal/sim"
)

// Axis selects a particle coordinate.
type Axis int

const (
	AxisX Axis = iota
	AxisY
)

func ParseAxis(s string) (Axis, error) {
	switch s {
	case "x":
		return AxisX, nil
	case "y":
		return AxisY, nil
	}
	return AxisX, fmt.Errorf("unknown axis: %s (want x or y)", s)
}

// Series returns one coordinate of particle i across the snapshots.
// Snapshots that do not hold particle i are an error.
func Series(states []sim.State, i int, axis Axis) ([]float64, error) {
	if i < 0 {
		return nil, fmt.Errorf("particle index %d out of range", i)
	}
	out := make([]float64, len(states))
	for k, s := range states {
		if i >= s.Particles() {
			return nil, fmt.Errorf("snapshot %d has %d particles, want index %d", k, s.Particles(), i)
		}
		p := s.Particle(i)
		if axis == AxisY {
			out[k] = p.Y
		} else {
			out[k] = p.X
		}
	}
	return out, nil
}

// FFT is a radix-2 transform; len(data) must be a power of two.
func FFT(data []complex128) []complex128 {
	n := len(data)
	if n <= 1 {
		return append([]complex128(nil), data...)
	}
	if n%2 != 0 {
		panic("fft requires power of 2 length")
	}

	even := make([]complex128, n/2)
	odd := make([]complex128, n/2)
	for i := 0; i < n/2; i++ {
		even[i] = data[2*i]
		odd[i] = data[2*i+1]
	}
	fe, fo := FFT(even), FFT(odd)

	out := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		w := cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(n))) * fo[k]
		out[k] = fe[k] + w
		out[k+n/2] = fe[k] - w
	}
	return out
}

// PowerSpectrum returns the magnitude of the first half of the transform of
// samples with their mean removed, zero padded to a power of two. Bin k is
// the frequency k / (len(result)*2*sampleDt).
func PowerSpectrum(samples []float64) []float64 {
	if len(samples) == 0 {
		return nil
	}
	n := 1
	for n < len(samples) {
		n *= 2
	}

	mean := 0.0
	for _, v := range samples {
		mean += v
	}
	mean /= float64(len(samples))

	buf := make([]complex128, n)
	for i, v := range samples {
		buf[i] = complex(v-mean, 0)
	}

	bins := FFT(buf)
	ps := make([]float64, max(n/2, 1))
	for i := range ps {
		ps[i] = cmplx.Abs(bins[i])
	}
	return ps
}

// DominantFrequency returns the frequency in Hz of the strongest non-zero
// bin, or 0 for a flat or too short series.
func DominantFrequency(samples []float64, sampleDt float64) float64 {
	if len(samples) < 4 || sampleDt <= 0 {
		return 0
	}
	ps := PowerSpectrum(samples)

	best, peak := 0, 1e-12
	for k := 1; k < len(ps); k++ {
		if ps[k] > peak {
			best, peak = k, ps[k]
		}
	}
	padded := float64(2 * len(ps))
	return float64(best) / (padded * sampleDt)
}
