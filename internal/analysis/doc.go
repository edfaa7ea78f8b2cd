// Package analysis inspects recorded runs.
//
// [Series] pulls one coordinate of one particle out of a run's snapshots and
// [PowerSpectrum] / [DominantFrequency] find how fast it oscillates, e.g. the
// bounce of a spring or the sway of a rope:
//
//	ys, err := analysis.Series(states, 3, analysis.AxisY)
//	freq := analysis.DominantFrequency(ys, sampleDt)
package analysis
