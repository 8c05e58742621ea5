package audio

import (
	"encoding/binary"
	"math"
)

type LevelMetrics struct {
	RMSdBFS  float64
	PeakdBFS float64
	Samples  int64
}

// Meter accumulates signal level over 16-bit little-endian PCM chunks.
type Meter struct {
	peak       float64
	sumSquares float64
	samples    int64
}

func (m *Meter) Add(pcm []byte) {
	for i := 0; i+2 <= len(pcm); i += 2 {
		v := float64(int16(binary.LittleEndian.Uint16(pcm[i:]))) / 32768.0
		abs := math.Abs(v)
		if abs > m.peak {
			m.peak = abs
		}
		m.sumSquares += v * v
		m.samples++
	}
}

func (m *Meter) Metrics() LevelMetrics {
	if m.samples == 0 {
		return LevelMetrics{RMSdBFS: math.Inf(-1), PeakdBFS: math.Inf(-1)}
	}

	rms := math.Sqrt(m.sumSquares / float64(m.samples))
	return LevelMetrics{
		RMSdBFS:  amplitudeToDBFS(rms),
		PeakdBFS: amplitudeToDBFS(m.peak),
		Samples:  m.samples,
	}
}

// IsSilent reports whether the measured signal stays under thresholdDBFS,
// allowing isolated peaks up to 6 dB above it.
func (l LevelMetrics) IsSilent(thresholdDBFS float64) bool {
	if l.Samples == 0 {
		return true
	}
	if math.IsInf(l.RMSdBFS, -1) && math.IsInf(l.PeakdBFS, -1) {
		return true
	}
	return l.RMSdBFS <= thresholdDBFS && l.PeakdBFS <= thresholdDBFS+6
}

func amplitudeToDBFS(amplitude float64) float64 {
	if amplitude <= 0 {
		return math.Inf(-1)
	}
	return 20.0 * math.Log10(amplitude)
}
