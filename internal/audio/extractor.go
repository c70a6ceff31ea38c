// Package audio extracts loudness and spectral features from decoded mono
// waveforms: peak-normalized signal, RMS level, zero-crossing rate, and the
// low/mid/high band energy profile of the one-sided magnitude spectrum.
package audio

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Frequency band edges in Hz. The mid band is the voice band.
const (
	LowBandMaxHz = 300
	MidBandMaxHz = 3000
)

// SpectrumFeatures holds the frequency-domain features. Absent from the
// bundle entirely when the input buffer is empty.
type SpectrumFeatures struct {
	// DominantFrequency is the frequency in Hz of the bin with the largest
	// magnitude.
	DominantFrequency float64

	// Band ratios: each band's summed magnitude over the total across the
	// three bands. They sum to 1 when the spectrum carries any energy and
	// are all exactly 0 otherwise.
	LowFreqRatio  float64
	MidFreqRatio  float64
	HighFreqRatio float64
}

// Features is the per-buffer audio feature bundle. Like the vision bundle it
// lives for one classification cycle only.
type Features struct {
	// RMSLevel is the root mean square of the normalized waveform.
	RMSLevel float64

	// ZeroCrossingRate is the number of sign changes over twice the sample
	// count, in [0,1].
	ZeroCrossingRate float64

	// Spectrum is nil when the input buffer was empty.
	Spectrum *SpectrumFeatures

	// NormalizedWaveform is the input scaled so its peak magnitude is 1.
	// Silence is passed through unchanged.
	NormalizedWaveform []float64
}

// Extractor computes audio features at a fixed sample rate. It keeps no
// state between calls.
type Extractor struct {
	sampleRate int
}

// NewExtractor creates an audio feature extractor for buffers sampled at the
// given rate in Hz.
func NewExtractor(sampleRate int) *Extractor {
	return &Extractor{sampleRate: sampleRate}
}

// Extract computes the feature bundle for one mono buffer. It never fails:
// an empty buffer produces a bundle without spectral features.
func (e *Extractor) Extract(samples []float64) *Features {
	normalized := peakNormalize(samples)

	f := &Features{
		RMSLevel:           rms(normalized),
		ZeroCrossingRate:   zeroCrossingRate(normalized),
		NormalizedWaveform: normalized,
	}

	if len(normalized) > 0 {
		f.Spectrum = e.spectrum(normalized)
	}
	return f
}

// peakNormalize scales the buffer so the peak magnitude is 1. A silent
// buffer is copied unchanged rather than divided by zero.
func peakNormalize(samples []float64) []float64 {
	peak := 0.0
	for _, s := range samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}

	out := make([]float64, len(samples))
	if peak == 0 {
		copy(out, samples)
		return out
	}
	for i, s := range samples {
		out[i] = s / peak
	}
	return out
}

func rms(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// zeroCrossingRate counts sign-bit changes between adjacent samples over
// twice the sample count.
func zeroCrossingRate(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	crossings := 0
	for i := 1; i < len(samples); i++ {
		if math.Signbit(samples[i]) != math.Signbit(samples[i-1]) {
			crossings++
		}
	}
	return float64(crossings) / (2 * float64(len(samples)))
}

// spectrum computes the one-sided magnitude spectrum and buckets it into the
// low, mid, and high bands.
func (e *Extractor) spectrum(samples []float64) *SpectrumFeatures {
	fft := fourier.NewFFT(len(samples))
	coeffs := fft.Coefficients(nil, samples)

	var low, mid, high float64
	maxMag := -1.0
	dominant := 0.0
	for i, c := range coeffs {
		mag := math.Hypot(real(c), imag(c))
		freq := fft.Freq(i) * float64(e.sampleRate)

		if mag > maxMag {
			maxMag = mag
			dominant = freq
		}

		switch {
		case freq < LowBandMaxHz:
			low += mag
		case freq <= MidBandMaxHz:
			mid += mag
		default:
			high += mag
		}
	}

	sf := &SpectrumFeatures{DominantFrequency: dominant}
	if total := low + mid + high; total > 0 {
		sf.LowFreqRatio = low / total
		sf.MidFreqRatio = mid / total
		sf.HighFreqRatio = high / total
	}
	return sf
}
