package capture

import (
	"image"
	"image/color"
	"math"
	"sync"
)

// MockSource generates a deterministic synthetic scene: a light square
// drifting over a dark background plus a sine tone whose loudness swells and
// fades. It stands in for a live capture transport in dev mode and tests.
type MockSource struct {
	mu         sync.Mutex
	width      int
	height     int
	sampleRate int
	bufferLen  int
	tick       int
	closed     bool
}

// NewMockSource creates a synthetic source producing frames of the given
// size and one-second audio buffers at the given rate.
func NewMockSource(width, height, sampleRate int) *MockSource {
	return &MockSource{
		width:      width,
		height:     height,
		sampleRate: sampleRate,
		bufferLen:  sampleRate,
	}
}

// Capture returns the next synthetic frame and audio buffer.
func (s *MockSource) Capture() (image.Image, []float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, nil, ErrUnavailable
	}
	s.tick++

	return s.frame(), s.audio(), nil
}

// frame draws the drifting square. The square advances a few pixels per
// tick so consecutive frames register motion.
func (s *MockSource) frame() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	for i := range img.Pix {
		img.Pix[i] = 30
	}

	side := s.width / 4
	x0 := (s.tick * 3) % (s.width - side)
	y0 := s.height / 3
	bright := color.RGBA{R: 200, G: 180, B: 160, A: 255}
	for y := y0; y < y0+side && y < s.height; y++ {
		for x := x0; x < x0+side; x++ {
			img.SetRGBA(x, y, bright)
		}
	}
	return img
}

// audio produces a 440 Hz tone with slowly varying amplitude.
func (s *MockSource) audio() []float64 {
	amplitude := 0.2 + 0.15*math.Sin(float64(s.tick)/5.0)
	buf := make([]float64, s.bufferLen)
	for i := range buf {
		buf[i] = amplitude * math.Sin(2*math.Pi*440*float64(i)/float64(s.sampleRate))
	}
	return buf
}

// Close stops the source; subsequent captures report ErrUnavailable.
func (s *MockSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
