package capture

import (
	"errors"
	"testing"
)

func TestMockSourceCapture(t *testing.T) {
	src := NewMockSource(64, 48, 8000)

	frame, sound, err := src.Capture()
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if b := frame.Bounds(); b.Dx() != 64 || b.Dy() != 48 {
		t.Errorf("frame is %dx%d, want 64x48", b.Dx(), b.Dy())
	}
	if len(sound) != 8000 {
		t.Errorf("audio buffer has %d samples, want 8000", len(sound))
	}
}

func TestMockSourceFramesDrift(t *testing.T) {
	src := NewMockSource(64, 48, 8000)

	a, _, err := src.Capture()
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	b, _, err := src.Capture()
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	// Consecutive frames must differ so the extractor registers motion.
	same := true
	for y := 0; y < 48 && same; y++ {
		for x := 0; x < 64; x++ {
			if a.At(x, y) != b.At(x, y) {
				same = false
				break
			}
		}
	}
	if same {
		t.Error("consecutive synthetic frames are identical")
	}
}

func TestMockSourceClose(t *testing.T) {
	src := NewMockSource(64, 48, 8000)
	if err := src.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, _, err := src.Capture(); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Capture after Close = %v, want ErrUnavailable", err)
	}
}
