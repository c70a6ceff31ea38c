package vision

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"
)

// solidFrame builds a w x h frame filled with one colour.
func solidFrame(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestExtractNilFrame(t *testing.T) {
	e := NewExtractor(32, 32)
	_, err := e.Extract(nil)
	if err == nil {
		t.Fatal("expected an error for a nil frame")
	}
	var extractErr *FeatureExtractionError
	if !errors.As(err, &extractErr) {
		t.Fatalf("expected a FeatureExtractionError, got %T", err)
	}
}

func TestExtractZeroDimensionFrame(t *testing.T) {
	e := NewExtractor(32, 32)
	_, err := e.Extract(image.NewRGBA(image.Rect(0, 0, 0, 0)))
	var extractErr *FeatureExtractionError
	if !errors.As(err, &extractErr) {
		t.Fatalf("expected a FeatureExtractionError, got %v", err)
	}
}

func TestMotionAbsentOnFirstFrame(t *testing.T) {
	e := NewExtractor(32, 32)

	first, err := e.Extract(solidFrame(64, 64, color.RGBA{A: 255}))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if first.MotionPercent != nil {
		t.Fatalf("first frame should have no motion estimate, got %v", *first.MotionPercent)
	}

	second, err := e.Extract(solidFrame(64, 64, color.RGBA{A: 255}))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if second.MotionPercent == nil {
		t.Fatal("second frame should carry a motion estimate")
	}
}

func TestMotionPercentRange(t *testing.T) {
	tests := []struct {
		name string
		prev color.RGBA
		cur  color.RGBA
		want float64
	}{
		{"identical frames", color.RGBA{R: 128, G: 128, B: 128, A: 255}, color.RGBA{R: 128, G: 128, B: 128, A: 255}, 0},
		{"black to white", color.RGBA{A: 255}, color.RGBA{R: 255, G: 255, B: 255, A: 255}, 100},
		{"below threshold", color.RGBA{R: 100, G: 100, B: 100, A: 255}, color.RGBA{R: 110, G: 110, B: 110, A: 255}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewExtractor(32, 32)
			if _, err := e.Extract(solidFrame(48, 48, tt.prev)); err != nil {
				t.Fatalf("Extract failed: %v", err)
			}
			f, err := e.Extract(solidFrame(48, 48, tt.cur))
			if err != nil {
				t.Fatalf("Extract failed: %v", err)
			}
			if f.MotionPercent == nil {
				t.Fatal("expected a motion estimate")
			}
			if *f.MotionPercent != tt.want {
				t.Errorf("motion = %v, want %v", *f.MotionPercent, tt.want)
			}
		})
	}
}

func TestMotionAcrossResolutionChange(t *testing.T) {
	e := NewExtractor(32, 32)
	if _, err := e.Extract(solidFrame(64, 64, color.RGBA{A: 255})); err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	f, err := e.Extract(solidFrame(32, 48, color.RGBA{R: 255, G: 255, B: 255, A: 255}))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if f.MotionPercent == nil || *f.MotionPercent != 100 {
		t.Errorf("expected full motion after resolution change, got %v", f.MotionPercent)
	}
}

func TestNormalizedFrame(t *testing.T) {
	e := NewExtractor(16, 16)
	f, err := e.Extract(solidFrame(64, 64, color.RGBA{R: 255, A: 255}))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if got, want := len(f.NormalizedFrame), 16*16*3; got != want {
		t.Fatalf("normalized frame has %d values, want %d", got, want)
	}
	if f.Width != 16 || f.Height != 16 {
		t.Errorf("target resolution = %dx%d, want 16x16", f.Width, f.Height)
	}
	for i := 0; i < len(f.NormalizedFrame); i += 3 {
		r, g, b := f.NormalizedFrame[i], f.NormalizedFrame[i+1], f.NormalizedFrame[i+2]
		if r != 1 || g != 0 || b != 0 {
			t.Fatalf("pixel %d = (%v, %v, %v), want (1, 0, 0)", i/3, r, g, b)
		}
	}
}

func TestHSVMeansPureRed(t *testing.T) {
	e := NewExtractor(16, 16)
	f, err := e.Extract(solidFrame(32, 32, color.RGBA{R: 255, A: 255}))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	want := [3]float64{0, 255, 255}
	for i := range want {
		if math.Abs(f.HSVMeans[i]-want[i]) > 1e-9 {
			t.Errorf("HSVMeans[%d] = %v, want %v", i, f.HSVMeans[i], want[i])
		}
	}
}

func TestSkinPercent(t *testing.T) {
	tests := []struct {
		name string
		c    color.RGBA
		want float64
	}{
		// hue 11.25, sat 102, val 200 sits inside the skin range
		{"skin tone", color.RGBA{R: 200, G: 150, B: 120, A: 255}, 100},
		{"pure blue", color.RGBA{B: 255, A: 255}, 0},
		{"black", color.RGBA{A: 255}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewExtractor(16, 16)
			f, err := e.Extract(solidFrame(32, 32, tt.c))
			if err != nil {
				t.Fatalf("Extract failed: %v", err)
			}
			if f.SkinPercent != tt.want {
				t.Errorf("SkinPercent = %v, want %v", f.SkinPercent, tt.want)
			}
		})
	}
}

func TestRGBToHSVScale(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b uint8
		h, s, v float64
	}{
		{"black", 0, 0, 0, 0, 0, 0},
		{"white", 255, 255, 255, 0, 0, 255},
		{"red", 255, 0, 0, 0, 255, 255},
		{"green", 0, 255, 0, 60, 255, 255},
		{"blue", 0, 0, 255, 120, 255, 255},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, s, v := rgbToHSV(tt.r, tt.g, tt.b)
			if math.Abs(h-tt.h) > 1e-9 || math.Abs(s-tt.s) > 1e-9 || math.Abs(v-tt.v) > 1e-9 {
				t.Errorf("rgbToHSV(%d, %d, %d) = (%v, %v, %v), want (%v, %v, %v)",
					tt.r, tt.g, tt.b, h, s, v, tt.h, tt.s, tt.v)
			}
		})
	}
}
