// Package vision extracts per-frame numeric features from decoded video
// frames: a model-ready normalized frame, inter-frame motion, an HSV colour
// profile, and a skin-tone heuristic.
package vision

import (
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"
)

// Feature extraction thresholds. The HSV ranges follow the OpenCV
// convention: hue 0-179 (half degrees), saturation and value 0-255.
const (
	// MotionDiffThreshold is the grayscale intensity delta above which a
	// pixel counts as moving.
	MotionDiffThreshold = 25

	// Empirical skin-tone range.
	SkinHueMax = 20
	SkinSatMin = 20
	SkinValMin = 70
)

// FeatureExtractionError reports malformed extractor input.
type FeatureExtractionError struct {
	Reason string
}

func (e *FeatureExtractionError) Error() string {
	return fmt.Sprintf("feature extraction failed: %s", e.Reason)
}

// Features is the per-frame feature bundle. It is consumed within one
// classification cycle and never persisted.
type Features struct {
	// MotionPercent is the fraction of pixels that moved since the previous
	// frame, scaled to 0-100. Nil (not zero) when no previous frame exists.
	MotionPercent *float64

	// HSVMeans holds the per-channel means of the frame in HSV space:
	// hue, saturation, value.
	HSVMeans [3]float64

	// SkinPercent is the fraction of pixels inside the skin-tone range,
	// scaled to 0-100.
	SkinPercent float64

	// NormalizedFrame is the frame resized to the target resolution with
	// RGB intensities scaled to [0,1], in row-major R,G,B order.
	NormalizedFrame []float32

	// Width and Height are the target resolution of NormalizedFrame.
	Width, Height int
}

// Extractor converts raw frames into Features. It is stateful: each call
// stores the frame's grayscale image for the next call's motion estimate, so
// an Extractor must be confined to a single logical caller. Give each capture
// source its own instance.
type Extractor struct {
	targetWidth  int
	targetHeight int

	// grayscale of the previously processed frame; nil before the first call
	prevGray     []uint8
	prevW, prevH int
}

// NewExtractor creates a frame feature extractor targeting the given
// normalized-frame resolution.
func NewExtractor(targetWidth, targetHeight int) *Extractor {
	return &Extractor{
		targetWidth:  targetWidth,
		targetHeight: targetHeight,
	}
}

// Extract computes the feature bundle for one frame and records the frame's
// grayscale image as the next call's motion reference. Well-formed input
// never fails; a nil or zero-dimension frame returns a FeatureExtractionError
// and leaves the previous-frame state untouched.
func (e *Extractor) Extract(frame image.Image) (*Features, error) {
	if frame == nil {
		return nil, &FeatureExtractionError{Reason: "nil frame"}
	}
	bounds := frame.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, &FeatureExtractionError{Reason: fmt.Sprintf("zero-dimension frame %dx%d", w, h)}
	}

	rgba := toRGBA(frame)

	f := &Features{
		Width:  e.targetWidth,
		Height: e.targetHeight,
	}

	gray := grayscale(rgba)
	f.NormalizedFrame = e.normalize(rgba)
	e.colourProfile(rgba, f)

	if e.prevGray != nil {
		prev := e.prevGray
		if e.prevW != w || e.prevH != h {
			prev = resizeGray(prev, e.prevW, e.prevH, w, h)
		}
		motion := motionPercent(prev, gray)
		f.MotionPercent = &motion
	}

	e.prevGray = gray
	e.prevW, e.prevH = w, h

	return f, nil
}

// toRGBA redraws the frame into an RGBA buffer anchored at the origin.
func toRGBA(frame image.Image) *image.RGBA {
	if rgba, ok := frame.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	bounds := frame.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	xdraw.Draw(rgba, rgba.Bounds(), frame, bounds.Min, xdraw.Src)
	return rgba
}

// normalize resizes to the target resolution and scales intensities to [0,1].
func (e *Extractor) normalize(rgba *image.RGBA) []float32 {
	resized := image.NewRGBA(image.Rect(0, 0, e.targetWidth, e.targetHeight))
	xdraw.ApproxBiLinear.Scale(resized, resized.Bounds(), rgba, rgba.Bounds(), xdraw.Src, nil)

	out := make([]float32, e.targetWidth*e.targetHeight*3)
	i := 0
	for y := 0; y < e.targetHeight; y++ {
		row := resized.Pix[y*resized.Stride:]
		for x := 0; x < e.targetWidth; x++ {
			p := x * 4
			out[i] = float32(row[p]) / 255.0
			out[i+1] = float32(row[p+1]) / 255.0
			out[i+2] = float32(row[p+2]) / 255.0
			i += 3
		}
	}
	return out
}

// colourProfile fills the HSV channel means and the skin-tone percentage.
func (e *Extractor) colourProfile(rgba *image.RGBA, f *Features) {
	bounds := rgba.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	var sumH, sumS, sumV float64
	skin := 0
	for y := 0; y < h; y++ {
		row := rgba.Pix[y*rgba.Stride:]
		for x := 0; x < w; x++ {
			p := x * 4
			hh, ss, vv := rgbToHSV(row[p], row[p+1], row[p+2])
			sumH += hh
			sumS += ss
			sumV += vv
			if hh <= SkinHueMax && ss >= SkinSatMin && vv >= SkinValMin {
				skin++
			}
		}
	}

	n := float64(w * h)
	f.HSVMeans = [3]float64{sumH / n, sumS / n, sumV / n}
	f.SkinPercent = float64(skin) / n * 100.0
}

// rgbToHSV converts an 8-bit RGB pixel to OpenCV-scaled HSV:
// hue 0-179, saturation 0-255, value 0-255.
func rgbToHSV(r, g, b uint8) (float64, float64, float64) {
	rf := float64(r) / 255.0
	gf := float64(g) / 255.0
	bf := float64(b) / 255.0

	max := rf
	if gf > max {
		max = gf
	}
	if bf > max {
		max = bf
	}
	min := rf
	if gf < min {
		min = gf
	}
	if bf < min {
		min = bf
	}
	delta := max - min

	v := max * 255.0

	var s float64
	if max > 0 {
		s = delta / max * 255.0
	}

	var hue float64
	if delta > 0 {
		switch max {
		case rf:
			hue = 60 * (gf - bf) / delta
		case gf:
			hue = 120 + 60*(bf-rf)/delta
		default:
			hue = 240 + 60*(rf-gf)/delta
		}
		if hue < 0 {
			hue += 360
		}
	}
	return hue / 2.0, s, v
}

// grayscale converts to 8-bit luma using the Rec. 601 weights.
func grayscale(rgba *image.RGBA) []uint8 {
	bounds := rgba.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := make([]uint8, w*h)
	i := 0
	for y := 0; y < h; y++ {
		row := rgba.Pix[y*rgba.Stride:]
		for x := 0; x < w; x++ {
			p := x * 4
			out[i] = uint8((299*int(row[p]) + 587*int(row[p+1]) + 114*int(row[p+2])) / 1000)
			i++
		}
	}
	return out
}

// resizeGray rescales a grayscale buffer with nearest-neighbour sampling.
func resizeGray(src []uint8, srcW, srcH, dstW, dstH int) []uint8 {
	out := make([]uint8, dstW*dstH)
	for y := 0; y < dstH; y++ {
		sy := y * srcH / dstH
		for x := 0; x < dstW; x++ {
			sx := x * srcW / dstW
			out[y*dstW+x] = src[sy*srcW+sx]
		}
	}
	return out
}

// motionPercent thresholds the absolute inter-frame difference and returns
// the moving-pixel fraction scaled to 0-100. Both buffers must be the same
// length.
func motionPercent(prev, cur []uint8) float64 {
	if len(cur) == 0 {
		return 0
	}
	moved := 0
	for i := range cur {
		d := int(cur[i]) - int(prev[i])
		if d < 0 {
			d = -d
		}
		if d > MotionDiffThreshold {
			moved++
		}
	}
	return float64(moved) / float64(len(cur)) * 100.0
}
