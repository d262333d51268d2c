// Package sensor implements the camera activity sensor: it measures how much
// of the frame changed since the last capture and streams the readings to the
// engine's ingest endpoint.
package sensor

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// MotionConfig holds the frame-differencing tunables.
type MotionConfig struct {
	PixelThreshold float32 // Gray delta (0-255) that counts a pixel as changed
	BlurKernel     int     // Gaussian blur kernel size, odd
}

// DefaultMotionConfig returns the recommended detector configuration.
func DefaultMotionConfig() MotionConfig {
	return MotionConfig{
		PixelThreshold: 25,
		BlurKernel:     21,
	}
}

func (c MotionConfig) normalize() MotionConfig {
	def := DefaultMotionConfig()
	if c.PixelThreshold <= 0 || c.PixelThreshold > 255 {
		c.PixelThreshold = def.PixelThreshold
	}
	if c.BlurKernel < 3 || c.BlurKernel%2 == 0 {
		c.BlurKernel = def.BlurKernel
	}
	return c
}

// MotionDetector reads a webcam and reports per-frame activity as the
// percentage of pixels that changed beyond the threshold.
type MotionDetector struct {
	mu     sync.Mutex
	cfg    MotionConfig
	webcam *gocv.VideoCapture
	prev   gocv.Mat
	primed bool
}

// NewMotionDetector opens the camera device.
func NewMotionDetector(cameraID int, cfg MotionConfig) (*MotionDetector, error) {
	webcam, err := gocv.OpenVideoCapture(cameraID)
	if err != nil {
		return nil, fmt.Errorf("opening camera %d: %w", cameraID, err)
	}
	return &MotionDetector{
		cfg:    cfg.normalize(),
		webcam: webcam,
		prev:   gocv.NewMat(),
	}, nil
}

// Read captures a frame and returns the activity percent against the previous
// frame. The first read primes the reference frame and reports zero.
func (d *MotionDetector) Read() (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	frame := gocv.NewMat()
	defer frame.Close()
	if ok := d.webcam.Read(&frame); !ok || frame.Empty() {
		return 0, fmt.Errorf("camera read failed")
	}

	gray := gocv.NewMat()
	gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)
	gocv.GaussianBlur(gray, &gray, imagePoint(d.cfg.BlurKernel), 0, 0, gocv.BorderDefault)

	if !d.primed {
		gray.CopyTo(&d.prev)
		gray.Close()
		d.primed = true
		return 0, nil
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(d.prev, gray, &diff)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(diff, &thresh, d.cfg.PixelThreshold, 255, gocv.ThresholdBinary)

	changed := gocv.CountNonZero(thresh)
	total := thresh.Rows() * thresh.Cols()

	gray.CopyTo(&d.prev)
	gray.Close()

	return activityPercent(changed, total), nil
}

// Close releases the camera and frame buffers.
func (d *MotionDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.prev.Close()
	return d.webcam.Close()
}

func imagePoint(k int) image.Point {
	return image.Pt(k, k)
}

// activityPercent maps a changed-pixel count to the 0-100 sample scale.
func activityPercent(changed, total int) float64 {
	if total <= 0 {
		return 0
	}
	pct := float64(changed) / float64(total) * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}
