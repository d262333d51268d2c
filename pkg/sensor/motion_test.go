package sensor

import "testing"

func TestActivityPercent(t *testing.T) {
	tests := []struct {
		name    string
		changed int
		total   int
		want    float64
	}{
		{"still frame", 0, 10000, 0},
		{"half changed", 5000, 10000, 50},
		{"all changed", 10000, 10000, 100},
		{"overflow clamped", 20000, 10000, 100},
		{"degenerate frame", 100, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := activityPercent(tt.changed, tt.total); got != tt.want {
				t.Errorf("activityPercent(%d, %d) = %.2f, want %.2f", tt.changed, tt.total, got, tt.want)
			}
		})
	}
}

func TestMotionConfigClamping(t *testing.T) {
	cfg := MotionConfig{PixelThreshold: -4, BlurKernel: 8}.normalize()
	def := DefaultMotionConfig()
	if cfg.PixelThreshold != def.PixelThreshold {
		t.Errorf("PixelThreshold = %.1f, want default", cfg.PixelThreshold)
	}
	if cfg.BlurKernel != def.BlurKernel {
		t.Errorf("BlurKernel = %d, want default (odd, >= 3)", cfg.BlurKernel)
	}
}
