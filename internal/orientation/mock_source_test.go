package orientation

import (
	"math"
	"testing"
	"time"
)

func TestMockSourceProducesPlausibleSamples(t *testing.T) {
	cfg := DefaultConfig()
	src := NewMockSource(cfg)

	for i := 0; i < 10; i++ {
		s, err := src.ReadRaw()
		if err != nil {
			t.Fatalf("ReadRaw failed: %v", err)
		}

		// Gravity magnitude stays near 1g at ±2g scale.
		const g = 16384.0
		mag := math.Sqrt(float64(s.Ax)*float64(s.Ax) + float64(s.Ay)*float64(s.Ay) + float64(s.Az)*float64(s.Az))
		if math.Abs(mag-g) > g*0.02 {
			t.Errorf("sample %d: gravity magnitude %v counts, want ≈%v", i, mag, g)
		}

		// Rates stay inside the simulated envelope: ±20°/s roll,
		// ±10.5°/s pitch, 30°/s yaw.
		if r := float64(s.Gx) / cfg.GyroScaleLSB; math.Abs(r) > 20.5 {
			t.Errorf("sample %d: gx = %v°/s out of envelope", i, r)
		}
		if r := float64(s.Gy) / cfg.GyroScaleLSB; math.Abs(r) > 11 {
			t.Errorf("sample %d: gy = %v°/s out of envelope", i, r)
		}
		if r := float64(s.Gz) / cfg.GyroScaleLSB; math.Abs(r-30) > 0.5 {
			t.Errorf("sample %d: gz = %v°/s, want ≈30", i, r)
		}
	}
}

func TestMockSourceDrivesEstimator(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RollTrimDeg = 0
	cfg.PitchTrimDeg = 0

	src := NewMockSource(cfg)
	est := NewEstimator(cfg, Bias{})

	start := time.Now()
	for i := 0; i < 5; i++ {
		s, err := src.ReadRaw()
		if err != nil {
			t.Fatalf("ReadRaw failed: %v", err)
		}
		est.Tick(s, start.Add(time.Duration(i)*10*time.Millisecond))
	}

	pose := est.Pose()
	if math.Abs(pose.Roll) > 45 || math.Abs(pose.Pitch) > 45 {
		t.Errorf("pose ran away: %+v", pose)
	}
}
