package orientation

import (
	"errors"
	"math"
	"testing"

	"github.com/Shrn-25/ORIENTATION-MPU/internal/imu"
)

// scriptedReader replays a fixed sample forever, optionally failing at
// a chosen read.
type scriptedReader struct {
	sample imu.RawSample
	reads  int
	failAt int // fail on this read (1-based); 0 disables
	err    error
}

func (r *scriptedReader) ReadRaw() (imu.RawSample, error) {
	r.reads++
	if r.failAt > 0 && r.reads >= r.failAt {
		return imu.RawSample{}, r.err
	}
	return r.sample, nil
}

// The reference calibration scenario: 2000 samples of gx=130 raw at
// 65.5 LSB per °/s average to a bias of 130/65.5 ≈ 1.9847 °/s.
func TestCalibrateReferenceScenario(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CalibrationDelay = 0

	src := &scriptedReader{sample: imu.RawSample{Gx: 130}}
	bias, err := Calibrate(src, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := 130.0 / 65.5
	if math.Abs(bias.X-want) > 1e-9 {
		t.Errorf("bias.X = %v, want %v", bias.X, want)
	}
	if bias.Y != 0 || bias.Z != 0 {
		t.Errorf("bias Y/Z = %v/%v, want 0/0", bias.Y, bias.Z)
	}
	if src.reads != cfg.CalibrationSamples {
		t.Errorf("reads = %d, want %d", src.reads, cfg.CalibrationSamples)
	}
}

// Bias neutrality: a constant reading yields the same bias no matter
// how many samples are averaged.
func TestCalibrateSampleCountIndependence(t *testing.T) {
	sample := imu.RawSample{Gx: 130, Gy: -262, Gz: 655}
	want := Bias{X: 130.0 / 65.5, Y: -262.0 / 65.5, Z: 655.0 / 65.5}

	for _, n := range []int{1, 10, 500, 2000} {
		cfg := DefaultConfig()
		cfg.CalibrationDelay = 0
		cfg.CalibrationSamples = n

		bias, err := Calibrate(&scriptedReader{sample: sample}, cfg)
		if err != nil {
			t.Fatalf("n=%d: unexpected error: %v", n, err)
		}
		if math.Abs(bias.X-want.X) > 1e-9 || math.Abs(bias.Y-want.Y) > 1e-9 || math.Abs(bias.Z-want.Z) > 1e-9 {
			t.Errorf("n=%d: bias = %+v, want %+v", n, bias, want)
		}
	}
}

func TestCalibrateAveragesVaryingSamples(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CalibrationDelay = 0
	cfg.CalibrationSamples = 4

	// 0, 131, 262, 131 counts → mean 131 counts → 2 °/s
	readings := []int16{0, 131, 262, 131}
	i := 0
	src := readerFunc(func() (imu.RawSample, error) {
		s := imu.RawSample{Gz: readings[i]}
		i++
		return s, nil
	})

	bias, err := Calibrate(src, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(bias.Z-2) > 1e-9 {
		t.Errorf("bias.Z = %v, want 2", bias.Z)
	}
}

type readerFunc func() (imu.RawSample, error)

func (f readerFunc) ReadRaw() (imu.RawSample, error) { return f() }

// A read failure aborts calibration outright; no partial averaging.
func TestCalibrateReadFailure(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CalibrationDelay = 0
	cfg.CalibrationSamples = 100

	readErr := errors.New("bus timeout")
	src := &scriptedReader{sample: imu.RawSample{Gx: 130}, failAt: 50, err: readErr}

	_, err := Calibrate(src, cfg)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, readErr) {
		t.Errorf("error %v does not wrap the read error", err)
	}
}

func TestCalibrateRejectsNonPositiveSampleCount(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CalibrationSamples = 0

	if _, err := Calibrate(&scriptedReader{}, cfg); err == nil {
		t.Fatal("expected error for zero sample count")
	}
}

func TestCalibrateAndStart(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CalibrationDelay = 0
	cfg.CalibrationSamples = 10

	est, err := CalibrateAndStart(&scriptedReader{sample: imu.RawSample{Gy: 131}}, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(est.Bias().Y-2) > 1e-9 {
		t.Errorf("estimator bias.Y = %v, want 2", est.Bias().Y)
	}
	if est.Pose() != (Pose{}) {
		t.Errorf("initial pose = %+v, want zero", est.Pose())
	}
}
