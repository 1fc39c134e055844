package orientation

import (
	"math"
	"time"

	"github.com/Shrn-25/ORIENTATION-MPU/internal/imu"
)

// Pose is the canonical representation of orientation for the app.
// Angles are in degrees. Roll and pitch are kept physically bounded by
// the accelerometer reference; yaw is wrapped into (-180, 180].
type Pose struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// Bias is the stationary zero-rate offset of the gyroscope, per axis,
// in °/s. It is produced once by Calibrate and immutable afterwards.
type Bias struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Config collects the filter constants. Defaults match an MPU6050 at
// ±500 °/s full scale.
type Config struct {
	// GyroScaleLSB is the datasheet scale factor in LSB per °/s for the
	// configured gyro full-scale range (65.5 at ±500 °/s).
	GyroScaleLSB float64

	// Alpha is the complementary filter coefficient in (0, 1). High
	// values favor gyro integration for instantaneous response while
	// continuously bleeding in the accelerometer's absolute reference.
	Alpha float64

	// RollTrimDeg and PitchTrimDeg correct for mounting misalignment of
	// the sensor board.
	RollTrimDeg  float64
	PitchTrimDeg float64

	// Calibration parameters: how many stationary samples to average
	// and the delay between reads (keeps the sensor bus unsaturated).
	CalibrationSamples int
	CalibrationDelay   time.Duration
}

// DefaultConfig returns the filter constants of the reference firmware.
func DefaultConfig() Config {
	return Config{
		GyroScaleLSB:       65.5,
		Alpha:              0.96,
		RollTrimDeg:        -1.15,
		PitchTrimDeg:       0.25,
		CalibrationSamples: 2000,
		CalibrationDelay:   5 * time.Millisecond,
	}
}

// AccelTilt computes roll and pitch from raw accelerometer counts using
// simple tilt formulas:
//
//	roll  = atan2(ay, sqrt(ax² + az²))
//	pitch = atan2(-ax, sqrt(ay² + az²))
//
// Raw counts are fine here: atan2 of two terms under the same uniform
// scale factor is scale-invariant. The configured trim offsets are
// added to the result.
func AccelTilt(ax, ay, az float64, cfg Config) (rollDeg, pitchDeg float64) {
	rollDeg = math.Atan2(ay, math.Sqrt(ax*ax+az*az))*180.0/math.Pi + cfg.RollTrimDeg
	pitchDeg = math.Atan2(-ax, math.Sqrt(ay*ay+az*az))*180.0/math.Pi + cfg.PitchTrimDeg
	return rollDeg, pitchDeg
}

// Update advances the orientation estimate by one tick. It is a pure
// function of its inputs and the previous pose, which keeps it testable
// without a live sensor.
//
// Gyro counts are converted to °/s and bias-corrected, then integrated
// over the actually elapsed time. Roll and pitch are fused with the
// accelerometer tilt through the complementary filter; yaw has no
// absolute reference and integrates gyro rate only.
//
// elapsedSeconds == 0 is legal: the gyro term contributes nothing for
// that tick and the accelerometer term still applies.
func Update(s imu.RawSample, elapsedSeconds float64, bias Bias, prev Pose, cfg Config) Pose {
	gx := float64(s.Gx)/cfg.GyroScaleLSB - bias.X
	gy := float64(s.Gy)/cfg.GyroScaleLSB - bias.Y
	gz := float64(s.Gz)/cfg.GyroScaleLSB - bias.Z

	accRoll, accPitch := AccelTilt(float64(s.Ax), float64(s.Ay), float64(s.Az), cfg)

	a := cfg.Alpha
	return Pose{
		Roll:  a*(prev.Roll+gx*elapsedSeconds) + (1-a)*accRoll,
		Pitch: a*(prev.Pitch+gy*elapsedSeconds) + (1-a)*accPitch,
		Yaw:   wrapYaw(prev.Yaw + gz*elapsedSeconds),
	}
}

// wrapYaw maps an angle into (-180, 180]. A single correction step is
// enough: the per-tick yaw increment stays below 360° at realistic
// rates and loop periods.
func wrapYaw(deg float64) float64 {
	if deg > 180 {
		return deg - 360
	}
	if deg <= -180 {
		return deg + 360
	}
	return deg
}

// Estimator carries the per-tick state of the orientation pipeline: the
// immutable gyro bias, the previous pose and the previous tick time.
// It can only be constructed with a completed calibration result, so an
// update can never run against an unknown bias.
type Estimator struct {
	cfg  Config
	bias Bias
	pose Pose
	last time.Time
}

// NewEstimator returns an estimator seeded with the given bias and a
// zero initial pose.
func NewEstimator(cfg Config, bias Bias) *Estimator {
	return &Estimator{cfg: cfg, bias: bias}
}

// NewEstimatorAt seeds the estimator with a caller-supplied initial
// pose instead of zero.
func NewEstimatorAt(cfg Config, bias Bias, initial Pose) *Estimator {
	return &Estimator{cfg: cfg, bias: bias, pose: initial}
}

// Bias returns the gyro bias the estimator was calibrated with.
func (e *Estimator) Bias() Bias { return e.bias }

// Pose returns the current estimate.
func (e *Estimator) Pose() Pose { return e.pose }

// Tick folds one raw sample into the estimate. The integration step is
// the real elapsed time since the previous tick, not the nominal loop
// period, so jitter in the control loop does not skew the angles. The
// first tick after calibration integrates over zero elapsed time.
func (e *Estimator) Tick(s imu.RawSample, now time.Time) Pose {
	var elapsed float64
	if !e.last.IsZero() {
		elapsed = now.Sub(e.last).Seconds()
	}
	e.last = now

	e.pose = Update(s, elapsed, e.bias, e.pose, e.cfg)
	return e.pose
}
