// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"fmt"
	"time"

	"github.com/Shrn-25/ORIENTATION-MPU/internal/imu"
)

// Calibrate estimates the zero-rate gyro bias by averaging stationary
// samples. The device must rest untouched for the whole capture; that
// is an operator responsibility the code cannot verify.
//
// Each gyro reading is converted from counts to °/s before summing, so
// the returned bias is directly subtractable from converted rates. At
// rest the true angular rate is zero, which makes the per-axis mean the
// sensor offset itself.
//
// A read failure aborts the whole calibration; there is no averaging of
// partial data.
func Calibrate(src imu.RawReader, cfg Config) (Bias, error) {
	samples := cfg.CalibrationSamples
	if samples <= 0 {
		return Bias{}, fmt.Errorf("calibrate: sample count must be positive, got %d", samples)
	}

	var sumX, sumY, sumZ float64
	for i := 0; i < samples; i++ {
		s, err := src.ReadRaw()
		if err != nil {
			return Bias{}, fmt.Errorf("calibrate: read %d/%d: %w", i+1, samples, err)
		}
		sumX += float64(s.Gx) / cfg.GyroScaleLSB
		sumY += float64(s.Gy) / cfg.GyroScaleLSB
		sumZ += float64(s.Gz) / cfg.GyroScaleLSB

		// Pace the reads so the sensor bus does not saturate.
		if cfg.CalibrationDelay > 0 && i < samples-1 {
			time.Sleep(cfg.CalibrationDelay)
		}
	}

	n := float64(samples)
	return Bias{X: sumX / n, Y: sumY / n, Z: sumZ / n}, nil
}

// CalibrateAndStart runs gyro calibration and returns an estimator
// seeded with the result. This is the normal startup path of the
// producer: the returned estimator is the only handle through which
// updates can happen, so estimation cannot begin before calibration
// has completed.
func CalibrateAndStart(src imu.RawReader, cfg Config) (*Estimator, error) {
	bias, err := Calibrate(src, cfg)
	if err != nil {
		return nil, err
	}
	return NewEstimator(cfg, bias), nil
}
