// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
	"time"

	"github.com/Shrn-25/ORIENTATION-MPU/internal/imu"
)

type mockSource struct {
	start time.Time
	scale float64
}

// NewMockSource creates a mock raw source that simulates a sensor being
// slowly tilted back and forth. It feeds the real calibration and
// fusion code paths, so the whole pipeline runs without hardware.
func NewMockSource(cfg Config) imu.RawReader {
	return &mockSource{start: time.Now(), scale: cfg.GyroScaleLSB}
}

func (m *mockSource) ReadRaw() (imu.RawSample, error) {
	elapsed := time.Since(m.start).Seconds()

	// Gravity vector of a device rocking ±20° in roll and ±15° in
	// pitch, expressed in accel counts at ±2g (16384 LSB/g).
	roll := 20 * math.Pi / 180 * math.Sin(elapsed)
	pitch := 15 * math.Pi / 180 * math.Cos(elapsed*0.7)

	const g = 16384.0
	ax := -g * math.Sin(pitch)
	ay := g * math.Sin(roll) * math.Cos(pitch)
	az := g * math.Cos(roll) * math.Cos(pitch)

	// Matching angular rates in counts, plus a steady yaw turn so the
	// drift-only axis visibly integrates.
	gx := 20 * math.Cos(elapsed) * m.scale
	gy := -15 * 0.7 * math.Sin(elapsed*0.7) * m.scale
	gz := 30 * m.scale

	return imu.RawSample{
		Ax: int16(ax),
		Ay: int16(ay),
		Az: int16(az),
		Gx: int16(gx),
		Gy: int16(gy),
		Gz: int16(gz),
	}, nil
}
