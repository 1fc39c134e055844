// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// ./cmd/calibration/main.go
//
// Guided gyro bias calibration for the MPU6050.
//
// Captures a stationary sample set, averages it into the per-axis
// zero-rate bias (in °/s) and grades the capture by its standard
// deviation: a twitchy or bumped device shows up as a low confidence
// score rather than silently poisoning the bias.
//
// Output:
//
//	Writes a JSON file (default ./gyro_calibration.json) including the
//	capture date/time and the quality score.
//
// Run:
//
//	go run ./cmd/calibration
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/Shrn-25/ORIENTATION-MPU/internal/app"
	"github.com/Shrn-25/ORIENTATION-MPU/internal/config"
	"github.com/Shrn-25/ORIENTATION-MPU/internal/imu"
	"github.com/Shrn-25/ORIENTATION-MPU/internal/orientation"
	"github.com/Shrn-25/ORIENTATION-MPU/internal/sensors"
)

const (
	// Stillness quality heuristics, in °/s.
	stillStdGood = 0.05
	stillStdBad  = 0.5

	// Confidence floor (never hard zero unless we error out)
	confFloor = 0.05
)

// ---------- Data model (JSON output) ----------

type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type CalibrationResult struct {
	SchemaVersion int    `json:"schema_version"`
	CalibrationAt string `json:"calibration_at"` // RFC3339

	// Zero-rate gyro bias (°/s), subtractable from converted rates.
	GyroBias Vec3 `json:"gyro_bias"`

	Samples     int     `json:"samples"`
	DurationSec float64 `json:"duration_sec"`
	StdDev      Vec3    `json:"stddev"`
	Confidence  float64 `json:"confidence"`

	Notes []string `json:"notes,omitempty"`
}

// recordingReader tees every sample that passes through it, so the
// capture used for the bias is the same one graded for stillness.
type recordingReader struct {
	inner   imu.RawReader
	samples []imu.RawSample
}

func (r *recordingReader) ReadRaw() (imu.RawSample, error) {
	s, err := r.inner.ReadRaw()
	if err == nil {
		r.samples = append(r.samples, s)
	}
	return s, err
}

// ---------- Main ----------

func main() {
	in := bufio.NewReader(os.Stdin)

	configPath := flag.String("config", "orientation_config.txt", "Path to configuration file")
	outPath := flag.String("out", "gyro_calibration.json", "Path to write the calibration result")
	flag.Parse()

	fmt.Println("=== Guided Gyro Calibration ===")
	fmt.Printf("This workflow will prompt you in the console and store results in %s\n", *outPath)
	fmt.Println()

	if err := config.InitGlobal(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to load config from %s: %v\n", *configPath, err)
		os.Exit(1)
	}
	cfg := config.Get()

	var src imu.RawReader
	fcfg := app.FilterConfig(cfg)

	if cfg.UseMockIMU {
		fmt.Println("NOTE: USE_MOCK_IMU is set; calibrating the synthetic source.")
		src = orientation.NewMockSource(fcfg)
	} else {
		mpu, err := sensors.NewMPU6050()
		if err != nil {
			fatal(err)
		}
		defer mpu.Close()

		if err := mpu.Probe(); err != nil {
			fmt.Fprintf(os.Stderr, "WARNING: connectivity check failed: %v\n", err)
			fmt.Fprintln(os.Stderr, "Continuing anyway; the capture may be meaningless.")
		}
		src = mpu
	}

	captureDur := time.Duration(fcfg.CalibrationSamples) * fcfg.CalibrationDelay

	fmt.Println("Place the device on a stable surface and do not touch it.")
	fmt.Printf("The capture takes %d samples (about %s).\n", fcfg.CalibrationSamples, captureDur.Round(time.Second))
	waitEnter(in, "Press ENTER to start the stationary capture...")

	rec := &recordingReader{inner: src}
	start := time.Now()
	bias, err := orientation.Calibrate(rec, fcfg)
	if err != nil {
		fatal(err)
	}
	elapsed := time.Since(start)

	std := rateStdDev(rec.samples, fcfg.GyroScaleLSB)
	avgStd := (std.X + std.Y + std.Z) / 3.0
	conf := stillnessConfidence(avgStd)

	res := CalibrationResult{
		SchemaVersion: 1,
		CalibrationAt: time.Now().Format(time.RFC3339),
		GyroBias:      Vec3{X: bias.X, Y: bias.Y, Z: bias.Z},
		Samples:       len(rec.samples),
		DurationSec:   elapsed.Seconds(),
		StdDev:        std,
		Confidence:    conf,
	}
	if conf < 0.5 {
		res.Notes = append(res.Notes,
			"high sample scatter: the device was probably moving or vibrating; repeat the capture")
	}

	fmt.Printf("\nGyro bias (°/s): X=%.4f Y=%.4f Z=%.4f\n", bias.X, bias.Y, bias.Z)
	fmt.Printf("Std dev (°/s):   X=%.4f Y=%.4f Z=%.4f | confidence=%.2f\n", std.X, std.Y, std.Z, conf)

	if err := writeResult(res, *outPath); err != nil {
		fatal(err)
	}

	fmt.Println("\nCalibration complete.")
	fmt.Printf("Saved to %s\n", *outPath)
}

// ---------- Statistics ----------

// rateStdDev computes the per-axis standard deviation of the gyro
// readings, converted from counts to °/s.
func rateStdDev(samples []imu.RawSample, scale float64) Vec3 {
	n := float64(len(samples))
	if n == 0 {
		return Vec3{}
	}

	var mean Vec3
	for _, s := range samples {
		mean.X += float64(s.Gx) / scale
		mean.Y += float64(s.Gy) / scale
		mean.Z += float64(s.Gz) / scale
	}
	mean.X /= n
	mean.Y /= n
	mean.Z /= n

	var v Vec3
	for _, s := range samples {
		dx := float64(s.Gx)/scale - mean.X
		dy := float64(s.Gy)/scale - mean.Y
		dz := float64(s.Gz)/scale - mean.Z
		v.X += dx * dx
		v.Y += dy * dy
		v.Z += dz * dz
	}

	return Vec3{
		X: math.Sqrt(v.X / n),
		Y: math.Sqrt(v.Y / n),
		Z: math.Sqrt(v.Z / n),
	}
}

// stillnessConfidence maps average scatter onto (confFloor, 1]: full
// marks at or below stillStdGood, dropping steeply toward stillStdBad.
func stillnessConfidence(avgStd float64) float64 {
	if avgStd <= stillStdGood {
		return 1.0
	}
	conf := 1.0 - (avgStd-stillStdGood)/(stillStdBad-stillStdGood)
	if conf < confFloor {
		return confFloor
	}
	return conf
}

// ---------- Helpers ----------

func waitEnter(in *bufio.Reader, prompt string) {
	fmt.Print(prompt)
	_, _ = in.ReadString('\n')
}

func writeResult(res CalibrationResult, path string) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal calibration results: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write calibration file: %w", err)
	}
	return nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
	os.Exit(1)
}
