// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"log"
	"time"

	"github.com/Shrn-25/ORIENTATION-MPU/internal/orientation"
)

// RunMockConsole drives the real estimator from the mock raw source and
// prints the resulting poses. Useful for eyeballing filter behavior on
// a machine without the sensor.
func RunMockConsole() error {
	cfg := orientation.DefaultConfig()
	src := orientation.NewMockSource(cfg)
	est := orientation.NewEstimator(cfg, orientation.Bias{})

	log.Println("mock console: synthetic samples through the complementary filter")

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for t := range ticker.C {
		sample, err := src.ReadRaw()
		if err != nil {
			return err
		}
		pose := est.Tick(sample, t)

		fmt.Printf(
			"ROLL=%6.2f  PITCH=%6.2f  YAW=%6.2f\n",
			pose.Roll,
			pose.Pitch,
			pose.Yaw,
		)
	}
	return nil
}
