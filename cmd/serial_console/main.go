// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/Shrn-25/ORIENTATION-MPU/internal/app"
	"github.com/Shrn-25/ORIENTATION-MPU/internal/config"
)

func main() {
	configPath := flag.String("config", "./orientation_config.txt", "path to configuration file")
	flag.Parse()

	log.Println("starting serial console (roll,pitch,yaw reader)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunSerialConsole(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
