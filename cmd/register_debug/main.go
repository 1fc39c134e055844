// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/Shrn-25/ORIENTATION-MPU/internal/config"
	"github.com/Shrn-25/ORIENTATION-MPU/internal/sensors"
)

// Dumps every mapped MPU6050 register with its datasheet name, for
// checking what configuration the sensor actually ended up with.
func main() {
	configPath := flag.String("config", "orientation_config.txt", "path to configuration file")
	flag.Parse()

	log.Println("starting MPU6050 register debug tool")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	mpu, err := sensors.NewMPU6050()
	if err != nil {
		log.Fatalf("IMU init failed: %v", err)
	}
	defer mpu.Close()

	if err := mpu.Probe(); err != nil {
		log.Printf("Warning: connectivity check failed: %v", err)
	}

	failures := 0
	fmt.Printf("%-6s %-14s %-5s %-6s %s\n", "ADDR", "NAME", "RW", "VALUE", "DESCRIPTION")
	for _, reg := range sensors.MPU6050RegisterMap() {
		value, err := mpu.ReadRegister(reg.Address)
		if err != nil {
			fmt.Printf("0x%02X   %-14s %-5s %-6s read error: %v\n", reg.Address, reg.Name, reg.Access, "-", err)
			failures++
			continue
		}
		fmt.Printf("0x%02X   %-14s %-5s 0x%02X   %s\n", reg.Address, reg.Name, reg.Access, value, reg.Description)

		for _, bf := range reg.BitFields {
			fmt.Printf("       %-14s bits %-5s %s", bf.Name, bf.Bits, bf.Description)
			if bf.Values != "" {
				fmt.Printf(" (%s)", bf.Values)
			}
			fmt.Println()
		}
	}

	if failures > 0 {
		fmt.Fprintf(os.Stderr, "%d register reads failed\n", failures)
		os.Exit(1)
	}
}
