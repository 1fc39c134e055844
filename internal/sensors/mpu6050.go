// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"encoding/binary"
	"fmt"
	"log"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/Shrn-25/ORIENTATION-MPU/internal/config"
	"github.com/Shrn-25/ORIENTATION-MPU/internal/imu"
)

// MPU6050 register addresses used by the driver.
const (
	regSmplrtDiv   = 0x19
	regConfig      = 0x1A
	regGyroConfig  = 0x1B
	regAccelConfig = 0x1C
	regAccelXoutH  = 0x3B
	regPwrMgmt1    = 0x6B
	regWhoAmI      = 0x75

	// WHO_AM_I reads back the device address bits, 0x68 on an MPU6050
	// with AD0 low.
	whoAmIValue = 0x68
)

// MPU6050 drives the six-axis sensor over I²C. It implements
// imu.RawReader.
type MPU6050 struct {
	dev    i2c.Dev
	closer i2c.BusCloser
}

// NewMPU6050 opens the configured I²C bus, wakes the sensor and applies
// the configured full-scale ranges.
func NewMPU6050() (*MPU6050, error) {
	cfg := config.Get()

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("mpu6050: periph host init: %w", err)
	}

	bus, err := i2creg.Open(cfg.IMUI2CBus)
	if err != nil {
		return nil, fmt.Errorf("mpu6050: I2C open (%s): %w", cfg.IMUI2CBus, err)
	}

	m, err := newMPU6050OnBus(bus, cfg.IMUI2CAddr, cfg.IMUGyroRange, cfg.IMUAccelRange)
	if err != nil {
		bus.Close()
		return nil, err
	}
	m.closer = bus
	return m, nil
}

// newMPU6050OnBus wakes and configures the sensor on an already-open
// bus. Split out so tests can drive the driver with a playback bus.
func newMPU6050OnBus(bus i2c.Bus, addr uint16, gyroRange, accelRange byte) (*MPU6050, error) {
	m := &MPU6050{dev: i2c.Dev{Bus: bus, Addr: addr}}

	// Wake up: the device boots in sleep mode with the clock stopped.
	if err := m.WriteRegister(regPwrMgmt1, 0x00); err != nil {
		return nil, fmt.Errorf("mpu6050: wake: %w", err)
	}

	if err := m.WriteRegister(regGyroConfig, gyroRange<<3); err != nil {
		return nil, fmt.Errorf("mpu6050: set gyro range: %w", err)
	}
	log.Printf("mpu6050: gyroscope range set to %d (±%d°/s)", gyroRange, []int{250, 500, 1000, 2000}[gyroRange])

	if err := m.WriteRegister(regAccelConfig, accelRange<<3); err != nil {
		return nil, fmt.Errorf("mpu6050: set accel range: %w", err)
	}
	log.Printf("mpu6050: accelerometer range set to %d (±%dg)", accelRange, []int{2, 4, 8, 16}[accelRange])

	return m, nil
}

// Probe verifies connectivity by reading WHO_AM_I. A failed probe is
// reported to the caller; whether to continue is the host's call.
func (m *MPU6050) Probe() error {
	id, err := m.ReadRegister(regWhoAmI)
	if err != nil {
		return fmt.Errorf("mpu6050: WHO_AM_I read: %w", err)
	}
	if id != whoAmIValue {
		return fmt.Errorf("mpu6050: WHO_AM_I = 0x%02X, want 0x%02X", id, whoAmIValue)
	}
	return nil
}

// ReadRaw does a blocking burst read of all six axes. The fourteen-byte
// block starting at ACCEL_XOUT_H covers accel, temperature and gyro;
// the temperature words are skipped.
func (m *MPU6050) ReadRaw() (imu.RawSample, error) {
	var buf [14]byte
	if err := m.dev.Tx([]byte{regAccelXoutH}, buf[:]); err != nil {
		return imu.RawSample{}, fmt.Errorf("mpu6050: burst read: %w", err)
	}

	return imu.RawSample{
		Ax: int16(binary.BigEndian.Uint16(buf[0:2])),
		Ay: int16(binary.BigEndian.Uint16(buf[2:4])),
		Az: int16(binary.BigEndian.Uint16(buf[4:6])),
		Gx: int16(binary.BigEndian.Uint16(buf[8:10])),
		Gy: int16(binary.BigEndian.Uint16(buf[10:12])),
		Gz: int16(binary.BigEndian.Uint16(buf[12:14])),
	}, nil
}

// ReadRegister reads a single register. Used by the register debug tool.
func (m *MPU6050) ReadRegister(addr byte) (byte, error) {
	var buf [1]byte
	if err := m.dev.Tx([]byte{addr}, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// WriteRegister writes a single register.
func (m *MPU6050) WriteRegister(addr, value byte) error {
	return m.dev.Tx([]byte{addr, value}, nil)
}

// Close releases the I²C bus.
func (m *MPU6050) Close() error {
	if m.closer == nil {
		return nil
	}
	return m.closer.Close()
}
