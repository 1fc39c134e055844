package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker           string
	MQTTClientIDProducer string
	MQTTClientIDConsole  string
	MQTTClientIDWeb      string

	// Topics
	TopicPose   string
	TopicIMURaw string

	// IMU Hardware
	IMUI2CBus  string
	IMUI2CAddr uint16
	UseMockIMU bool

	// IMU Sensor Ranges
	// Accelerometer: 0=±2g, 1=±4g, 2=±8g, 3=±16g
	IMUAccelRange byte
	// Gyroscope: 0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s
	IMUGyroRange byte

	// Orientation filter
	// GyroScaleLSB overrides the scale factor derived from IMUGyroRange
	// when non-zero (LSB per °/s).
	GyroScaleLSB float64
	FilterAlpha  float64
	RollTrimDeg  float64
	PitchTrimDeg float64

	// Gyro bias calibration
	CalibrationSamples int
	CalibrationDelayMS int

	// Timing
	SampleIntervalMS int // control loop period, milliseconds

	// Serial output sink (optional; disabled when port is empty)
	SerialPort string
	SerialBaud int

	// Web Server
	WebServerPort int
}

// gyroScaleByRange maps the MPU6050 full-scale range selector to the
// datasheet LSB-per-°/s scale factor.
var gyroScaleByRange = [4]float64{131.0, 65.5, 32.8, 16.4}

// GyroScale returns the effective gyro scale factor in LSB per °/s:
// the explicit override when set, otherwise the value derived from the
// configured full-scale range.
func (c *Config) GyroScale() float64 {
	if c.GyroScaleLSB > 0 {
		return c.GyroScaleLSB
	}
	return gyroScaleByRange[c.IMUGyroRange]
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: unexported so other packages cannot access it directly.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: RWMutex protects concurrent access.
//
// External code must use InitGlobal() to set and Get() to read.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// defaults returns a Config pre-filled with the reference firmware
// constants, so a minimal config file only needs the broker and bus
// settings.
func defaults() *Config {
	return &Config{
		MQTTClientIDProducer: "orientation-producer",
		MQTTClientIDConsole:  "orientation-console",
		MQTTClientIDWeb:      "orientation-web",
		TopicPose:            "orientation/pose",
		TopicIMURaw:          "orientation/imu/raw",
		IMUI2CAddr:           0x68,
		IMUGyroRange:         1, // ±500 °/s
		IMUAccelRange:        0, // ±2g
		FilterAlpha:          0.96,
		RollTrimDeg:          -1.15,
		PitchTrimDeg:         0.25,
		CalibrationSamples:   2000,
		CalibrationDelayMS:   5,
		SampleIntervalMS:     10,
		SerialBaud:           115200,
		WebServerPort:        8080,
	}
}

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := defaults()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Validate required fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value

	// Topics
	case "TOPIC_POSE":
		c.TopicPose = value
	case "TOPIC_IMU_RAW":
		c.TopicIMURaw = value

	// IMU Hardware
	case "IMU_I2C_BUS":
		c.IMUI2CBus = value
	case "IMU_I2C_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid IMU_I2C_ADDR %q: %w", value, err)
		}
		c.IMUI2CAddr = uint16(addr)
	case "USE_MOCK_IMU":
		mock, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid USE_MOCK_IMU %q: %w", value, err)
		}
		c.UseMockIMU = mock

	// IMU Sensor Ranges
	case "IMU_ACCEL_RANGE":
		rangeVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid IMU_ACCEL_RANGE %q: %w", value, err)
		}
		if rangeVal < 0 || rangeVal > 3 {
			return fmt.Errorf("IMU_ACCEL_RANGE must be 0-3 (0=±2g, 1=±4g, 2=±8g, 3=±16g), got %d", rangeVal)
		}
		c.IMUAccelRange = byte(rangeVal)
	case "IMU_GYRO_RANGE":
		rangeVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid IMU_GYRO_RANGE %q: %w", value, err)
		}
		if rangeVal < 0 || rangeVal > 3 {
			return fmt.Errorf("IMU_GYRO_RANGE must be 0-3 (0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s), got %d", rangeVal)
		}
		c.IMUGyroRange = byte(rangeVal)

	// Orientation filter
	case "GYRO_SCALE_LSB":
		scale, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid GYRO_SCALE_LSB %q: %w", value, err)
		}
		if scale <= 0 {
			return fmt.Errorf("GYRO_SCALE_LSB must be positive, got %g", scale)
		}
		c.GyroScaleLSB = scale
	case "FILTER_ALPHA":
		alpha, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid FILTER_ALPHA %q: %w", value, err)
		}
		if alpha <= 0 || alpha >= 1 {
			return fmt.Errorf("FILTER_ALPHA must be in (0, 1), got %g", alpha)
		}
		c.FilterAlpha = alpha
	case "ROLL_TRIM_DEG":
		trim, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid ROLL_TRIM_DEG %q: %w", value, err)
		}
		c.RollTrimDeg = trim
	case "PITCH_TRIM_DEG":
		trim, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid PITCH_TRIM_DEG %q: %w", value, err)
		}
		c.PitchTrimDeg = trim

	// Gyro bias calibration
	case "CALIBRATION_SAMPLES":
		samples, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid CALIBRATION_SAMPLES %q: %w", value, err)
		}
		if samples <= 0 {
			return fmt.Errorf("CALIBRATION_SAMPLES must be positive, got %d", samples)
		}
		c.CalibrationSamples = samples
	case "CALIBRATION_DELAY_MS":
		delay, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid CALIBRATION_DELAY_MS %q: %w", value, err)
		}
		if delay < 0 {
			return fmt.Errorf("CALIBRATION_DELAY_MS must not be negative, got %d", delay)
		}
		c.CalibrationDelayMS = delay

	// Timing
	case "SAMPLE_INTERVAL_MS":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SAMPLE_INTERVAL_MS %q: %w", value, err)
		}
		if interval <= 0 {
			return fmt.Errorf("SAMPLE_INTERVAL_MS must be positive, got %d", interval)
		}
		c.SampleIntervalMS = interval

	// Serial
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD":
		baud, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SERIAL_BAUD %q: %w", value, err)
		}
		if baud <= 0 {
			return fmt.Errorf("SERIAL_BAUD must be positive, got %d", baud)
		}
		c.SerialBaud = baud

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if !c.UseMockIMU && c.IMUI2CBus == "" {
		return fmt.Errorf("IMU_I2C_BUS is required unless USE_MOCK_IMU=true")
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
