package app

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	serial "github.com/jacobsa/go-serial/serial"

	"github.com/Shrn-25/ORIENTATION-MPU/internal/config"
	"github.com/Shrn-25/ORIENTATION-MPU/internal/imu"
	"github.com/Shrn-25/ORIENTATION-MPU/internal/orientation"
	"github.com/Shrn-25/ORIENTATION-MPU/internal/sensors"
)

// FilterConfig builds the orientation filter constants from the loaded
// application config.
func FilterConfig(cfg *config.Config) orientation.Config {
	return orientation.Config{
		GyroScaleLSB:       cfg.GyroScale(),
		Alpha:              cfg.FilterAlpha,
		RollTrimDeg:        cfg.RollTrimDeg,
		PitchTrimDeg:       cfg.PitchTrimDeg,
		CalibrationSamples: cfg.CalibrationSamples,
		CalibrationDelay:   time.Duration(cfg.CalibrationDelayMS) * time.Millisecond,
	}
}

// RunAttitudeProducer runs the orientation pipeline: one-time gyro bias
// calibration, then a fixed-period loop that reads the sensor, advances
// the complementary filter and publishes the estimate.
func RunAttitudeProducer() error {
	log.Println("starting attitude producer")

	cfg := config.Get()
	fcfg := FilterConfig(cfg)

	// --- Choose raw sample source (mock vs real MPU6050) ---
	var src imu.RawReader
	var est *orientation.Estimator

	if cfg.UseMockIMU {
		log.Println("using mock IMU source, skipping gyro calibration")
		src = orientation.NewMockSource(fcfg)
		est = orientation.NewEstimator(fcfg, orientation.Bias{})
	} else {
		mpu, err := sensors.NewMPU6050()
		if err != nil {
			return err
		}
		defer mpu.Close()

		// A failed probe is reported but not fatal here; the operator
		// decides whether meaningless output is acceptable.
		if err := mpu.Probe(); err != nil {
			log.Printf("WARNING: IMU connectivity check failed: %v", err)
		} else {
			log.Println("IMU connectivity check passed")
		}

		log.Printf("calibrating gyro bias: %d samples, keep the device still...", fcfg.CalibrationSamples)
		est, err = orientation.CalibrateAndStart(mpu, fcfg)
		if err != nil {
			return fmt.Errorf("gyro calibration: %w", err)
		}
		b := est.Bias()
		log.Printf("gyro bias (°/s): X=%.4f Y=%.4f Z=%.4f", b.X, b.Y, b.Z)
		src = mpu
	}

	// --- Optional serial sink ---
	var sink io.WriteCloser
	if cfg.SerialPort != "" {
		port, err := serial.Open(serial.OpenOptions{
			PortName:        cfg.SerialPort,
			BaudRate:        uint(cfg.SerialBaud),
			DataBits:        8,
			StopBits:        1,
			ParityMode:      serial.PARITY_NONE,
			MinimumReadSize: 1,
		})
		if err != nil {
			return fmt.Errorf("serial sink open (%s): %w", cfg.SerialPort, err)
		}
		defer port.Close()
		log.Printf("serial sink opened on %s at %d baud", cfg.SerialPort, cfg.SerialBaud)
		sink = port
	}

	// --- Connect to MQTT ---
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDProducer)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT connect: %w", token.Error())
	}
	defer client.Disconnect(250)

	log.Println("connected to MQTT, starting publish loop")

	// main tick
	ticker := time.NewTicker(time.Duration(cfg.SampleIntervalMS) * time.Millisecond)
	defer ticker.Stop()

	tickCount := 0
	for t := range ticker.C {
		sample, err := src.ReadRaw()
		if err != nil {
			// No retry here: the loop period is the retry policy.
			log.Printf("IMU read error: %v", err)
			continue
		}

		pose := est.Tick(sample, t)

		// Publish pose
		if payload, err := json.Marshal(pose); err != nil {
			log.Printf("json marshal error (pose): %v", err)
		} else if token := client.Publish(cfg.TopicPose, 0, true, payload); token.Wait() && token.Error() != nil {
			log.Printf("MQTT publish error (pose): %v", token.Error())
		}

		// Publish raw sample
		if payload, err := json.Marshal(sample); err != nil {
			log.Printf("json marshal error (raw): %v", err)
		} else if token := client.Publish(cfg.TopicIMURaw, 0, true, payload); token.Wait() && token.Error() != nil {
			log.Printf("MQTT publish error (raw): %v", token.Error())
		}

		// Serial framing: roll,pitch,yaw with two fractional digits.
		if sink != nil {
			if _, err := fmt.Fprintf(sink, "%.2f,%.2f,%.2f\n", pose.Roll, pose.Pitch, pose.Yaw); err != nil {
				log.Printf("serial write error: %v", err)
			}
		}

		tickCount++
		if tickCount%100 == 0 {
			log.Printf("%s tick: pose R=%.2f P=%.2f Y=%.2f | raw ax=%d ay=%d az=%d gx=%d gy=%d gz=%d",
				t.Format(time.RFC3339),
				pose.Roll, pose.Pitch, pose.Yaw,
				sample.Ax, sample.Ay, sample.Az,
				sample.Gx, sample.Gy, sample.Gz,
			)
		}
	}
	return nil
}
