package app

import (
	"bufio"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync/atomic"

	serial "github.com/jacobsa/go-serial/serial"

	"github.com/Shrn-25/ORIENTATION-MPU/internal/config"
	"github.com/Shrn-25/ORIENTATION-MPU/internal/orientation"
)

// parsePoseLine parses the serial framing "roll,pitch,yaw" with decimal
// fields. Extra trailing fields are tolerated and ignored.
func parsePoseLine(line string) (orientation.Pose, error) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) < 3 {
		return orientation.Pose{}, fmt.Errorf("pose line needs 3 fields, got %d: %q", len(fields), line)
	}

	var vals [3]float64
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(fields[i]), 64)
		if err != nil {
			return orientation.Pose{}, fmt.Errorf("pose field %d: %w", i, err)
		}
		vals[i] = v
	}

	return orientation.Pose{Roll: vals[0], Pitch: vals[1], Yaw: vals[2]}, nil
}

// RunSerialConsole reads the roll,pitch,yaw framing from the serial
// port and prints the freshest pose. When the producer outpaces the
// consumer, stale packets are dropped instead of queuing, so the
// printed pose always tracks the device's current movement.
func RunSerialConsole() error {
	cfg := config.Get()
	if cfg.SerialPort == "" {
		return fmt.Errorf("SERIAL_PORT must be set for the serial console")
	}

	port, err := serial.Open(serial.OpenOptions{
		PortName:        cfg.SerialPort,
		BaudRate:        uint(cfg.SerialBaud),
		DataBits:        8,
		StopBits:        1,
		ParityMode:      serial.PARITY_NONE,
		MinimumReadSize: 1,
	})
	if err != nil {
		return fmt.Errorf("serial open (%s): %w", cfg.SerialPort, err)
	}
	defer port.Close()
	log.Printf("serial console reading %s at %d baud", cfg.SerialPort, cfg.SerialBaud)

	// Latest-only handoff: capacity one, stale value displaced by the
	// reader when the printer falls behind.
	poses := make(chan orientation.Pose, 1)
	readErr := make(chan error, 1)
	var discarded atomic.Int64

	go func() {
		scanner := bufio.NewScanner(port)
		for scanner.Scan() {
			p, err := parsePoseLine(scanner.Text())
			if err != nil {
				log.Printf("serial console: %v", err)
				continue
			}

			select {
			case poses <- p:
			default:
				// Printer is behind: displace the stale pose.
				select {
				case <-poses:
					discarded.Add(1)
				default:
				}
				select {
				case poses <- p:
				default:
				}
			}
		}
		if err := scanner.Err(); err != nil {
			readErr <- err
			return
		}
		readErr <- fmt.Errorf("serial port closed")
	}()

	count := 0
	for {
		select {
		case p := <-poses:
			fmt.Printf("ROLL=%6.2f  PITCH=%6.2f  YAW=%6.2f\n", p.Roll, p.Pitch, p.Yaw)
			count++
			if count%50 == 0 {
				log.Printf("serial console: %d poses shown, %d stale packets dropped", count, discarded.Load())
			}
		case err := <-readErr:
			return err
		}
	}
}
