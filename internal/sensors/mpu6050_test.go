package sensors

import (
	"strings"
	"testing"

	"periph.io/x/conn/v3/i2c/i2ctest"

	"github.com/Shrn-25/ORIENTATION-MPU/internal/imu"
)

// setupOps is the wake-and-configure transaction sequence for gyro
// range 1 (±500°/s) and accel range 0 (±2g).
func setupOps() []i2ctest.IO {
	return []i2ctest.IO{
		{Addr: 0x68, W: []byte{regPwrMgmt1, 0x00}},
		{Addr: 0x68, W: []byte{regGyroConfig, 0x08}},
		{Addr: 0x68, W: []byte{regAccelConfig, 0x00}},
	}
}

func TestNewMPU6050OnBusConfiguresRanges(t *testing.T) {
	bus := &i2ctest.Playback{Ops: setupOps(), DontPanic: true}

	if _, err := newMPU6050OnBus(bus, 0x68, 1, 0); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Errorf("transactions left over: %v", err)
	}
}

func TestNewMPU6050OnBusWideRanges(t *testing.T) {
	// Range 3 on both axes lands in the FS_SEL bits, <<3.
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x69, W: []byte{regPwrMgmt1, 0x00}},
			{Addr: 0x69, W: []byte{regGyroConfig, 0x18}},
			{Addr: 0x69, W: []byte{regAccelConfig, 0x18}},
		},
		DontPanic: true,
	}

	if _, err := newMPU6050OnBus(bus, 0x69, 3, 3); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Errorf("transactions left over: %v", err)
	}
}

func TestProbe(t *testing.T) {
	bus := &i2ctest.Playback{
		Ops: append(setupOps(),
			i2ctest.IO{Addr: 0x68, W: []byte{regWhoAmI}, R: []byte{0x68}},
		),
		DontPanic: true,
	}

	m, err := newMPU6050OnBus(bus, 0x68, 1, 0)
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	if err := m.Probe(); err != nil {
		t.Errorf("Probe failed: %v", err)
	}
}

func TestProbeWrongIdentity(t *testing.T) {
	bus := &i2ctest.Playback{
		Ops: append(setupOps(),
			i2ctest.IO{Addr: 0x68, W: []byte{regWhoAmI}, R: []byte{0x71}},
		),
		DontPanic: true,
	}

	m, err := newMPU6050OnBus(bus, 0x68, 1, 0)
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	err = m.Probe()
	if err == nil {
		t.Fatal("expected error for foreign WHO_AM_I")
	}
	if !strings.Contains(err.Error(), "0x71") {
		t.Errorf("error %q does not report the read identity", err)
	}
}

func TestReadRawDecodesBurst(t *testing.T) {
	// Fourteen bytes starting at ACCEL_XOUT_H: accel X/Y/Z, the two
	// temperature bytes the driver skips, then gyro X/Y/Z, all
	// big-endian two's complement.
	burst := []byte{
		0x40, 0x00, // Ax = 16384
		0xFF, 0xFF, // Ay = -1
		0x02, 0x00, // Az = 512
		0xAA, 0xBB, // temperature, ignored
		0x00, 0x83, // Gx = 131
		0xFF, 0x7D, // Gy = -131
		0x07, 0xAD, // Gz = 1965
	}
	bus := &i2ctest.Playback{
		Ops: append(setupOps(),
			i2ctest.IO{Addr: 0x68, W: []byte{regAccelXoutH}, R: burst},
		),
		DontPanic: true,
	}

	m, err := newMPU6050OnBus(bus, 0x68, 1, 0)
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	got, err := m.ReadRaw()
	if err != nil {
		t.Fatalf("ReadRaw failed: %v", err)
	}

	want := imu.RawSample{Ax: 16384, Ay: -1, Az: 512, Gx: 131, Gy: -131, Gz: 1965}
	if got != want {
		t.Errorf("ReadRaw() = %+v, want %+v", got, want)
	}
	if err := bus.Close(); err != nil {
		t.Errorf("transactions left over: %v", err)
	}
}

func TestReadRawBusError(t *testing.T) {
	// An exhausted playback bus fails the transaction when DontPanic
	// is set, standing in for a flaky bus.
	bus := &i2ctest.Playback{Ops: setupOps(), DontPanic: true}

	m, err := newMPU6050OnBus(bus, 0x68, 1, 0)
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	if _, err := m.ReadRaw(); err == nil {
		t.Fatal("expected error from exhausted bus")
	}
}

func TestCloseWithoutBus(t *testing.T) {
	m := &MPU6050{}
	if err := m.Close(); err != nil {
		t.Errorf("Close on detached driver: %v", err)
	}
}
