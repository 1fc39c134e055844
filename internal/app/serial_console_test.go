package app

import (
	"testing"
	"time"

	"github.com/Shrn-25/ORIENTATION-MPU/internal/config"
	"github.com/Shrn-25/ORIENTATION-MPU/internal/orientation"
)

func TestParsePoseLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    orientation.Pose
		wantErr bool
	}{
		{
			name: "Plain",
			line: "1.25,-3.50,179.00",
			want: orientation.Pose{Roll: 1.25, Pitch: -3.5, Yaw: 179},
		},
		{
			name: "TrailingNewline",
			line: "0.00,0.00,0.00\r\n",
			want: orientation.Pose{},
		},
		{
			name: "SpacesAroundFields",
			line: " 1.5 , 2.5 , 3.5 ",
			want: orientation.Pose{Roll: 1.5, Pitch: 2.5, Yaw: 3.5},
		},
		{
			name: "ExtraFieldsIgnored",
			line: "1,2,3,garbage",
			want: orientation.Pose{Roll: 1, Pitch: 2, Yaw: 3},
		},
		{
			name:    "TooFewFields",
			line:    "1.0,2.0",
			wantErr: true,
		},
		{
			name:    "NonNumericField",
			line:    "1.0,abc,3.0",
			wantErr: true,
		},
		{
			name:    "Empty",
			line:    "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePoseLine(tt.line)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parsePoseLine(%q) = %+v, want error", tt.line, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parsePoseLine(%q) failed: %v", tt.line, err)
			}
			if got != tt.want {
				t.Errorf("parsePoseLine(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

func TestFilterConfig(t *testing.T) {
	cfg := &config.Config{
		IMUGyroRange:       1,
		FilterAlpha:        0.96,
		RollTrimDeg:        -1.15,
		PitchTrimDeg:       0.25,
		CalibrationSamples: 2000,
		CalibrationDelayMS: 5,
	}

	fcfg := FilterConfig(cfg)

	if fcfg.GyroScaleLSB != 65.5 {
		t.Errorf("GyroScaleLSB = %v, want 65.5", fcfg.GyroScaleLSB)
	}
	if fcfg.Alpha != 0.96 {
		t.Errorf("Alpha = %v", fcfg.Alpha)
	}
	if fcfg.RollTrimDeg != -1.15 || fcfg.PitchTrimDeg != 0.25 {
		t.Errorf("trims = %v, %v", fcfg.RollTrimDeg, fcfg.PitchTrimDeg)
	}
	if fcfg.CalibrationSamples != 2000 {
		t.Errorf("CalibrationSamples = %d", fcfg.CalibrationSamples)
	}
	if fcfg.CalibrationDelay != 5*time.Millisecond {
		t.Errorf("CalibrationDelay = %v", fcfg.CalibrationDelay)
	}
}

func TestFilterConfigScaleOverride(t *testing.T) {
	cfg := &config.Config{IMUGyroRange: 0, GyroScaleLSB: 66.0, FilterAlpha: 0.9}

	if fcfg := FilterConfig(cfg); fcfg.GyroScaleLSB != 66.0 {
		t.Errorf("GyroScaleLSB = %v, want override 66.0", fcfg.GyroScaleLSB)
	}
}
