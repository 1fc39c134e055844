package imu

// RawSample holds one six-axis poll from the IMU, in sensor-native LSB
// counts. Samples are consumed immediately by the estimator and never
// retained.
type RawSample struct {
	Ax int16 `json:"ax"` // accel
	Ay int16 `json:"ay"`
	Az int16 `json:"az"`

	Gx int16 `json:"gx"` // gyro
	Gy int16 `json:"gy"`
	Gz int16 `json:"gz"`
}

// RawReader is anything that can produce raw six-axis samples: the
// MPU6050 driver, a mock source, maybe a replay source from file later.
type RawReader interface {
	ReadRaw() (RawSample, error)
}
