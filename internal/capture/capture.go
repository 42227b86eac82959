// Package capture acquires frames from a camera device for live
// recognition.
package capture

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Camera wraps a video capture device. Frames are read one at a time on
// the caller's goroutine; the pipeline runs synchronously per frame, so
// calls never overlap.
type Camera struct {
	device *gocv.VideoCapture
	id     int
}

// Open opens the camera with the given device ID (0 is the default
// camera).
func Open(deviceID int) (*Camera, error) {
	device, err := gocv.OpenVideoCapture(deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to open camera %d: %w", deviceID, err)
	}
	return &Camera{device: device, id: deviceID}, nil
}

// Close releases the device.
func (c *Camera) Close() error {
	if c.device != nil {
		return c.device.Close()
	}
	return nil
}

// Read grabs the next frame into dst. Returns false when the device
// produced no frame (disconnect or end of stream).
func (c *Camera) Read(dst *gocv.Mat) bool {
	if !c.device.Read(dst) {
		return false
	}
	return !dst.Empty()
}

// Run reads frames and invokes handle for each until handle returns
// false or the device stops producing frames. The loop owns the frame
// Mat; handle must not retain it past the call.
func (c *Camera) Run(handle func(frame gocv.Mat) bool) error {
	frame := gocv.NewMat()
	defer frame.Close()

	for {
		if !c.Read(&frame) {
			return fmt.Errorf("camera %d stopped producing frames", c.id)
		}
		if !handle(frame) {
			return nil
		}
	}
}
