package capture

import (
	"errors"
	"testing"
)

func TestNewCamera(t *testing.T) {
	tests := []struct {
		name    string
		config  CameraConfig
		wantFPS int
	}{
		{
			name:    "defaults",
			config:  DefaultCameraConfig(),
			wantFPS: DefaultFPS,
		},
		{
			name:    "zero fps falls back",
			config:  CameraConfig{DeviceID: 1},
			wantFPS: DefaultFPS,
		},
		{
			name:    "custom fps",
			config:  CameraConfig{DeviceID: 2, FPS: 24},
			wantFPS: 24,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam := NewCamera(tt.config)

			if got := cam.FPS(); got != tt.wantFPS {
				t.Errorf("expected fps %d, got %d", tt.wantFPS, got)
			}
			if cam.IsOpen() {
				t.Error("camera should not be running initially")
			}
		})
	}
}

func TestCamera_SetFPS(t *testing.T) {
	cam := NewCamera(DefaultCameraConfig())

	tests := []struct {
		name    string
		fps     int
		wantFPS int
	}{
		{name: "set to 15", fps: 15, wantFPS: 15},
		{name: "set to 1", fps: 1, wantFPS: 1},
		{name: "zero keeps previous", fps: 0, wantFPS: 1},
		{name: "negative keeps previous", fps: -5, wantFPS: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam.SetFPS(tt.fps)

			if got := cam.FPS(); got != tt.wantFPS {
				t.Errorf("expected fps %d, got %d", tt.wantFPS, got)
			}
		})
	}
}

func TestCamera_ReadFrame_NotOpened(t *testing.T) {
	cam := NewCamera(DefaultCameraConfig())

	if _, err := cam.ReadFrame(); !errors.Is(err, ErrCameraNotOpen) {
		t.Errorf("expected ErrCameraNotOpen, got %v", err)
	}
}

func TestCamera_Close_NotOpened(t *testing.T) {
	cam := NewCamera(DefaultCameraConfig())

	if err := cam.Close(); err != nil {
		t.Errorf("expected nil closing an unopened camera, got %v", err)
	}
}

func TestCamera_OpenClose_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	cam := NewCamera(DefaultCameraConfig())
	if err := cam.Open(); err != nil {
		t.Skipf("skipping test - camera not available: %v", err)
	}

	mat, err := cam.ReadFrame()
	if err != nil {
		t.Errorf("ReadFrame() failed: %v", err)
	} else {
		if mat.Cols() != DefaultWidth || mat.Rows() != DefaultHeight {
			t.Errorf("expected %dx%d frame, got %dx%d", DefaultWidth, DefaultHeight, mat.Cols(), mat.Rows())
		}
		mat.Close()
	}

	if err := cam.Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}
	if cam.IsOpen() {
		t.Error("IsOpen() should return false after Close()")
	}
}
