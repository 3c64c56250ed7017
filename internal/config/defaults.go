package config

const (
	defaultConfigPath      = "~/.config/waveoff/config.toml"
	defaultAddr            = ":8080"
	defaultMaxMessageBytes = 1 << 20
	defaultFrameWidth      = 256
	defaultFrameHeight     = 144
	defaultMaxHands        = 1
	defaultMinDetection    = 0.7
	defaultMinTracking     = 0.5
	defaultDetectorIdle    = 30
	defaultBackend         = BackendNearest
	defaultStorePath       = "~/.waveoff/waveoff.db"
	defaultHooksDir        = "~/.waveoff/hooks"
	defaultHookQueueSize   = 64
	defaultHookTimeoutMS   = 5000
	defaultCameraFPS       = 10
	defaultLogLevel        = "info"
	defaultLogFormat       = "auto"
)

// Classifier backends.
const (
	BackendNearest = "nearest"
	BackendService = "service"
)

// Default returns a Config populated with the built-in defaults.
func Default() Config {
	return Config{
		Server: Server{
			Addr:            defaultAddr,
			MaxMessageBytes: defaultMaxMessageBytes,
		},
		Frame: Frame{
			Width:  defaultFrameWidth,
			Height: defaultFrameHeight,
			Mirror: true,
		},
		Detector: Detector{
			MaxHands:               defaultMaxHands,
			MinDetectionConfidence: defaultMinDetection,
			MinTrackingConfidence:  defaultMinTracking,
			IdleTimeoutSeconds:     defaultDetectorIdle,
		},
		Classifier: Classifier{
			Backend: defaultBackend,
		},
		Store: Store{
			Path: defaultStorePath,
		},
		Hooks: Hooks{
			Enabled:   true,
			Dir:       defaultHooksDir,
			QueueSize: defaultHookQueueSize,
			TimeoutMS: defaultHookTimeoutMS,
		},
		Camera: Camera{
			FPS: defaultCameraFPS,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
