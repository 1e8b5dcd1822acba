package config

const (
	defaultInputDir      = "/input"
	defaultOutputDir     = "/output"
	defaultLogDir        = "~/.local/share/vidmill/logs"
	defaultAPIBind       = "127.0.0.1:8181"
	defaultDeviceDir     = "/dev/dri"
	defaultDevice        = "renderD128"
	defaultPreset        = "medium"
	defaultQuality       = 23
	defaultAudioBitrate  = "192k"
	defaultScanInterval  = 60
	defaultCompletedHold = 1
	defaultErrorHold     = 2
	defaultMaxEntries    = 500
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"

	// StatusFileName is the document name placed inside the output directory
	// when paths.status_file is not set explicitly.
	StatusFileName = ".conversion_status.json"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InputDir:  defaultInputDir,
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
			APIBind:   defaultAPIBind,
		},
		Encoder: Encoder{
			HardwareEnabled: true,
			DeviceDir:       defaultDeviceDir,
			Device:          defaultDevice,
			Preset:          defaultPreset,
			Quality:         defaultQuality,
			AudioBitrate:    defaultAudioBitrate,
		},
		Workflow: Workflow{
			ScanInterval:  defaultScanInterval,
			CompletedHold: defaultCompletedHold,
			ErrorHold:     defaultErrorHold,
		},
		History: History{
			Enabled:    true,
			MaxEntries: defaultMaxEntries,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
