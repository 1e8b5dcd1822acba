package transcode

import (
	"strconv"

	"vidmill/internal/config"
	"vidmill/internal/hwaccel"
)

// Profile captures the encoder parameters for one ffmpeg invocation.
type Profile struct {
	Method       hwaccel.Method
	Device       string
	Preset       string
	Quality      int
	AudioBitrate string
}

// BuildProfile selects the argument set matching the capability probe.
// A hardware result without a device path degrades to software.
func BuildProfile(enc config.Encoder, probe hwaccel.Result) Profile {
	p := Profile{
		Method:       probe.Method,
		Device:       probe.Device,
		Preset:       enc.Preset,
		Quality:      enc.Quality,
		AudioBitrate: enc.AudioBitrate,
	}
	if p.Method == hwaccel.MethodHardware && p.Device == "" {
		p.Method = hwaccel.MethodSoftware
	}
	return p
}

// Args assembles the full ffmpeg command line for one input/output pair.
// Both paths produce H.264 video in an AAC MP4 with faststart so the
// result streams without a second pass over the file.
func (p Profile) Args(inputPath, outputPath string) []string {
	quality := strconv.Itoa(p.Quality)

	var args []string
	if p.Method == hwaccel.MethodHardware {
		args = append(args,
			"-init_hw_device", "qsv=hw:"+p.Device,
			"-i", inputPath,
			"-vf", "format=nv12,hwupload=extra_hw_frames=64",
			"-c:v", "h264_qsv",
			"-preset", p.Preset,
			"-global_quality", quality,
			"-look_ahead", "1",
		)
	} else {
		args = append(args,
			"-i", inputPath,
			"-c:v", "libx264",
			"-preset", p.Preset,
			"-crf", quality,
			"-pix_fmt", "yuv420p",
		)
	}
	args = append(args,
		"-c:a", "aac",
		"-b:a", p.AudioBitrate,
		"-movflags", "+faststart",
		"-profile:v", "high",
		"-level", "4.0",
		"-y",
		"-progress", "pipe:1",
		"-loglevel", "error",
		outputPath,
	)
	return args
}
