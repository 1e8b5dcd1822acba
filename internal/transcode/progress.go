package transcode

import (
	"strconv"
	"strings"
	"time"
)

// UpdateKind identifies which progress field a decoded line carried.
type UpdateKind int

const (
	// UpdateElapsed reports how much of the source timeline has been encoded.
	UpdateElapsed UpdateKind = iota
	// UpdateSpeed reports the encode rate as a multiple of realtime.
	UpdateSpeed
)

// Update is one decoded value from the ffmpeg -progress stream.
type Update struct {
	Kind    UpdateKind
	Elapsed time.Duration
	Speed   float64
}

// DecodeProgressLine parses a single key=value line from the progress
// stream. Only the elapsed-time and speed keys are recognized; every other
// key, and any malformed line, is skipped without error so an unexpected
// ffmpeg build cannot break a run.
//
// Despite the _ms suffix, ffmpeg emits out_time_ms in microseconds; newer
// builds add out_time_us with the same value. Both decode identically.
func DecodeProgressLine(line string) (Update, bool) {
	key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
	if !ok {
		return Update{}, false
	}
	value = strings.TrimSpace(value)

	switch key {
	case "out_time_ms", "out_time_us":
		micros, err := strconv.ParseInt(value, 10, 64)
		if err != nil || micros < 0 {
			return Update{}, false
		}
		return Update{Kind: UpdateElapsed, Elapsed: time.Duration(micros) * time.Microsecond}, true
	case "speed":
		text := strings.TrimSuffix(value, "x")
		speed, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil || speed < 0 {
			return Update{}, false
		}
		return Update{Kind: UpdateSpeed, Speed: speed}, true
	}
	return Update{}, false
}
