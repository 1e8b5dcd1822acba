package main

import (
	"fmt"
	"time"
)

const summaryRounding = 100 * time.Millisecond

// formatSeconds renders a second count as a compact human duration.
func formatSeconds(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second))
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return d.Round(time.Second).String()
}
