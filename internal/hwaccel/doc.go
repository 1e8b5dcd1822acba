// Package hwaccel decides whether hardware-accelerated encoding is usable.
//
// The probe answers hardware only when both halves hold: an accelerator
// render node exists under the device directory, and the ffmpeg build
// advertises the h264_qsv encoder. Absence of either is a normal negative
// result, never an error, and every step of the decision is logged so an
// operator can see why a host fell back to software. The probe is cheap and
// re-run per conversion attempt; the udev monitor only narrates hotplug
// events between attempts.
package hwaccel
