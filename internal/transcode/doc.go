// Package transcode drives one ffmpeg run per candidate file.
//
// The Runner owns the conversion state machine: it publishes starting,
// probes the source duration (best effort), picks a hardware or software
// profile from the capability probe, launches ffmpeg, decodes the key=value
// progress stream into status updates, and maps the exit code to the
// completed or error transition. Progress is advisory; the exit code is the
// only authority on success. A failed run is terminal for its file only and
// never stops the scan loop.
package transcode
