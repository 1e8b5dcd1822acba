package hwaccel

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"vidmill/internal/logging"
)

func newProber(t *testing.T, deviceDir string, encoders string, listErr error) *QSVProber {
	t.Helper()
	p := NewQSVProber(deviceDir, "renderD128", "ffmpeg", logging.NewNop())
	p.listEncoders = func(context.Context) (string, error) {
		return encoders, listErr
	}
	return p
}

func touchDevice(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
		t.Fatal(err)
	}
}

const qsvEncoderList = ` V..... libx264              libx264 H.264 / AVC / MPEG-4 AVC
 V..... h264_qsv             H.264 / AVC / MPEG-4 AVC (Intel Quick Sync Video acceleration)
 A..... aac                  AAC (Advanced Audio Coding)`

func TestProbeHardwareWhenDeviceAndCodecPresent(t *testing.T) {
	dir := t.TempDir()
	touchDevice(t, dir, "renderD128")

	result := newProber(t, dir, qsvEncoderList, nil).Probe(context.Background())
	if result.Method != MethodHardware {
		t.Fatalf("method = %q, want hardware", result.Method)
	}
	if !result.DeviceFound || !result.CodecFound {
		t.Fatalf("evidence incomplete: %+v", result)
	}
	if result.Device != filepath.Join(dir, "renderD128") {
		t.Fatalf("unexpected device %q", result.Device)
	}
}

func TestProbeSoftwareWhenDeviceAbsent(t *testing.T) {
	result := newProber(t, t.TempDir(), qsvEncoderList, nil).Probe(context.Background())
	if result.Method != MethodSoftware {
		t.Fatalf("method = %q, want software", result.Method)
	}
	if result.DeviceFound {
		t.Fatal("no device should be reported in an empty directory")
	}
}

func TestProbeSoftwareWhenDeviceDirMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "dri")
	result := newProber(t, missing, qsvEncoderList, nil).Probe(context.Background())
	if result.Method != MethodSoftware || result.DeviceFound {
		t.Fatalf("expected software with no device, got %+v", result)
	}
}

func TestProbeAcceptsAlternateRenderNode(t *testing.T) {
	dir := t.TempDir()
	touchDevice(t, dir, "renderD129")
	touchDevice(t, dir, "card0")

	result := newProber(t, dir, qsvEncoderList, nil).Probe(context.Background())
	if !result.DeviceFound {
		t.Fatalf("alternate render node not found: %+v", result)
	}
	if result.Device != filepath.Join(dir, "renderD129") {
		t.Fatalf("unexpected device %q", result.Device)
	}
}

func TestProbeSoftwareWhenCodecMissing(t *testing.T) {
	dir := t.TempDir()
	touchDevice(t, dir, "renderD128")

	result := newProber(t, dir, " V..... libx264  software only", nil).Probe(context.Background())
	if result.Method != MethodSoftware {
		t.Fatalf("method = %q, want software", result.Method)
	}
	if !result.DeviceFound || result.CodecFound {
		t.Fatalf("unexpected evidence: %+v", result)
	}
}

func TestProbeSoftwareWhenEncoderListFails(t *testing.T) {
	dir := t.TempDir()
	touchDevice(t, dir, "renderD128")

	result := newProber(t, dir, "", errors.New("ffmpeg missing")).Probe(context.Background())
	if result.Method != MethodSoftware {
		t.Fatalf("method = %q, want software", result.Method)
	}
}

func TestStaticProber(t *testing.T) {
	if got := Software().Probe(context.Background()); got.Method != MethodSoftware {
		t.Fatalf("Software() probe = %+v", got)
	}
}
