package hwaccel

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"vidmill/internal/logging"
)

var commandContext = exec.CommandContext

// Method is the encoder family a probe resolves to.
type Method string

const (
	MethodHardware Method = "hardware"
	MethodSoftware Method = "software"
)

// hardwareCodec is the encoder name the ffmpeg build must advertise.
const hardwareCodec = "h264_qsv"

// encoderListTimeout bounds the ffmpeg capability query.
const encoderListTimeout = 5 * time.Second

// Result captures a probe decision and the evidence behind it.
type Result struct {
	Method      Method
	Device      string
	DeviceFound bool
	CodecFound  bool
}

// Prober decides which encoder family a conversion attempt should use.
type Prober interface {
	Probe(ctx context.Context) Result
}

// QSVProber probes for Intel Quick Sync: a DRI render node plus the
// h264_qsv encoder in the ffmpeg feature list.
type QSVProber struct {
	deviceDir    string
	device       string
	logger       *slog.Logger
	listEncoders func(ctx context.Context) (string, error)
}

// NewQSVProber constructs a prober over deviceDir, preferring the named
// render node but accepting any renderD* entry.
func NewQSVProber(deviceDir, device, ffmpegBinary string, logger *slog.Logger) *QSVProber {
	if ffmpegBinary == "" {
		ffmpegBinary = "ffmpeg"
	}
	return &QSVProber{
		deviceDir: deviceDir,
		device:    device,
		logger:    logging.NewComponentLogger(logger, "hwaccel"),
		listEncoders: func(ctx context.Context) (string, error) {
			ctx, cancel := context.WithTimeout(ctx, encoderListTimeout)
			defer cancel()
			out, err := commandContext(ctx, ffmpegBinary, "-hide_banner", "-encoders").Output()
			return string(out), err
		},
	}
}

// Probe checks device and codec availability. It never fails: every missing
// piece downgrades the result to software and is logged as a diagnostic.
func (p *QSVProber) Probe(ctx context.Context) Result {
	result := Result{Method: MethodSoftware}

	result.Device, result.DeviceFound = p.findRenderNode()
	if !result.DeviceFound {
		p.logger.Info("accelerator device not found, using software encoder",
			logging.String("device_dir", p.deviceDir),
			logging.String("device", p.device),
		)
		return result
	}
	p.logger.Info("accelerator device found", logging.String("device", result.Device))

	output, err := p.listEncoders(ctx)
	if err != nil {
		logging.WarnWithContext(p.logger, "encoder capability query failed", "encoder_list_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "falling back to software encoding"),
			logging.String(logging.FieldErrorHint, "check that ffmpeg is installed and executable"),
		)
		return result
	}
	if !strings.Contains(output, hardwareCodec) {
		p.logger.Info("hardware codec not advertised by ffmpeg build, using software encoder",
			logging.String("codec", hardwareCodec),
		)
		return result
	}
	result.CodecFound = true
	result.Method = MethodHardware
	p.logger.Info("hardware encoding available",
		logging.String("codec", hardwareCodec),
		logging.String("device", result.Device),
	)
	return result
}

// findRenderNode returns the preferred render node when present, otherwise
// the first renderD* entry in the device directory.
func (p *QSVProber) findRenderNode() (string, bool) {
	preferred := filepath.Join(p.deviceDir, p.device)
	if _, err := os.Stat(preferred); err == nil {
		return preferred, true
	}

	entries, err := os.ReadDir(p.deviceDir)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "renderD") {
			node := filepath.Join(p.deviceDir, entry.Name())
			p.logger.Info("preferred device absent, using alternate render node",
				logging.String("device", node))
			return node, true
		}
	}
	return "", false
}

var _ Prober = (*QSVProber)(nil)

// Static is a fixed-result prober for tests and for deployments that force
// software encoding.
type Static struct {
	Result Result
}

// Software returns a prober that always selects the software profile.
func Software() Static {
	return Static{Result: Result{Method: MethodSoftware}}
}

func (s Static) Probe(context.Context) Result { return s.Result }

var _ Prober = Static{}
