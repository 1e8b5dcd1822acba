package hwaccel

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"vidmill/internal/logging"
)

// Monitor listens for udev netlink events on the drm subsystem so operators
// can correlate encoder-selection changes with accelerator hotplug. Probing
// itself stays per-attempt; the monitor is purely diagnostic.
type Monitor struct {
	logger *slog.Logger

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

// NewMonitor creates a drm hotplug monitor.
func NewMonitor(logger *slog.Logger) *Monitor {
	return &Monitor{logger: logging.NewComponentLogger(logger, "hwaccel-monitor")}
}

// Start begins listening for udev netlink events. Failure to connect is
// non-fatal: conversions keep working, only hotplug narration is lost.
func (m *Monitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		logging.WarnWithContext(m.logger, "failed to connect to netlink socket", "netlink_connect_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "ensure the daemon may open netlink sockets"),
			logging.String(logging.FieldImpact, "accelerator hotplug events will not be logged"),
		)
		return nil
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	go m.monitorLoop(ctx, m.quit)

	m.logger.Info("accelerator hotplug monitor started",
		logging.String(logging.FieldEventType, "hotplug_monitor_started"))
	return nil
}

// Stop shuts down the monitor.
func (m *Monitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.running = false
}

// Running reports whether the monitor is active.
func (m *Monitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Monitor) monitorLoop(ctx context.Context, quit <-chan struct{}) {
	events := make(chan netlink.UEvent)
	errs := make(chan error)

	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn == nil {
		return
	}

	monitorQuit := conn.Monitor(events, errs, drmMatcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-events:
			m.logger.Info("accelerator device event",
				logging.String(logging.FieldEventType, "accelerator_hotplug"),
				logging.String("action", string(uevent.Action)),
				logging.String("devname", uevent.Env["DEVNAME"]),
				logging.String("kobj", uevent.KObj),
			)
		case err := <-errs:
			logging.WarnWithContext(m.logger, "hotplug monitor error", "hotplug_monitor_error",
				logging.Error(err),
				logging.String(logging.FieldImpact, "hotplug events may be missed"),
			)
		}
	}
}

// drmMatcher matches add/remove events on the drm subsystem, which covers
// render node appearance and disappearance.
func drmMatcher() netlink.Matcher {
	action := "add|remove"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "drm",
		},
	})
	return rules
}
