package status

import (
	"encoding/json"
	"log/slog"
	"sync"

	"vidmill/internal/fileutil"
	"vidmill/internal/logging"
)

// Publisher is the single writer of the status document. All mutators persist
// the full document before returning; readers in other processes only ever
// see complete documents thanks to the atomic replace in fileutil.
type Publisher struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
	cur    Snapshot
}

// NewPublisher creates a publisher and persists the idle default so readers
// have a document from process start.
func NewPublisher(path string, logger *slog.Logger) *Publisher {
	p := &Publisher{
		path:   path,
		logger: logging.NewComponentLogger(logger, "status"),
		cur:    Idle(),
	}
	p.mu.Lock()
	p.persistLocked()
	p.mu.Unlock()
	return p
}

// Snapshot returns a copy of the current document.
func (p *Publisher) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cur
}

// Path returns the document location.
func (p *Publisher) Path() string {
	return p.path
}

// BeginFile marks a conversion as selected: state starting, zero progress,
// no throughput or method yet.
func (p *Publisher) BeginFile(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cur = Snapshot{State: StateStarting, CurrentFile: &name}
	p.persistLocked()
}

// SetMethod records the encoder family chosen for the current file.
func (p *Publisher) SetMethod(method string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cur.Method = &method
	p.persistLocked()
}

// MarkConverting transitions the current file from starting to converting.
func (p *Publisher) MarkConverting() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cur.State = StateConverting
	p.persistLocked()
}

// UpdateProgress records encoded percentage. Values are clamped to [0,100]
// and never move backwards within one file; progress is advisory and a
// regressing sample is noise, not truth.
func (p *Publisher) UpdateProgress(progress int) {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if progress <= p.cur.Progress {
		return
	}
	p.cur.Progress = progress
	p.persistLocked()
}

// UpdateThroughput records the encoder speed multiplier and, when known, the
// estimated seconds remaining.
func (p *Publisher) UpdateThroughput(speed float64, eta *int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cur.Speed = &speed
	if eta != nil {
		v := *eta
		if v < 0 {
			v = 0
		}
		p.cur.ETA = &v
	}
	p.persistLocked()
}

// MarkCompleted publishes the terminal success state for the current file.
func (p *Publisher) MarkCompleted() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cur = Snapshot{State: StateCompleted, Progress: 100}
	p.persistLocked()
}

// MarkFailed publishes the terminal failure state for the current file.
func (p *Publisher) MarkFailed() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cur = Snapshot{State: StateError}
	p.persistLocked()
}

// MarkIdle returns the document to the between-files default.
func (p *Publisher) MarkIdle() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cur = Idle()
	p.persistLocked()
}

func (p *Publisher) persistLocked() {
	p.cur.Active = working(p.cur.State)

	data, err := json.MarshalIndent(p.cur, "", "  ")
	if err != nil {
		logging.WarnWithContext(p.logger, "marshal status document failed", "status_persist_failed",
			logging.Error(err))
		return
	}
	data = append(data, '\n')

	if err := fileutil.EnsureParentDir(p.path); err != nil {
		p.warnPersist(err)
		return
	}
	if err := fileutil.WriteAtomic(p.path, data, 0o644); err != nil {
		p.warnPersist(err)
	}
}

// Persistence failures degrade observability only; conversion correctness
// does not depend on the document, so log and continue.
func (p *Publisher) warnPersist(err error) {
	logging.WarnWithContext(p.logger, "persist status document failed", "status_persist_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check output mount permissions and free space"),
		logging.String(logging.FieldImpact, "status readers see stale state"),
	)
}
