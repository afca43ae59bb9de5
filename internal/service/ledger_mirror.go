package service

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-api/internal/ledger"
	"github.com/noah-isme/academy-api/pkg/jobs"
)

const mirrorQueueName = "ledger-mirror"

// MirrorTask is one ledger write replayed outside the request path.
type MirrorTask struct {
	Action     string
	NationalID string
	Payload    interface{}
}

// LedgerMirrorConfig tunes the mirror worker pool.
type LedgerMirrorConfig struct {
	Workers     int
	MaxRetries  int
	RetryDelay  time.Duration
	CallTimeout time.Duration
	Clock       clockwork.Clock
}

// LedgerMirror pushes admin-side changes to the ledger in the background. The local store is
// already committed when a task is queued, so failures are logged and counted, never surfaced.
type LedgerMirror struct {
	sender  ledgerSender
	queue   *jobs.Queue[MirrorTask]
	timeout time.Duration
	metrics *MetricsService
	logger  *zap.Logger
}

// NewLedgerMirror builds the mirror. A nil sender makes every Mirror call a no-op.
func NewLedgerMirror(sender ledgerSender, cfg LedgerMirrorConfig, metrics *MetricsService, logger *zap.Logger) *LedgerMirror {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 30 * time.Second
	}
	m := &LedgerMirror{sender: sender, timeout: cfg.CallTimeout, metrics: metrics, logger: logger}
	m.queue = jobs.NewQueue(mirrorQueueName, m.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Clock:      cfg.Clock,
		Logger:     logger,
	})
	return m
}

// Start launches the workers.
func (m *LedgerMirror) Start(ctx context.Context) {
	if m == nil {
		return
	}
	m.queue.Start(ctx)
}

// Stop drains queued tasks until ctx ends.
func (m *LedgerMirror) Stop(ctx context.Context) {
	if m == nil {
		return
	}
	m.queue.Stop(ctx)
}

// Pending reports buffered tasks.
func (m *LedgerMirror) Pending() int {
	if m == nil {
		return 0
	}
	return m.queue.Pending()
}

// Mirror queues a ledger write. It never blocks; a full or stopped queue drops the task.
func (m *LedgerMirror) Mirror(ctx context.Context, action, nationalID string, payload interface{}) {
	if m == nil || m.sender == nil {
		return
	}
	err := m.queue.Enqueue(jobs.Job[MirrorTask]{
		Type:    action,
		Payload: MirrorTask{Action: action, NationalID: nationalID, Payload: payload},
	})
	if err != nil {
		m.metrics.RecordMirrorJob(action, err)
		m.logger.Error("ledger mirror task dropped",
			zap.String("action", action), zap.String("national_id", nationalID), zap.Error(err))
	}
}

func (m *LedgerMirror) handle(ctx context.Context, job jobs.Job[MirrorTask]) error {
	callCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	_, err := m.sender.Send(callCtx, job.Payload.Action, job.Payload.Payload)
	m.metrics.RecordMirrorJob(job.Payload.Action, err)
	if err == nil {
		return nil
	}
	// An explicit rejection will not change on retry.
	var remote *ledger.RemoteError
	if errors.As(err, &remote) {
		m.logger.Error("ledger rejected mirrored change",
			zap.String("action", job.Payload.Action), zap.String("national_id", job.Payload.NationalID), zap.Error(err))
		return nil
	}
	return err
}
