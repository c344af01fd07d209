package module

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"triage/internal/element"
	"triage/internal/logging"
	"triage/internal/storage"
)

// Kind distinguishes the two stage templates.
type Kind string

const (
	// KindAnalyser consumes elements and emits derived elements.
	KindAnalyser Kind = "analyser"
	// KindSelector originates elements from an external source.
	KindSelector Kind = "selector"
)

// Core is the per-run state a stage instance shares across its phases and
// dispatcher workers.
type Core struct {
	name     string
	kind     Kind
	store    storage.Store
	logger   *slog.Logger
	buf      *logging.Buffer
	parallel bool

	// errored is monotonic within a run: set when an element exhausts its
	// retries, never reset.
	errored atomic.Bool
	// destQ is written once before main-phase dispatch and read by every
	// worker.
	destQ atomic.Pointer[element.Query]
}

// NewCore builds the shared run state for a stage.
func NewCore(name string, kind Kind, store storage.Store, logger *slog.Logger, parallel bool) *Core {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Core{
		name:     name,
		kind:     kind,
		store:    store,
		logger:   logging.NewComponentLogger(logger, string(kind)).With(logging.String(logging.FieldStage, name)),
		buf:      logging.NewBuffer(),
		parallel: parallel,
	}
}

// Name returns the unique stage identifier.
func (c *Core) Name() string { return c.name }

// Kind returns the stage template kind.
func (c *Core) Kind() Kind { return c.kind }

// Store returns the storage backend.
func (c *Core) Store() storage.Store { return c.store }

// Logger returns the stage-scoped logger.
func (c *Core) Logger() *slog.Logger { return c.logger }

// InParallel reports whether the main phase dispatches across the worker pool.
func (c *Core) InParallel() bool { return c.parallel }

// MarkErrored flags the run; monotonic, safe from any worker.
func (c *Core) MarkErrored() { c.errored.Store(true) }

// Errored reports whether any element exhausted its retries this run.
func (c *Core) Errored() bool { return c.errored.Load() }

// SetDestQuery publishes the run's output destination to all workers.
func (c *Core) SetDestQuery(q element.Query) { c.destQ.Store(&q) }

// DestQuery returns the published destination, or empty before dispatch.
func (c *Core) DestQuery() element.Query {
	if p := c.destQ.Load(); p != nil {
		return *p
	}
	return ""
}

// logDest is where run logs are flushed: the destination once published, the
// stage's own name before that.
func (c *Core) logDest() element.Query {
	if q := c.DestQuery(); q != "" {
		return q
	}
	return element.Query(c.name)
}

// Log records an informational run-log line in the buffer and the logger.
func (c *Core) Log(message string) {
	c.buf.Append(message)
	c.logger.Info(message)
}

// LogElementError records a per-element error with its address.
func (c *Core) LogElementError(message string, q element.Query) {
	c.buf.AppendError(message, q.String())
	c.logger.Error(message, logging.String(logging.FieldElementQuery, q.String()))
}

// FlushLogs drains the run-log buffer to storage.
func (c *Core) FlushLogs(ctx context.Context) error {
	lines := c.buf.DrainLines()
	if len(lines) == 0 {
		return nil
	}
	if err := c.store.AppendLogs(ctx, c.logDest(), lines); err != nil {
		return fmt.Errorf("flush run logs: %w", err)
	}
	return nil
}

// RunPhase executes one serial lifecycle phase with entry logging and the
// flush-even-on-abort guarantee.
func (c *Core) RunPhase(ctx context.Context, phase string, fn func(context.Context) error) error {
	return c.runPhase(ctx, phase, "serial", fn)
}

// RunMainPhase executes the element-dispatching phase, logging the configured
// dispatch mode.
func (c *Core) RunMainPhase(ctx context.Context, phase string, fn func(context.Context) error) error {
	mode := "serial"
	if c.parallel {
		mode = "parallel"
	}
	return c.runPhase(ctx, phase, mode, fn)
}

func (c *Core) runPhase(ctx context.Context, phase, mode string, fn func(context.Context) error) error {
	phaseCtx := logging.WithPhase(logging.WithStage(ctx, c.name), phase)
	logger := c.logger.With(logging.String(logging.FieldPhase, phase))

	logger.Info("phase started", logging.String(logging.FieldMode, mode))
	c.buf.Append(fmt.Sprintf("phase %s started (%s)", phase, mode))

	started := time.Now()
	defer func() {
		if err := c.FlushLogs(ctx); err != nil {
			logger.Warn("run log flush failed", logging.Error(err))
		}
	}()

	if err := fn(phaseCtx); err != nil {
		c.buf.Append(fmt.Sprintf("phase %s failed: %v", phase, err))
		logger.Error("phase failed", logging.Error(err), logging.Duration("elapsed", time.Since(started)))
		return err
	}

	c.buf.Append(fmt.Sprintf("phase %s completed", phase))
	logger.Info("phase completed", logging.Duration("elapsed", time.Since(started)))
	return nil
}
