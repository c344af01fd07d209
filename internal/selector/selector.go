package selector

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/google/uuid"

	"triage/internal/dispatch"
	"triage/internal/element"
	"triage/internal/faults"
	"triage/internal/logging"
	"triage/internal/module"
	"triage/internal/retry"
	"triage/internal/storage"
)

// Selector runs one retrieval stage: index an external source, then pull each
// indexed element into storage.
type Selector struct {
	core   *module.Core
	cfg    module.StageConfig
	retr   Retriever
	policy retry.Policy
	runner dispatch.Runner
}

// New validates the stage configuration and builds a selector.
func New(cfg module.StageConfig, name string, store storage.Store, retr Retriever, opts ...module.Option) (*Selector, error) {
	if strings.TrimSpace(name) == "" {
		return nil, faults.Configf("you must provide a name for your selector")
	}
	if err := element.Query(name).Validate(); err != nil {
		return nil, faults.Wrap(faults.ErrConfig, "selector name", err)
	}
	if store == nil {
		return nil, faults.Configf("you must provide a valid storage backend")
	}
	if retr == nil {
		return nil, faults.Configf("you must provide a retriever implementation")
	}

	settings := module.DefaultSettings().Apply(opts...)
	return &Selector{
		core:   module.NewCore(name, module.KindSelector, store, settings.Logger, settings.Parallel),
		cfg:    cfg,
		retr:   retr,
		policy: retry.Policy{MaxAttempts: settings.MaxAttempts, Strict: settings.Strict},
		runner: dispatch.Runner{Parallel: settings.Parallel, Workers: settings.Workers},
	}, nil
}

// Name returns the stage identifier.
func (s *Selector) Name() string { return s.core.Name() }

// DestQuery returns the run's output destination once published.
func (s *Selector) DestQuery() element.Query { return s.core.DestQuery() }

// Errored reports whether any element exhausted its retries.
func (s *Selector) Errored() bool { return s.core.Errored() }

// Start is the primary entrypoint in the stage lifecycle. It runs setup,
// indexes the source, dispatches retrieval, aggregates, and writes the
// completion metadata when the run did not error. The returned summary counts
// terminal element outcomes.
func (s *Selector) Start(ctx context.Context) (dispatch.Summary, error) {
	if _, ok := logging.RunIDFromContext(ctx); !ok {
		ctx = logging.WithRunID(ctx, uuid.NewString())
	}

	var summary dispatch.Summary

	if err := s.core.RunPhase(ctx, "pre-retrieve", func(ctx context.Context) error {
		return s.retr.Setup(ctx, s.cfg)
	}); err != nil {
		return summary, err
	}

	// A selector originates elements, so its destination is its own name.
	s.core.SetDestQuery(element.Query(s.core.Name()))

	var indexed []element.Element
	if err := s.core.RunPhase(ctx, "index", func(ctx context.Context) error {
		var indexErr error
		indexed, indexErr = s.retr.Index(ctx, s.cfg)
		return indexErr
	}); err != nil {
		return summary, err
	}
	if len(indexed) == 0 {
		return summary, faults.Wrap(faults.ErrNoInput, "indexing the source produced no elements to retrieve", nil)
	}
	for i := range indexed {
		indexed[i].EnsureID()
	}

	// Keep local payload copies through the batch so post-phase aggregation
	// can still read them; the backend default is restored afterwards.
	store := s.core.Store()
	restoreDelete := store.DeleteLocalOnWrite()
	store.SetDeleteLocalOnWrite(false)
	defer store.SetDeleteLocalOnWrite(restoreDelete)

	if err := s.core.RunMainPhase(ctx, "retrieve", func(ctx context.Context) error {
		var runErr error
		summary, runErr = s.runner.Run(ctx, indexed, s.retrieveOne)
		return runErr
	}); err != nil {
		return summary, err
	}

	if err := s.core.RunPhase(ctx, "post-retrieve", s.post); err != nil {
		return summary, err
	}

	if !s.core.Errored() {
		meta := storage.Meta{
			EType:  s.retr.OutType(),
			Config: s.cfg.Record(),
			Stage:  storage.StageInfo{Name: s.core.Name(), Module: string(module.KindSelector)},
		}
		if err := store.WriteMeta(ctx, s.core.DestQuery(), meta); err != nil {
			return summary, fmt.Errorf("write completion metadata: %w", err)
		}
	}

	s.core.Log(fmt.Sprintf("retrieval complete: %d succeeded, %d skipped, %d failed", summary.Succeeded, summary.Skipped, summary.Failed))
	if err := s.core.FlushLogs(ctx); err != nil {
		s.core.Logger().Warn("final log flush failed", logging.Error(err))
	}
	return summary, nil
}

func (s *Selector) retrieveOne(ctx context.Context, el element.Element) (retry.Outcome, error) {
	events := retry.Events{
		OnSkip: func(reason error) {
			s.core.LogElementError(reason.Error(), el.Query)
		},
		OnRetry: func(attempt int, reason error) {
			s.core.LogElementError(fmt.Sprintf("attempt %d: %v", attempt, reason), el.Query)
		},
		OnExhausted: func(err error) {
			s.core.MarkErrored()
			s.core.LogElementError("failed after maximum retries - skipping element", el.Query)
		},
		OnFault: func(err error) {
			s.core.LogElementError(fmt.Sprintf("%v: skipping element", err), el.Query)
		},
	}

	return s.policy.Run(ctx, func(ctx context.Context) error {
		out, err := s.retr.RetrieveElement(ctx, el, s.cfg)
		if err != nil {
			return err
		}
		if out == nil {
			return nil
		}

		dest := s.core.DestQuery()
		committed := *out
		committed.Query = dest
		if committed.EType == "" {
			committed.EType = s.retr.OutType()
		}
		// Inherit the indexed identifier so a retried write lands on the
		// same stored artifact.
		if committed.ID == "" {
			committed.ID = el.ID
		}
		committed.EnsureID()

		if !s.core.Store().WriteElement(ctx, dest, committed) {
			return faults.Retryf("unsuccessful storage")
		}
		return nil
	}, events)
}

func (s *Selector) post(ctx context.Context) error {
	// A run where nothing was written has no destination to read yet; that
	// case finalizes over an empty batch. Anything else wrong with the
	// destination aborts before the completion record can be written.
	retrieved, err := s.core.Store().ReadElements(ctx, []element.Query{s.core.DestQuery()})
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		retrieved = nil
	}

	aggregate, err := s.retr.Finalize(ctx, retrieved, s.cfg)
	if err != nil {
		return err
	}
	if aggregate == nil {
		return nil
	}
	aggregate.EnsureID()

	dest := s.core.DestQuery()
	committed := *aggregate
	committed.Query = dest
	if committed.EType == "" {
		committed.EType = s.retr.OutType()
	}
	if !s.core.Store().WriteElement(ctx, dest, committed) {
		return faults.Retryf("aggregate element not committed to %s", dest)
	}
	return nil
}
