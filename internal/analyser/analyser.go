package analyser

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

// Analyser runs one analysis stage over the elements named by its input
// queries.
type Analyser struct {
	core   *module.Core
	cfg    module.StageConfig
	proc   Processor
	policy retry.Policy
	runner dispatch.Runner
}

// New validates the stage configuration and builds an analyser.
func New(cfg module.StageConfig, name string, store storage.Store, proc Processor, opts ...module.Option) (*Analyser, error) {
	if strings.TrimSpace(name) == "" {
		return nil, faults.Configf("you must provide a name for your analyser")
	}
	if store == nil {
		return nil, faults.Configf("you must provide a valid storage backend")
	}
	if proc == nil {
		return nil, faults.Configf("you must provide a processor implementation")
	}
	if len(cfg.ElementsIn) == 0 {
		return nil, faults.Configf("the config must contain a non-empty 'elements_in' naming the analyser's input")
	}
	for _, q := range cfg.ElementsIn {
		if err := q.Validate(); err != nil {
			return nil, faults.Wrap(faults.ErrConfig, "elements_in", err)
		}
	}

	settings := module.DefaultSettings().Apply(opts...)
	return &Analyser{
		core:   module.NewCore(name, module.KindAnalyser, store, settings.Logger, settings.Parallel),
		cfg:    cfg,
		proc:   proc,
		policy: retry.Policy{MaxAttempts: settings.MaxAttempts, Strict: settings.Strict},
		runner: dispatch.Runner{Parallel: settings.Parallel, Workers: settings.Workers},
	}, nil
}

// Name returns the stage identifier.
func (a *Analyser) Name() string { return a.core.Name() }

// DestQuery returns the run's output destination once published.
func (a *Analyser) DestQuery() element.Query { return a.core.DestQuery() }

// Errored reports whether any element exhausted its retries.
func (a *Analyser) Errored() bool { return a.core.Errored() }

// Start is the primary entrypoint in the stage lifecycle. It runs setup,
// reads the input elements, dispatches analysis, aggregates, and writes the
// completion metadata when the run did not error. The returned summary counts
// terminal element outcomes.
func (a *Analyser) Start(ctx context.Context) (dispatch.Summary, error) {
	if _, ok := logging.RunIDFromContext(ctx); !ok {
		ctx = logging.WithRunID(ctx, uuid.NewString())
	}

	var summary dispatch.Summary

	if err := a.core.RunPhase(ctx, "pre-analyse", func(ctx context.Context) error {
		return a.proc.Setup(ctx, a.cfg)
	}); err != nil {
		return summary, err
	}

	elements, err := a.readInputs(ctx)
	if err != nil {
		return summary, err
	}

	selector, err := a.resolveSelector()
	if err != nil {
		return summary, err
	}
	a.core.SetDestQuery(element.Query(selector).Descend(a.core.Name()))

	// Keep local payload copies through the batch so post-phase aggregation
	// can still read them; the backend default is restored afterwards.
	store := a.core.Store()
	restoreDelete := store.DeleteLocalOnWrite()
	store.SetDeleteLocalOnWrite(false)
	defer store.SetDeleteLocalOnWrite(restoreDelete)

	if err := a.core.RunMainPhase(ctx, "analyse", func(ctx context.Context) error {
		var runErr error
		summary, runErr = a.runner.Run(ctx, elements, a.processOne)
		return runErr
	}); err != nil {
		return summary, err
	}

	if err := a.core.RunPhase(ctx, "post-analyse", a.post); err != nil {
		return summary, err
	}

	if !a.core.Errored() {
		meta := storage.Meta{
			EType:  a.proc.OutType(),
			Config: a.cfg.Record(),
			Stage:  storage.StageInfo{Name: a.core.Name(), Module: string(module.KindAnalyser)},
		}
		if err := store.WriteMeta(ctx, a.core.DestQuery(), meta); err != nil {
			return summary, fmt.Errorf("write completion metadata: %w", err)
		}
	}

	a.core.Log(fmt.Sprintf("analysis complete: %d succeeded, %d skipped, %d failed", summary.Succeeded, summary.Skipped, summary.Failed))
	if err := a.core.FlushLogs(ctx); err != nil {
		a.core.Logger().Warn("final log flush failed", logging.Error(err))
	}
	return summary, nil
}

func (a *Analyser) readInputs(ctx context.Context) ([]element.Element, error) {
	elements, err := a.core.Store().ReadElements(ctx, a.cfg.ElementsIn)
	if err != nil {
		if faults.Classify(err) == faults.ClassFatal {
			return nil, err
		}
		return nil, faults.Wrap(faults.ErrStorageCorrupted, "the 'elements_in' you specified could not be read from storage", err)
	}
	if len(elements) == 0 {
		return nil, faults.Wrap(faults.ErrNoInput, "no elements could be found at the locations you passed in", nil)
	}
	return elements, nil
}

// resolveSelector concatenates the selector names of every input query; with
// a single input this is just that input's selector.
func (a *Analyser) resolveSelector() (string, error) {
	var b strings.Builder
	for _, q := range a.cfg.ElementsIn {
		selector, _, err := a.core.Store().ReadQuery(q)
		if err != nil {
			return "", err
		}
		b.WriteString(selector)
	}
	return b.String(), nil
}

func (a *Analyser) processOne(ctx context.Context, el element.Element) (retry.Outcome, error) {
	events := retry.Events{
		OnSkip: func(reason error) {
			a.core.LogElementError(reason.Error(), el.Query)
		},
		OnRetry: func(attempt int, reason error) {
			a.core.LogElementError(fmt.Sprintf("attempt %d: %v", attempt, reason), el.Query)
		},
		OnExhausted: func(err error) {
			a.core.MarkErrored()
			a.core.LogElementError("failed after maximum retries - skipping element", el.Query)
		},
		OnFault: func(err error) {
			a.core.LogElementError(fmt.Sprintf("%v: skipping element", err), el.Query)
		},
	}

	return a.policy.Run(ctx, func(ctx context.Context) error {
		out, err := a.proc.ProcessElement(ctx, el, a.cfg)
		if err != nil {
			return err
		}
		if out == nil {
			return nil
		}

		dest := a.core.DestQuery()
		committed := *out
		committed.Query = dest
		if committed.EType == "" {
			committed.EType = a.proc.OutType()
		}
		// Inherit the input's identifier so a retried write lands on the
		// same stored artifact.
		if committed.ID == "" {
			committed.ID = el.ID
		}
		committed.EnsureID()

		if !a.core.Store().WriteElement(ctx, dest, committed) {
			return faults.Retryf("unsuccessful storage")
		}
		return nil
	}, events)
}

func (a *Analyser) post(ctx context.Context) error {
	// A run where nothing was written has no destination to read yet; that
	// case finalizes over an empty batch. Anything else wrong with the
	// destination aborts before the completion record can be written.
	analysed, err := a.core.Store().ReadElements(ctx, []element.Query{a.core.DestQuery()})
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		analysed = nil
	}

	aggregate, err := a.proc.Finalize(ctx, analysed, a.cfg)
	if err != nil {
		return err
	}
	if aggregate == nil {
		return nil
	}
	aggregate.EnsureID()

	var missed []string
	for _, q := range a.cfg.ElementsIn {
		selector, _, err := a.core.Store().ReadQuery(q)
		if err != nil {
			return err
		}
		dest := element.Query(selector).Descend(a.core.Name())
		committed := *aggregate
		committed.Query = dest
		if committed.EType == "" {
			committed.EType = a.proc.OutType()
		}
		if !a.core.Store().WriteElement(ctx, dest, committed) {
			missed = append(missed, dest.String())
		}
	}
	if len(missed) > 0 {
		return faults.Retryf("aggregate element not committed to %s", strings.Join(missed, ", "))
	}
	return nil
}
