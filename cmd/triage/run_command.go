package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"triage/internal/analyser"
	"triage/internal/dispatch"
	"triage/internal/element"
	"triage/internal/ledger"
	"triage/internal/logging"
	"triage/internal/module"
	"triage/internal/registry"
	"triage/internal/runlock"
	"triage/internal/selector"
	"triage/internal/storage"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var serial bool
	var strict bool

	cmd := &cobra.Command{
		Use:   "run <run-file>",
		Short: "Execute the pipeline described by a YAML run file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := loadRunFile(args[0])
			if err != nil {
				return err
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			lock, err := runlock.New(cfg.Paths.BaseDir)
			if err != nil {
				return err
			}
			if err := lock.Acquire(); err != nil {
				return err
			}
			defer func() { _ = lock.Release() }()

			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			led, err := ctx.openLedger()
			if err != nil {
				return err
			}
			defer func() { _ = led.Close() }()

			opts := []module.Option{module.WithEngine(cfg.Engine), module.WithLogger(logger)}
			if serial {
				opts = append(opts, module.WithParallel(false))
			}
			if strict {
				opts = append(opts, module.WithStrict(true))
			}

			exec := &pipelineExecutor{
				cmd:      cmd,
				registry: newBuiltinRegistry(),
				store:    store,
				ledger:   led,
				opts:     opts,
			}
			return exec.run(cmd.Context(), plan)
		},
	}

	cmd.Flags().BoolVar(&serial, "serial", false, "Process elements one at a time")
	cmd.Flags().BoolVar(&strict, "strict", false, "Abort the run on unclassified element errors")
	return cmd
}

type pipelineExecutor struct {
	cmd      *cobra.Command
	registry *registry.Registry
	store    *storage.LocalStore
	ledger   *ledger.Store
	opts     []module.Option
}

func (e *pipelineExecutor) run(ctx context.Context, plan *runFile) error {
	var prevDest element.Query

	if plan.Select != nil {
		dest, err := e.runSelect(ctx, *plan.Select)
		if err != nil {
			return err
		}
		prevDest = dest
	}

	for _, spec := range plan.Analyse {
		dest, err := e.runAnalyse(ctx, spec, prevDest)
		if err != nil {
			return err
		}
		prevDest = dest
	}
	return nil
}

func (e *pipelineExecutor) runSelect(ctx context.Context, spec stageSpec) (element.Query, error) {
	retr, err := e.registry.Retriever(spec.moduleName())
	if err != nil {
		return "", err
	}
	stage, err := selector.New(spec.stageConfig(), spec.Name, e.store, retr, e.opts...)
	if err != nil {
		return "", err
	}

	summary, runErr := e.executeStage(ctx, spec.Name, string(module.KindSelector), stage.Start, stage.DestQuery, stage.Errored)
	if runErr != nil {
		return "", runErr
	}
	e.report(spec.Name, stage.DestQuery(), summary, stage.Errored())
	return stage.DestQuery(), nil
}

func (e *pipelineExecutor) runAnalyse(ctx context.Context, spec stageSpec, prevDest element.Query) (element.Query, error) {
	proc, err := e.registry.Processor(spec.moduleName())
	if err != nil {
		return "", err
	}

	cfg := spec.stageConfig()
	if len(cfg.ElementsIn) == 0 && prevDest != "" {
		cfg.ElementsIn = []element.Query{prevDest}
	}

	stage, err := analyser.New(cfg, spec.Name, e.store, proc, e.opts...)
	if err != nil {
		return "", err
	}

	summary, runErr := e.executeStage(ctx, spec.Name, string(module.KindAnalyser), stage.Start, stage.DestQuery, stage.Errored)
	if runErr != nil {
		return "", runErr
	}
	e.report(spec.Name, stage.DestQuery(), summary, stage.Errored())
	return stage.DestQuery(), nil
}

// executeStage runs one stage under a fresh run identifier and records the
// outcome in the ledger regardless of how the stage finished.
func (e *pipelineExecutor) executeStage(
	ctx context.Context,
	name, kind string,
	start func(context.Context) (dispatch.Summary, error),
	dest func() element.Query,
	errored func() bool,
) (dispatch.Summary, error) {
	runID := uuid.NewString()
	started := time.Now()

	summary, runErr := start(logging.WithRunID(ctx, runID))

	record := ledger.Run{
		RunID:      runID,
		Stage:      name,
		Kind:       kind,
		DestQuery:  dest().String(),
		StartedAt:  started,
		FinishedAt: time.Now(),
		Errored:    errored() || runErr != nil,
		Succeeded:  summary.Succeeded,
		Skipped:    summary.Skipped,
		Failed:     summary.Failed,
	}
	if _, err := e.ledger.RecordRun(ctx, record); err != nil {
		fmt.Fprintf(e.cmd.ErrOrStderr(), "warning: recording run %s failed: %v\n", runID, err)
	}

	if runErr != nil {
		return summary, fmt.Errorf("stage %s: %w", name, runErr)
	}
	return summary, nil
}

func (e *pipelineExecutor) report(name string, dest element.Query, summary dispatch.Summary, errored bool) {
	status := "ok"
	if errored {
		status = "errored"
	}
	fmt.Fprintf(e.cmd.OutOrStdout(), "%s -> %s: %d succeeded, %d skipped, %d failed (%s)\n",
		name, dest, summary.Succeeded, summary.Skipped, summary.Failed, status)
}
