package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"triage/internal/ledger"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded pipeline runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			led, err := ctx.openLedger()
			if err != nil {
				return err
			}
			defer func() { _ = led.Close() }()

			runs, err := led.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if jsonOut {
				return writeJSON(cmd, runsPayload(runs))
			}

			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
				return nil
			}

			headers := []string{"RUN", "STAGE", "KIND", "DEST", "STARTED", "DURATION", "OK", "SKIP", "FAIL", "STATUS"}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					shortRunID(run.RunID),
					run.Stage,
					run.Kind,
					run.DestQuery,
					run.StartedAt.Local().Format("2006-01-02 15:04:05"),
					run.Duration().Round(time.Millisecond).String(),
					strconv.Itoa(run.Succeeded),
					strconv.Itoa(run.Skipped),
					strconv.Itoa(run.Failed),
					runStatus(run),
				})
			}
			aligns := []columnAlignment{
				alignLeft, alignLeft, alignLeft, alignLeft, alignLeft,
				alignRight, alignRight, alignRight, alignRight, alignLeft,
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, aligns))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list (0 for all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")
	return cmd
}

type runView struct {
	RunID      string `json:"run_id"`
	Stage      string `json:"stage"`
	Kind       string `json:"kind"`
	DestQuery  string `json:"dest_query"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at"`
	Errored    bool   `json:"errored"`
	Succeeded  int    `json:"succeeded"`
	Skipped    int    `json:"skipped"`
	Failed     int    `json:"failed"`
}

func runsPayload(runs []ledger.Run) []runView {
	views := make([]runView, 0, len(runs))
	for _, run := range runs {
		views = append(views, runView{
			RunID:      run.RunID,
			Stage:      run.Stage,
			Kind:       run.Kind,
			DestQuery:  run.DestQuery,
			StartedAt:  run.StartedAt.Format(time.RFC3339),
			FinishedAt: run.FinishedAt.Format(time.RFC3339),
			Errored:    run.Errored,
			Succeeded:  run.Succeeded,
			Skipped:    run.Skipped,
			Failed:     run.Failed,
		})
	}
	return views
}

func runStatus(run ledger.Run) string {
	if run.Errored {
		return "errored"
	}
	return "ok"
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
