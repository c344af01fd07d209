package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"triage/internal/element"
	"triage/internal/storage"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <query>",
		Short: "Show the elements stored under a query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := element.Query(args[0])
			if err := query.Validate(); err != nil {
				return err
			}

			store, err := ctx.openStore()
			if err != nil {
				return err
			}

			elements, err := store.ReadElements(cmd.Context(), []element.Query{query})
			if err != nil {
				return err
			}
			meta, hasMeta, err := store.ReadMeta(cmd.Context(), query)
			if err != nil {
				return err
			}

			if jsonOut {
				return writeJSON(cmd, showPayload(query, elements, meta, hasMeta))
			}

			out := cmd.OutOrStdout()
			if hasMeta {
				fmt.Fprintf(out, "query %s: %d elements, completed by %s %q (etype %s)\n",
					query, len(elements), meta.Stage.Module, meta.Stage.Name, meta.EType)
			} else {
				fmt.Fprintf(out, "query %s: %d elements, no completion record\n", query, len(elements))
			}

			if len(elements) == 0 {
				return nil
			}

			headers := []string{"ID", "ETYPE", "FILES"}
			rows := make([][]string, 0, len(elements))
			for _, el := range elements {
				rows = append(rows, []string{el.ID, string(el.EType), strconv.Itoa(len(el.Paths))})
			}
			fmt.Fprintln(out, renderTable(headers, rows, []columnAlignment{alignLeft, alignLeft, alignRight}))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")
	return cmd
}

type elementView struct {
	ID    string   `json:"id"`
	EType string   `json:"etype"`
	Paths []string `json:"paths,omitempty"`
}

type showView struct {
	Query    string        `json:"query"`
	Meta     *storage.Meta `json:"meta,omitempty"`
	Elements []elementView `json:"elements"`
}

func showPayload(query element.Query, elements []element.Element, meta storage.Meta, hasMeta bool) showView {
	view := showView{Query: query.String(), Elements: make([]elementView, 0, len(elements))}
	if hasMeta {
		view.Meta = &meta
	}
	for _, el := range elements {
		view.Elements = append(view.Elements, elementView{
			ID:    el.ID,
			EType: string(el.EType),
			Paths: el.Paths,
		})
	}
	return view
}
