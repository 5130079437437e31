package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"llcqueue/internal/journal"
	"llcqueue/internal/queue"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "history [PROCESS VARIABLE]",
		Short: "List recent transitions from the journal",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.Journal.Enabled {
				return errors.New("journal is disabled; set [journal] enabled = true in the configuration")
			}
			opts := journal.ListOptions{Limit: limit}
			if len(args) > 0 {
				key, rest, err := parseKeyArgs(args)
				if err != nil {
					return err
				}
				if len(rest) != 0 {
					return fmt.Errorf("%w: unexpected arguments %v", queue.ErrInvalidInput, rest)
				}
				opts.Key = key
			}

			j, err := journal.Open(cfg.Paths.JournalPath)
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer j.Close()

			entries, err := j.List(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, historyJSON(entries))
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No transitions recorded")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				item := "-"
				if entry.ItemID != nil {
					item = strconv.FormatInt(*entry.ItemID, 10)
				}
				correlation := entry.CorrelationID
				if len(correlation) > 8 {
					correlation = correlation[:8]
				}
				rows = append(rows, []string{
					entry.At.Local().Format(time.DateTime),
					entry.Operation,
					entry.Key.String(),
					item,
					strconv.Itoa(entry.Count),
					correlation,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Time", "Operation", "Pair", "Item", "Count", "Run"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
				shouldColorize(out),
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of entries to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output entries as JSON")
	return cmd
}

type historyEntryJSON struct {
	At            time.Time `json:"at"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	Operation     string    `json:"operation"`
	Process       string    `json:"process"`
	Variable      string    `json:"variable"`
	ItemID        *int64    `json:"item_id,omitempty"`
	Count         int       `json:"count"`
}

func historyJSON(entries []journal.Entry) []historyEntryJSON {
	out := make([]historyEntryJSON, 0, len(entries))
	for _, entry := range entries {
		out = append(out, historyEntryJSON{
			At:            entry.At.UTC(),
			CorrelationID: entry.CorrelationID,
			Operation:     entry.Operation,
			Process:       entry.Key.Process,
			Variable:      entry.Key.Variable,
			ItemID:        entry.ItemID,
			Count:         entry.Count,
		})
	}
	return out
}
