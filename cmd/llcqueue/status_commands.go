package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"llcqueue/internal/queue"
	"llcqueue/internal/status"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Summarize every pair in the status file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(cmd, func(runCtx context.Context, engine *queue.Engine) error {
				doc, err := engine.Snapshot(runCtx)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, documentJSON(doc))
				}
				out := cmd.OutOrStdout()
				keys := doc.Keys()
				if len(keys) == 0 {
					fmt.Fprintf(out, "No pairs in %s (run `llcqueue init`)\n", engine.Location())
					return nil
				}
				fmt.Fprint(out, renderStatus(doc, keys, shouldColorize(out)))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output the full document as JSON")
	return cmd
}

func renderStatus(doc *status.Document, keys []status.Key, colorize bool) string {
	var b strings.Builder
	for i := 0; i < len(keys); {
		process := keys[i].Process
		var rows [][]string
		for ; i < len(keys) && keys[i].Process == process; i++ {
			vs, _ := doc.Lookup(keys[i])
			rows = append(rows, []string{
				keys[i].Variable,
				strconv.Itoa(len(vs.Pending)),
				strconv.Itoa(len(vs.InProgress)),
				strconv.Itoa(len(vs.Completed)),
			})
		}
		b.WriteString(processLabel(process))
		b.WriteByte('\n')
		b.WriteString(renderTable(
			[]string{"Variable", "Pending", "In Progress", "Completed"},
			rows,
			[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
			colorize,
		))
		b.WriteString("\n\n")
	}
	return b.String()
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show PROCESS VARIABLE",
		Short: "Print the item lists of one pair",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, rest, err := parseKeyArgs(args)
			if err != nil {
				return err
			}
			if len(rest) != 0 {
				return fmt.Errorf("%w: unexpected arguments %v", queue.ErrInvalidInput, rest)
			}
			return ctx.withEngine(cmd, func(runCtx context.Context, engine *queue.Engine) error {
				doc, err := engine.Snapshot(runCtx)
				if err != nil {
					return err
				}
				vs, ok := doc.Lookup(key)
				if !ok {
					vs = &status.VariableStatus{}
				}
				if asJSON {
					return writeJSON(cmd, toPairJSON(vs))
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s\n", key)
				if !ok {
					fmt.Fprintln(out, "  (not in status file)")
				}
				fmt.Fprintf(out, "  pending:     %s\n", joinIDs(vs.Pending))
				fmt.Fprintf(out, "  in_progress: %s\n", joinIDs(vs.InProgress))
				fmt.Fprintf(out, "  completed:   %s\n", formatIDs(vs.Completed))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output the lists as JSON")
	return cmd
}
