package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"llcqueue/internal/queue"
	"llcqueue/internal/status"
)

func newInitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "init [PROCESS.VARIABLE...]",
		Short: "Create missing pairs in the status file",
		Long: `Create missing pairs with empty lists. Without arguments every pair the
configured dependency graph mentions is created. Existing pairs are left alone.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := make([]status.Key, 0, len(args))
			for _, arg := range args {
				key, err := status.ParseKey(arg)
				if err != nil {
					return fmt.Errorf("%w: %v", queue.ErrInvalidInput, err)
				}
				keys = append(keys, key)
			}
			return ctx.withEngine(cmd, func(runCtx context.Context, engine *queue.Engine) error {
				created, err := engine.Init(runCtx, keys...)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Status file: %s\n", engine.Location())
				if len(created) == 0 {
					fmt.Fprintln(out, "All pairs already present")
					return nil
				}
				for _, key := range created {
					fmt.Fprintf(out, "Created %s\n", key)
				}
				return nil
			})
		},
	}
}

func newRefreshCommand(ctx *commandContext) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "refresh [PROCESS VARIABLE]",
		Short: "Recompute pending lists from upstream completed lists",
		Long: `Recompute a derived pair's pending list from the completed lists of its
upstream pairs. With --all every dependency edge is refreshed in order in a
single locked cycle.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all {
				if len(args) != 0 {
					return fmt.Errorf("%w: --all does not take a pair", queue.ErrInvalidInput)
				}
				return ctx.withEngine(cmd, func(runCtx context.Context, engine *queue.Engine) error {
					results, err := engine.RefreshAll(runCtx)
					if err != nil {
						return err
					}
					for _, result := range results {
						printRefresh(cmd, result)
					}
					return nil
				})
			}
			key, rest, err := parseKeyArgs(args)
			if err != nil {
				return err
			}
			if len(rest) != 0 {
				return fmt.Errorf("%w: unexpected arguments %v", queue.ErrInvalidInput, rest)
			}
			return ctx.withEngine(cmd, func(runCtx context.Context, engine *queue.Engine) error {
				result, err := engine.Refresh(runCtx, key)
				if err != nil {
					return err
				}
				printRefresh(cmd, result)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Refresh every derived pair")
	return cmd
}

func printRefresh(cmd *cobra.Command, result queue.RefreshResult) {
	state := "unchanged"
	if result.Changed {
		state = "updated"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d pending (%s)\n", result.Key, len(result.Pending), state)
}

func newResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset PROCESS VARIABLE [IDS...]",
		Short: "Return in-progress items to pending after a worker crash",
		Long: `Return in-progress items to the front of pending. Use this when a worker
died without reporting success or failure. Without IDS every in-progress item
of the pair is reset.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, rest, err := parseKeyArgs(args)
			if err != nil {
				return err
			}
			ids, err := queue.ParseItemIDs(rest...)
			if err != nil {
				return err
			}
			return ctx.withEngine(cmd, func(runCtx context.Context, engine *queue.Engine) error {
				reset, err := engine.ResetInProgress(runCtx, key, ids...)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(reset) == 0 {
					fmt.Fprintf(out, "No in-progress items in %s\n", key)
					return nil
				}
				fmt.Fprintf(out, "Reset %d items of %s to pending: %s\n", len(reset), key, formatIDs(reset))
				return nil
			})
		},
	}
}
