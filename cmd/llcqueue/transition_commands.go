package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"llcqueue/internal/queue"
	"llcqueue/internal/status"
)

func newTransitionCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newAppendCommand(ctx),
		newClaimCommand(ctx),
		newSucceedCommand(ctx),
		newFailCommand(ctx),
	}
}

func newAppendCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "append PROCESS VARIABLE IDS...",
		Short: "Add items to a pair's pending list",
		Long: `Add items to the end of a pair's pending list. Items the pair already
tracks in any list are skipped, so repeating an append is harmless.

IDS may be single ids (7), comma lists (1,2,5), or inclusive ranges (10-14).`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, rest, err := parseKeyArgs(args)
			if err != nil {
				return err
			}
			ids, err := queue.ParseItemIDs(rest...)
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				return fmt.Errorf("%w: at least one item id is required", queue.ErrInvalidInput)
			}
			return ctx.withEngine(cmd, func(runCtx context.Context, engine *queue.Engine) error {
				added, err := engine.AppendPending(runCtx, key, ids...)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Added %d of %d items to %s\n", len(added), len(ids), key)
				if len(added) > 0 {
					fmt.Fprintf(out, "Added: %s\n", formatIDs(added))
				}
				return nil
			})
		},
	}
}

func newClaimCommand(ctx *commandContext) *cobra.Command {
	var next bool
	cmd := &cobra.Command{
		Use:   "claim PROCESS VARIABLE [ID]",
		Short: "Move a pending item to in progress",
		Long: `Move a pending item to in progress. Exits with status 2 when the item is
no longer pending, which means another worker claimed it first.

With --next the first pending item is claimed and its id alone is printed,
so scripts can capture it: id=$(llcqueue claim --next downloads velocity).`,
		Args: cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, rest, err := parseKeyArgs(args)
			if err != nil {
				return err
			}
			if next {
				if len(rest) != 0 {
					return fmt.Errorf("%w: --next does not take an item id", queue.ErrInvalidInput)
				}
				return ctx.withEngine(cmd, func(runCtx context.Context, engine *queue.Engine) error {
					id, err := engine.ClaimNext(runCtx, key)
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), id)
					return nil
				})
			}
			id, err := parseSingleID(rest)
			if err != nil {
				return err
			}
			return ctx.withEngine(cmd, func(runCtx context.Context, engine *queue.Engine) error {
				if err := engine.Claim(runCtx, key, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Claimed item %d of %s\n", id, key)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&next, "next", false, "Claim the first pending item and print its id")
	return cmd
}

func newSucceedCommand(ctx *commandContext) *cobra.Command {
	return newResultCommand(ctx, "succeed", "Mark an in-progress item completed", "Completed",
		func(runCtx context.Context, engine *queue.Engine, cmdArgs resultArgs) error {
			return engine.Succeed(runCtx, cmdArgs.key, cmdArgs.id)
		})
}

func newFailCommand(ctx *commandContext) *cobra.Command {
	return newResultCommand(ctx, "fail", "Return an in-progress item to the front of pending", "Failed",
		func(runCtx context.Context, engine *queue.Engine, cmdArgs resultArgs) error {
			return engine.Fail(runCtx, cmdArgs.key, cmdArgs.id)
		})
}

type resultArgs struct {
	key status.Key
	id  int64
}

func newResultCommand(ctx *commandContext, use, short, verb string, apply func(context.Context, *queue.Engine, resultArgs) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " PROCESS VARIABLE ID",
		Short: short,
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, rest, err := parseKeyArgs(args)
			if err != nil {
				return err
			}
			id, err := parseSingleID(rest)
			if err != nil {
				return err
			}
			return ctx.withEngine(cmd, func(runCtx context.Context, engine *queue.Engine) error {
				if err := apply(runCtx, engine, resultArgs{key: key, id: id}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s item %d of %s\n", verb, id, key)
				return nil
			})
		},
	}
}
