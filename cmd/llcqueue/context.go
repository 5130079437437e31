package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"llcqueue/internal/config"
	"llcqueue/internal/logging"
	"llcqueue/internal/queue"
	"llcqueue/internal/status"
)

type commandContext struct {
	configFlag     *string
	statusFileFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, statusFileFlag *string) *commandContext {
	return &commandContext{
		configFlag:     configFlag,
		statusFileFlag: statusFileFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.statusFileFlag != nil {
			if override := strings.TrimSpace(*c.statusFileFlag); override != "" {
				expanded, err := config.ExpandPath(override)
				if err != nil {
					c.configErr = fmt.Errorf("resolve status file: %w", err)
					return
				}
				cfg.Paths.StatusFile = expanded
			}
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// withEngine opens the engine for one command invocation. The context carries
// a fresh correlation id shared by log lines and journal entries.
func (c *commandContext) withEngine(cmd *cobra.Command, fn func(context.Context, *queue.Engine) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}
	engine, err := queue.Open(cfg, queue.WithLogger(logger))
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(logging.WithCorrelationID(ctx, ""), engine)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

// parseKeyArgs reads the leading PROCESS VARIABLE pair. A single
// "process.variable" argument is accepted too; rest holds what follows.
func parseKeyArgs(args []string) (status.Key, []string, error) {
	if len(args) == 0 {
		return status.Key{}, nil, fmt.Errorf("%w: PROCESS VARIABLE is required", queue.ErrInvalidInput)
	}
	if strings.Contains(args[0], ".") {
		key, err := status.ParseKey(args[0])
		if err != nil {
			return status.Key{}, nil, fmt.Errorf("%w: %v", queue.ErrInvalidInput, err)
		}
		return key, args[1:], nil
	}
	if len(args) < 2 {
		return status.Key{}, nil, fmt.Errorf("%w: VARIABLE is required after %q", queue.ErrInvalidInput, args[0])
	}
	key := status.NewKey(args[0], args[1])
	if !key.Valid() {
		return status.Key{}, nil, fmt.Errorf("%w: process and variable must be non-empty", queue.ErrInvalidInput)
	}
	return key, args[2:], nil
}

func parseSingleID(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%w: exactly one item id is required", queue.ErrInvalidInput)
	}
	ids, err := queue.ParseItemIDs(args[0])
	if err != nil {
		return 0, err
	}
	if len(ids) != 1 {
		return 0, fmt.Errorf("%w: %q names %d items, expected one", queue.ErrInvalidInput, args[0], len(ids))
	}
	return ids[0], nil
}
