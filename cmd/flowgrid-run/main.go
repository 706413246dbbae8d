// Package main provides a one-shot runner: start a workflow run and wait for
// its terminal status.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/flowgrid/flowgrid/pkg/cmd"
	"github.com/flowgrid/flowgrid/pkg/credentials"
	"github.com/flowgrid/flowgrid/pkg/log"
	"github.com/flowgrid/flowgrid/pkg/models"
	"github.com/flowgrid/flowgrid/pkg/persistence"
	"github.com/flowgrid/flowgrid/pkg/workflow"
)

const pollInterval = 100 * time.Millisecond

func main() {
	logger := log.WithModule("run")

	command := &cli.Command{
		Name:                  "flowgrid-run",
		Usage:                 "Run a workflow to completion and print its results",
		ArgsUsage:             "<workflow-id>",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence (file://, postgres://, redis://)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:  "data",
				Usage: "JSON object seeding the run's initial data scope",
			},
			&cli.StringFlag{
				Name:    "user-id",
				Usage:   "User recorded as the run's initiator",
				Value:   "cli",
				Sources: cli.EnvVars("FLOWGRID_USER_ID"),
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Give up waiting for the run after this long",
				Value: 5 * time.Minute,
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			workflowID := command.Args().First()
			if workflowID == "" {
				return errors.New("workflow id argument is required")
			}

			var triggerData map[string]any
			if raw := command.String("data"); raw != "" {
				if err := json.Unmarshal([]byte(raw), &triggerData); err != nil {
					return fmt.Errorf("invalid --data JSON: %w", err)
				}
			}

			store := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			defer func() {
				if err := store.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus("gochannel", "flowgrid-run", logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			registry := cmd.NewRegistry(logger)
			walker := workflow.NewWalker(logger, registry, credentials.NewResolver(store))
			coordinator := workflow.NewCoordinator(logger, store, eventBus, walker)
			dispatcher := workflow.NewDispatcher(logger, eventBus, store, coordinator)

			dispatchCtx, cancel := context.WithCancel(ctx)
			defer cancel()

			if err := dispatcher.Start(dispatchCtx); err != nil {
				return fmt.Errorf("failed to start dispatcher: %w", err)
			}

			runID, err := coordinator.StartRun(ctx, workflowID, command.String("user-id"), models.RunModeManual, triggerData)
			if err != nil {
				return err
			}

			logger.InfoContext(ctx, "Run dispatched", "run_id", runID, "workflow_id", workflowID)

			run, err := awaitTerminal(ctx, store, runID, command.Duration("timeout"))
			if err != nil {
				return err
			}

			encoded, err := json.MarshalIndent(run, "", "  ")
			if err != nil {
				return err
			}

			fmt.Println(string(encoded))

			if run.Status != models.RunStatusSuccess {
				return fmt.Errorf("run %s finished with status %s: %s", run.ID, run.Status, run.Error)
			}

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		logger.Error("Run failed", "error", err)
		os.Exit(1)
	}
}

func awaitTerminal(ctx context.Context, store persistence.RunRepository, runID string, timeout time.Duration) (*models.Run, error) {
	deadline := time.Now().Add(timeout)

	for {
		run, err := store.RunByID(ctx, runID)
		if err != nil {
			return nil, err
		}

		if run.Status.Terminal() {
			return run, nil
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("run %s did not finish within %s", runID, timeout)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}
