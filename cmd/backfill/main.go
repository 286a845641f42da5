// Command backfill re-materializes habit completion records from their logs.
//
//	backfill <habit-id> [habit-id...]
//	backfill --all
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/cppla/habitrack/config"
	"github.com/cppla/habitrack/models"
	"github.com/cppla/habitrack/repository"
	"github.com/cppla/habitrack/utils"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cmd := newBackfillCmd(func() (*gorm.DB, error) {
		cfg := config.Load()
		if err := utils.InitLogger(cfg); err != nil {
			return nil, err
		}
		utils.SetLocation(cfg.Location())
		db, err := config.OpenDatabase(cfg)
		if err != nil {
			return nil, err
		}
		return db, config.Migrate(db, &models.Habit{}, &models.HabitLog{}, &models.HabitCompletion{})
	})
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func newBackfillCmd(open func() (*gorm.DB, error)) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "backfill [habit-id...]",
		Short: "Rebuild completion records from habit logs",
		Long: "Rebuild creates a completion record for every logged date of a habit and " +
			"re-evaluates existing records against their stored targets.",
		SilenceUsage: true,
		Args: func(cmd *cobra.Command, args []string) error {
			switch {
			case all && len(args) > 0:
				return errors.New("pass habit ids or --all, not both")
			case !all && len(args) == 0:
				return errors.New("pass at least one habit id, or --all")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := open()
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return backfill(ctx, cmd, db, all, args)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Rebuild every habit")
	return cmd
}

func backfill(ctx context.Context, cmd *cobra.Command, db *gorm.DB, all bool, ids []string) error {
	if all {
		var err error
		if ids, err = repository.New(db).HabitIDs(ctx); err != nil {
			return fmt.Errorf("list habits: %w", err)
		}
	}

	failed := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := repository.Rebuild(ctx, db, utils.Now, id)
		if err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", id, err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d dates\n", id, n)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d habits failed", failed, len(ids))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "rebuilt %d habits\n", len(ids))
	return nil
}
