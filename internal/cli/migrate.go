package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"pharmadms/pkg/database"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the given number of migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd, steps)
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd, 0)
		},
	}, down)

	return cmd
}

// runMigrate steps=0 表示升级到最新版本
func runMigrate(cmd *cobra.Command, steps int) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	sqlDB, err := e.db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}

	if steps == 0 {
		err = database.RunMigrations(sqlDB, e.logger)
	} else {
		err = database.RollbackMigrations(sqlDB, steps, e.logger)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "migrations done")
	return nil
}
