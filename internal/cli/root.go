// Package cli visitctl 的 cobra 命令树
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"pharmadms/config"
	"pharmadms/internal/repository"
	"pharmadms/pkg/database"
	applogger "pharmadms/pkg/logger"
)

var (
	flagConfig string
	flagFormat string
)

// NewRootCmd 创建根命令与全局参数
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "visitctl",
		Short:         "Visit plan maintenance tool",
		Long:          "Operator tool for the visit plan service: run migrations, import spreadsheets offline, write the import template, preview resolved visit dates and list a representative's plans.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", "", "config file path (default: ./config/config.yaml)")
	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")

	root.AddCommand(
		newMigrateCmd(),
		newImportCmd(),
		newTemplateCmd(),
		newPreviewCmd(),
		newPlansCmd(),
	)

	return root
}

// env 需要数据库的子命令共用的运行环境
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
	repo   *repository.Repository
}

// openEnv 测试中替换为 SQLite 环境
var openEnv = connectEnv

func connectEnv() (*env, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, err
	}
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	return &env{cfg: cfg, logger: logger, db: db, repo: repository.NewRepository(db)}, nil
}

func (e *env) close() {
	if err := database.Close(e.db); err != nil {
		e.logger.Warn("关闭数据库连接失败", zap.Error(err))
	}
	_ = e.logger.Sync()
}

func isJSON() bool {
	return flagFormat == "json"
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}
