package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationTable 独立的版本表名，避免与同库其他子系统的迁移记录冲突
const MigrationTable = "visit_planner_schema_migrations"

func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("加载迁移文件失败: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: MigrationTable})
	if err != nil {
		return nil, fmt.Errorf("创建迁移驱动失败: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("初始化迁移实例失败: %w", err)
	}
	return m, nil
}

// RunMigrations 执行数据库迁移
// 自动检测当前版本并应用所有未执行的迁移
func RunMigrations(db *sql.DB, logger *zap.Logger) error {
	m, err := newMigrator(db)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("执行迁移失败: %w", err)
	}

	version, dirty, _ := m.Version()
	if dirty {
		logger.Warn("数据库迁移处于 dirty 状态", zap.Uint("version", version))
	} else {
		logger.Info("数据库迁移完成", zap.Uint("version", version))
	}

	return nil
}

// RollbackMigrations 回滚指定步数的迁移（运维命令使用）
func RollbackMigrations(db *sql.DB, steps int, logger *zap.Logger) error {
	if steps <= 0 {
		return fmt.Errorf("回滚步数必须为正数: %d", steps)
	}

	m, err := newMigrator(db)
	if err != nil {
		return err
	}

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("回滚迁移失败: %w", err)
	}

	version, _, _ := m.Version()
	logger.Info("数据库迁移已回滚", zap.Int("steps", steps), zap.Uint("version", version))
	return nil
}
