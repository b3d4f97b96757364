package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/quaddelta/catalog/config"
	"github.com/quaddelta/catalog/internal/catalog"
	"github.com/quaddelta/catalog/internal/domain"
)

func getDatabase(cfg config.DBConfig, workdir string) *gorm.DB {
	gormConfig := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	}
	if cfg.Debug {
		gormConfig.Logger = gormlogger.Default.LogMode(gormlogger.Info)
	}

	var db *gorm.DB
	var err error
	switch cfg.Type {
	case "sqlite":
		dbfile := filepath.Join(workdir, "catalog.db")
		db, err = gorm.Open(sqlite.Open(dbfile), gormConfig)
	default:
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
			cfg.Host, cfg.User, cfg.Passwd, cfg.Name, cfg.Port)
		db, err = gorm.Open(postgres.Open(dsn), gormConfig)
	}
	if err != nil {
		zap.S().Fatalf("database connect error: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		zap.S().Fatalf("database handle error: %v", err)
	}
	if cfg.MaxConn > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxConn)
	}
	if cfg.IdleConn > 0 {
		sqlDB.SetMaxIdleConns(cfg.IdleConn)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db
}

// checkDemoProducts seeds a few demo catalog rows on an empty database.
// Seeding goes through the store so the rows get audit entries like any
// other mutation.
func (a *Application) checkDemoProducts() {
	var count int64
	if err := a.gormDB.Model(&domain.Product{}).Count(&count).Error; err != nil {
		zap.L().Error("failed to count products", zap.Error(err))
		return
	}
	if count > 0 {
		return
	}

	defaultProducts := []catalog.CreateInput{
		{Sku: "DEMO-001", Name: "demo-widget-basic", Price: 9.99},
		{Sku: "DEMO-002", Name: "demo-widget-pro", Price: 24.5},
		{Sku: "DEMO-003", Name: "demo-service-annual", Price: 199.0},
	}

	for _, in := range defaultProducts {
		if _, err := a.store.Create(context.Background(), in); err != nil {
			zap.L().Error("failed to create demo product", zap.String("sku", in.Sku), zap.Error(err))
		} else {
			zap.L().Info("initialized demo product", zap.String("sku", in.Sku))
		}
	}
}
