package app

import (
	"github.com/asaskevich/EventBus"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/quaddelta/catalog/config"
	"github.com/quaddelta/catalog/internal/catalog"
)

// DBProvider provides database access
type DBProvider interface {
	DB() *gorm.DB
}

// ConfigProvider provides application configuration
type ConfigProvider interface {
	Config() *config.AppConfig
}

// BusProvider provides the in-process event bus
type BusProvider interface {
	Bus() EventBus.Bus
}

// SchedulerProvider provides task scheduling capability
type SchedulerProvider interface {
	Scheduler() *cron.Cron
}

// CatalogProvider provides the catalog core components
type CatalogProvider interface {
	ProductStore() *catalog.ProductStore
	AuditRecorder() *catalog.AuditRecorder
}

// AppContext combines all provider interfaces for full application context.
// Handlers and services should depend on specific providers or this
// combined interface.
type AppContext interface {
	DBProvider
	ConfigProvider
	BusProvider
	SchedulerProvider
	CatalogProvider

	// Application lifecycle methods
	MigrateDB(track bool) error
	InitDb()
	DropAll()
}
