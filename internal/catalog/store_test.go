package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/quaddelta/catalog/internal/domain"
)

var testDBSeq int64

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:storetest%d?mode=memory&cache=shared", atomic.AddInt64(&testDBSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(domain.Tables...))
	return db
}

func newTestStore(t *testing.T) (*ProductStore, *AuditRecorder, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	recorder := NewAuditRecorder(db)
	store := NewProductStore(db, recorder, nil)
	return store, recorder, db
}

func countAudit(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&domain.AuditLog{}).Count(&n).Error)
	return n
}

func countProducts(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&domain.Product{}).Count(&n).Error)
	return n
}

func latestAudit(t *testing.T, db *gorm.DB) domain.AuditLog {
	t.Helper()
	var entry domain.AuditLog
	require.NoError(t, db.Order("id DESC").First(&entry).Error)
	return entry
}

func TestCreateAssignsDefaults(t *testing.T) {
	store, _, _ := newTestStore(t)

	first, err := store.Create(context.Background(), CreateInput{Sku: "A1", Name: "Widget", Price: 9.99})
	require.NoError(t, err)
	assert.True(t, first.IsActive)
	assert.True(t, first.CreatedAt.Equal(first.UpdatedAt))
	assert.Greater(t, first.ID, int64(0))

	second, err := store.Create(context.Background(), CreateInput{Sku: "A2", Name: "Gadget", Price: 1})
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)
}

func TestCreateValidation(t *testing.T) {
	store, _, db := newTestStore(t)

	cases := []CreateInput{
		{Sku: "", Name: "Widget", Price: 1},
		{Sku: "  ", Name: "Widget", Price: 1},
		{Sku: "A1", Name: "", Price: 1},
		{Sku: "A1", Name: "Widget", Price: -0.01},
	}
	for _, in := range cases {
		_, err := store.Create(context.Background(), in)
		require.Error(t, err)
		_, ok := AsValidation(err)
		assert.True(t, ok, "expected validation error for %+v", in)
	}

	assert.EqualValues(t, 0, countProducts(t, db))
	assert.EqualValues(t, 0, countAudit(t, db))
}

func TestCreateWritesInsertAudit(t *testing.T) {
	store, _, db := newTestStore(t)

	p, err := store.Create(context.Background(), CreateInput{Sku: "A1", Name: "Widget", Price: 9.99})
	require.NoError(t, err)
	require.EqualValues(t, 1, countAudit(t, db))

	entry := latestAudit(t, db)
	assert.Equal(t, TableProducts, entry.Table)
	assert.Equal(t, domain.AuditActionInsert, entry.Action)
	assert.Nil(t, entry.ChangedBy)
	assert.WithinDuration(t, p.CreatedAt, entry.ChangedAt, time.Second)

	var row map[string]interface{}
	require.NoError(t, json.Unmarshal(entry.RowData, &row))
	assert.Equal(t, "A1", row["sku"])
	assert.Equal(t, "Widget", row["name"])
	assert.InDelta(t, 9.99, row["price"], 0.0001)
}

func TestGetRoundTrip(t *testing.T) {
	store, _, _ := newTestStore(t)

	created, err := store.Create(context.Background(), CreateInput{Sku: "A1", Name: "Widget", Price: 9.99})
	require.NoError(t, err)

	got, err := store.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.Sku, got.Sku)
	assert.Equal(t, created.Name, got.Name)
	assert.Equal(t, created.Price, got.Price)
	assert.Equal(t, created.IsActive, got.IsActive)
	assert.WithinDuration(t, created.CreatedAt, got.CreatedAt, time.Second)
	assert.WithinDuration(t, created.UpdatedAt, got.UpdatedAt, time.Second)
}

func TestGetNotFound(t *testing.T) {
	store, _, _ := newTestStore(t)

	_, err := store.Get(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListOrderedByID(t *testing.T) {
	store, _, _ := newTestStore(t)

	for i := 0; i < 3; i++ {
		_, err := store.Create(context.Background(), CreateInput{
			Sku:   fmt.Sprintf("SKU-%d", i),
			Name:  fmt.Sprintf("Item %d", i),
			Price: float64(i),
		})
		require.NoError(t, err)
	}

	rows, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for i := 1; i < len(rows); i++ {
		assert.Greater(t, rows[i].ID, rows[i-1].ID)
	}
}

func TestUpdateCapturesPrePostImage(t *testing.T) {
	store, _, db := newTestStore(t)

	created, err := store.Create(context.Background(), CreateInput{Sku: "A1", Name: "Widget", Price: 9.99})
	require.NoError(t, err)

	updated, err := store.Update(context.Background(), created.ID, UpdateInput{
		Sku: "A1", Name: "Widget", Price: 12.5, IsActive: false,
	})
	require.NoError(t, err)
	assert.Equal(t, 12.5, updated.Price)
	assert.False(t, updated.IsActive)
	assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))

	require.EqualValues(t, 2, countAudit(t, db))
	entry := latestAudit(t, db)
	assert.Equal(t, domain.AuditActionUpdate, entry.Action)

	var envelope struct {
		Old map[string]interface{} `json:"old"`
		New map[string]interface{} `json:"new"`
	}
	require.NoError(t, json.Unmarshal(entry.RowData, &envelope))
	assert.InDelta(t, 9.99, envelope.Old["price"], 0.0001)
	assert.InDelta(t, 12.5, envelope.New["price"], 0.0001)
	assert.Equal(t, true, envelope.Old["isActive"])
	assert.Equal(t, false, envelope.New["isActive"])
}

func TestUpdateNotFound(t *testing.T) {
	store, _, db := newTestStore(t)

	_, err := store.Update(context.Background(), 999, UpdateInput{Sku: "A1", Name: "Widget", Price: 1, IsActive: true})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualValues(t, 0, countAudit(t, db))
}

func TestUpdateValidationLeavesNoAudit(t *testing.T) {
	store, _, db := newTestStore(t)

	created, err := store.Create(context.Background(), CreateInput{Sku: "A1", Name: "Widget", Price: 1})
	require.NoError(t, err)
	before := countAudit(t, db)

	_, err = store.Update(context.Background(), created.ID, UpdateInput{Sku: "", Name: "Widget", Price: 1, IsActive: true})
	require.Error(t, err)
	_, ok := AsValidation(err)
	assert.True(t, ok)
	assert.Equal(t, before, countAudit(t, db))
}

func TestDeleteRecordsPreImage(t *testing.T) {
	store, _, db := newTestStore(t)

	created, err := store.Create(context.Background(), CreateInput{Sku: "A1", Name: "Widget", Price: 9.99})
	require.NoError(t, err)

	require.NoError(t, store.Delete(context.Background(), created.ID))

	_, err = store.Get(context.Background(), created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	entry := latestAudit(t, db)
	assert.Equal(t, domain.AuditActionDelete, entry.Action)

	var row map[string]interface{}
	require.NoError(t, json.Unmarshal(entry.RowData, &row))
	assert.Equal(t, "A1", row["sku"])
}

func TestDeleteIdempotentNotFound(t *testing.T) {
	store, _, db := newTestStore(t)

	created, err := store.Create(context.Background(), CreateInput{Sku: "A1", Name: "Widget", Price: 1})
	require.NoError(t, err)
	require.NoError(t, store.Delete(context.Background(), created.ID))
	after := countAudit(t, db)

	assert.ErrorIs(t, store.Delete(context.Background(), created.ID), ErrNotFound)
	assert.ErrorIs(t, store.Delete(context.Background(), created.ID), ErrNotFound)
	assert.Equal(t, after, countAudit(t, db))
}

// A failed audit append must roll back the whole mutation: dropping the
// audit table makes the in-transaction append fail, and the product insert
// must not survive it.
func TestAuditFailureRollsBackMutation(t *testing.T) {
	store, _, db := newTestStore(t)

	require.NoError(t, db.Migrator().DropTable(&domain.AuditLog{}))

	_, err := store.Create(context.Background(), CreateInput{Sku: "A1", Name: "Widget", Price: 1})
	require.Error(t, err)
	assert.EqualValues(t, 0, countProducts(t, db))
}
