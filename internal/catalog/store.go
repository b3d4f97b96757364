package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/asaskevich/EventBus"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/quaddelta/catalog/internal/domain"
	"github.com/quaddelta/catalog/pkg/metrics"
)

// TableProducts is the logical resource name written into audit entries.
const TableProducts = "products"

// TopicAudit is the event bus topic carrying committed audit entries.
const TopicAudit = "catalog.audit"

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// CreateInput carries the caller-settable fields of a new product.
type CreateInput struct {
	Sku   string
	Name  string
	Price float64
}

// UpdateInput replaces all mutable fields of an existing product.
type UpdateInput struct {
	Sku      string
	Name     string
	Price    float64
	IsActive bool
}

func validateFields(sku, name string, price float64) error {
	if strings.TrimSpace(sku) == "" {
		return validationError("sku", "is required")
	}
	if strings.TrimSpace(name) == "" {
		return validationError("name", "is required")
	}
	if price < 0 {
		return validationError("price", "must be >= 0")
	}
	return nil
}

// ProductStore owns the product lifecycle. Every mutation and its audit
// entry run inside a single transaction; a failed audit append rolls the
// mutation back.
type ProductStore struct {
	db       *gorm.DB
	recorder *AuditRecorder
	bus      EventBus.BusPublisher
}

func NewProductStore(db *gorm.DB, recorder *AuditRecorder, bus EventBus.BusPublisher) *ProductStore {
	return &ProductStore{db: db, recorder: recorder, bus: bus}
}

// List returns all products ordered by id ascending.
func (s *ProductStore) List(ctx context.Context) ([]domain.Product, error) {
	var rows []domain.Product
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "query products")
	}
	return rows, nil
}

// Get returns one product or ErrNotFound.
func (s *ProductStore) Get(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	err := s.db.WithContext(ctx).First(&p, id).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrNotFound
	case err != nil:
		return nil, errors.Wrap(err, "query product")
	}
	return &p, nil
}

// Create validates and persists a new product. The product row and its
// INSERT audit entry commit atomically.
func (s *ProductStore) Create(ctx context.Context, in CreateInput) (*domain.Product, error) {
	if err := validateFields(in.Sku, in.Name, in.Price); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p := &domain.Product{
		Sku:       strings.TrimSpace(in.Sku),
		Name:      strings.TrimSpace(in.Name),
		Price:     in.Price,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var entry *domain.AuditLog
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return errors.Wrap(err, "insert product")
		}
		data, err := rowJSON(p)
		if err != nil {
			return err
		}
		entry, err = s.recorder.Record(tx, TableProducts, domain.AuditActionInsert, data, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.Incr("catalog_insert")
	s.publish(entry)
	return p, nil
}

// Update replaces all mutable fields. The pre-image is read inside the same
// transaction before the write so the UPDATE audit entry cannot race a
// concurrent mutation.
func (s *ProductStore) Update(ctx context.Context, id int64, in UpdateInput) (*domain.Product, error) {
	if err := validateFields(in.Sku, in.Name, in.Price); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var updated domain.Product
	var entry *domain.AuditLog
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var old domain.Product
		if err := tx.First(&old, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return errors.Wrap(err, "query product")
		}

		updated = old
		updated.Sku = strings.TrimSpace(in.Sku)
		updated.Name = strings.TrimSpace(in.Name)
		updated.Price = in.Price
		updated.IsActive = in.IsActive
		updated.UpdatedAt = now

		if err := tx.Save(&updated).Error; err != nil {
			return errors.Wrap(err, "update product")
		}

		data, err := updateJSON(&old, &updated)
		if err != nil {
			return err
		}
		entry, err = s.recorder.Record(tx, TableProducts, domain.AuditActionUpdate, data, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.Incr("catalog_update")
	s.publish(entry)
	return &updated, nil
}

// Delete hard-deletes a product, recording its pre-image. A repeated delete
// yields ErrNotFound and leaves no extra audit entry behind.
func (s *ProductStore) Delete(ctx context.Context, id int64) error {
	now := time.Now().UTC()
	var entry *domain.AuditLog
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var old domain.Product
		if err := tx.First(&old, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return errors.Wrap(err, "query product")
		}

		if err := tx.Delete(&domain.Product{}, old.ID).Error; err != nil {
			return errors.Wrap(err, "delete product")
		}

		data, err := rowJSON(&old)
		if err != nil {
			return err
		}
		entry, err = s.recorder.Record(tx, TableProducts, domain.AuditActionDelete, data, now)
		return err
	})
	if err != nil {
		return err
	}

	metrics.Incr("catalog_delete")
	s.publish(entry)
	return nil
}

func (s *ProductStore) publish(entry *domain.AuditLog) {
	if s.bus == nil || entry == nil {
		return
	}
	s.bus.Publish(TopicAudit, entry)
}

func rowJSON(p *domain.Product) (domain.RowData, error) {
	b, err := jsonAPI.Marshal(p)
	if err != nil {
		return nil, errors.Wrap(err, "encode row data")
	}
	return domain.RowData(b), nil
}

type updateEnvelope struct {
	Old *domain.Product `json:"old"`
	New *domain.Product `json:"new"`
}

func updateJSON(old, updated *domain.Product) (domain.RowData, error) {
	b, err := jsonAPI.Marshal(updateEnvelope{Old: old, New: updated})
	if err != nil {
		return nil, errors.Wrap(err, "encode row data")
	}
	return domain.RowData(b), nil
}
