package domain

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// AuditAction identifies the kind of mutation an audit entry records.
type AuditAction string

const (
	AuditActionInsert AuditAction = "INSERT"
	AuditActionUpdate AuditAction = "UPDATE"
	AuditActionDelete AuditAction = "DELETE"
)

// RowData carries the audited row payload as raw JSON. INSERT and DELETE
// entries hold the row itself; UPDATE entries hold an {old,new} envelope.
type RowData []byte

func (d RowData) Value() (driver.Value, error) {
	if len(d) == 0 {
		return nil, nil
	}
	return string(d), nil
}

func (d *RowData) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*d = nil
	case []byte:
		*d = append((*d)[0:0], v...)
	case string:
		*d = RowData(v)
	default:
		return fmt.Errorf("unsupported row data type %T", value)
	}
	return nil
}

func (d RowData) MarshalJSON() ([]byte, error) {
	if len(d) == 0 {
		return []byte("null"), nil
	}
	return d, nil
}

func (d *RowData) UnmarshalJSON(data []byte) error {
	*d = append((*d)[0:0], data...)
	return nil
}

// AuditLog is one append-only change record. Rows are only ever inserted,
// never updated or deleted.
type AuditLog struct {
	ID        int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	Table     string      `gorm:"column:table_name;size:64;index" json:"tableName"`
	Action    AuditAction `gorm:"size:16;index" json:"action"`
	RowData   RowData     `gorm:"type:text" json:"rowData"`
	ChangedAt time.Time   `gorm:"index" json:"changedAt"`
	ChangedBy *string     `gorm:"size:128" json:"changedBy"`
}

// TableName Specify table name
func (AuditLog) TableName() string {
	return "audit_log"
}
