package models

import (
	"time"

	"gorm.io/gorm"
)

// SignalRecord is the persisted audit trail of every accepted webhook signal.
type SignalRecord struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	Symbol     string         `json:"symbol" gorm:"index"`
	Operation  string         `json:"operation"`
	Action     string         `json:"action"`
	Price      string         `json:"price"`
	Volume     string         `json:"volume"`
	SignalTime string         `json:"signal_time"`
	DedupKey   string         `json:"dedup_key" gorm:"index"`
	Command    string         `json:"command" gorm:"type:text"`
	Duplicate  bool           `json:"duplicate"`
	RawPayload string         `json:"raw_payload" gorm:"type:text"`
	Status     string         `json:"status" gorm:"default:'enqueued'"` // enqueued, duplicate, failed
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
