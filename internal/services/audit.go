package services

import (
	"github.com/hemanthl7/auto-trade-bot/internal/database"
	"github.com/hemanthl7/auto-trade-bot/internal/models"
	"github.com/hemanthl7/auto-trade-bot/internal/queue"
	"gorm.io/gorm"
)

// AuditService persists the trail of accepted webhook signals.
type AuditService struct {
	db *gorm.DB
}

// NewAuditService creates a new audit service
func NewAuditService() *AuditService {
	return &AuditService{
		db: database.GetDB(),
	}
}

// RecordSignal saves an accepted signal together with its encoded command
// and the broker receipt.
func (s *AuditService) RecordSignal(sig *models.Signal, cmd string, receipt *queue.Receipt, rawPayload string) (*models.SignalRecord, error) {
	record := &models.SignalRecord{
		Symbol:     sig.Symbol,
		Operation:  sig.Operation,
		Action:     sig.Action,
		Price:      sig.Price.String(),
		Volume:     sig.Volume.String(),
		SignalTime: sig.Time,
		DedupKey:   sig.DedupKey(),
		Command:    cmd,
		RawPayload: rawPayload,
		Status:     "enqueued",
	}
	if receipt != nil && receipt.Duplicate {
		record.Duplicate = true
		record.Status = "duplicate"
	}

	if err := s.db.Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// RecordFailure saves a signal whose enqueue failed at the broker.
func (s *AuditService) RecordFailure(sig *models.Signal, rawPayload string) (*models.SignalRecord, error) {
	record := &models.SignalRecord{
		Symbol:     sig.Symbol,
		Operation:  sig.Operation,
		Action:     sig.Action,
		Price:      sig.Price.String(),
		Volume:     sig.Volume.String(),
		SignalTime: sig.Time,
		DedupKey:   sig.DedupKey(),
		RawPayload: rawPayload,
		Status:     "failed",
	}

	if err := s.db.Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// GetSignals retrieves signal records with pagination and optional symbol filter
func (s *AuditService) GetSignals(page, limit int, symbol string) ([]models.SignalRecord, int64, error) {
	var records []models.SignalRecord
	var total int64

	query := s.db.Model(&models.SignalRecord{})
	if symbol != "" {
		query = query.Where("symbol = ?", symbol)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Offset(offset).Limit(limit).Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}
