package services

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hemanthl7/auto-trade-bot/internal/config"
	"github.com/hemanthl7/auto-trade-bot/internal/models"
)

// NotifyService forwards accepted signals to downstream notification
// endpoints. Delivery is fire-and-forget; a failed notification never
// blocks or fails the webhook.
type NotifyService struct {
	client *resty.Client
	config *config.Config
}

// NewNotifyService creates a new notify service
func NewNotifyService() *NotifyService {
	return &NotifyService{
		client: resty.New().SetTimeout(10 * time.Second),
		config: nil, // Will be set later
	}
}

// SetConfig sets the configuration for the notify service
func (s *NotifyService) SetConfig(cfg *config.Config) {
	s.config = cfg
}

// NotifySignal forwards a signal record to all active endpoints.
func (s *NotifyService) NotifySignal(record *models.SignalRecord) error {
	if s.config == nil {
		return fmt.Errorf("configuration not set")
	}

	for _, endpoint := range s.config.Endpoints {
		if !endpoint.IsActive {
			continue
		}

		go func(ep config.EndpointConfig) {
			if err := s.notifyEndpoint(record, ep); err != nil {
				log.Printf("Failed to notify %s (%s): %v", ep.Name, ep.Type, err)
			}
		}(endpoint)
	}

	return nil
}

// notifyEndpoint forwards a signal record to a specific endpoint
func (s *NotifyService) notifyEndpoint(record *models.SignalRecord, endpoint config.EndpointConfig) error {
	switch endpoint.Type {
	case "telegram":
		return s.notifyTelegram(record, endpoint)
	case "webhook":
		return s.notifyWebhook(record, endpoint)
	default:
		return fmt.Errorf("unsupported endpoint type: %s", endpoint.Type)
	}
}

// notifyTelegram sends a signal summary to Telegram
func (s *NotifyService) notifyTelegram(record *models.SignalRecord, endpoint config.EndpointConfig) error {
	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", endpoint.Token)
	payload := map[string]interface{}{
		"chat_id":    endpoint.ChatID,
		"text":       s.formatMessage(record),
		"parse_mode": "HTML",
	}

	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(url)

	if err != nil {
		return fmt.Errorf("telegram API request failed: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("telegram API returned status %d: %s", resp.StatusCode(), resp.String())
	}

	return nil
}

// notifyWebhook posts the full signal record to a generic webhook
func (s *NotifyService) notifyWebhook(record *models.SignalRecord, endpoint config.EndpointConfig) error {
	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(record).
		Post(endpoint.URL)

	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode(), resp.String())
	}

	return nil
}

// formatMessage builds a plain-text summary of a signal record
func (s *NotifyService) formatMessage(record *models.SignalRecord) string {
	status := "enqueued"
	if record.Duplicate {
		status = "duplicate (coalesced)"
	}
	return fmt.Sprintf("Signal %s %s %s @ %s lots %s (%s)",
		record.Action, record.Operation, record.Symbol, record.Price, record.Volume, status)
}
