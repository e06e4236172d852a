package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hemanthl7/auto-trade-bot/internal/config"
	"github.com/hemanthl7/auto-trade-bot/internal/models"
	"github.com/hemanthl7/auto-trade-bot/internal/services"
)

// Global handler instance
var globalHandler *RelayHandler

// RelayHandler handles the webhook, dequeue and ticket endpoints
type RelayHandler struct {
	relayService  *services.RelayService
	auditService  *services.AuditService
	notifyService *services.NotifyService
}

// NewRelayHandler creates a new relay handler
func NewRelayHandler(relayService *services.RelayService) *RelayHandler {
	return &RelayHandler{
		relayService:  relayService,
		auditService:  services.NewAuditService(),
		notifyService: services.NewNotifyService(),
	}
}

// SetGlobalHandler sets the global handler instance
func SetGlobalHandler(handler *RelayHandler) {
	globalHandler = handler
}

// GetGlobalHandler returns the global handler instance
func GetGlobalHandler() *RelayHandler {
	return globalHandler
}

// SetConfig sets the configuration for the handler's services
func (h *RelayHandler) SetConfig(cfg *config.Config) {
	h.notifyService.SetConfig(cfg)
}

// HandleWebhook receives a trading signal, encodes it and enqueues the
// resulting command. A signal with the wrong auth key gets an empty success
// body so callers cannot tell it was rejected.
func (h *RelayHandler) HandleWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Printf("Failed to read request body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	var signal models.Signal
	if err := json.Unmarshal(body, &signal); err != nil {
		log.Printf("Failed to parse signal: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse signal"})
		return
	}

	receipt, cmd, err := h.relayService.HandleSignal(c.Request.Context(), &signal)
	if err != nil {
		log.Printf("Failed to enqueue signal for %s: %v", signal.Symbol, err)
		go func(sig models.Signal, raw string) {
			if _, err := h.auditService.RecordFailure(&sig, raw); err != nil {
				log.Printf("Failed to record failed signal: %v", err)
			}
		}(signal, string(body))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enqueue signal"})
		return
	}
	if receipt == nil {
		// Auth mismatch. Empty success on purpose.
		c.JSON(http.StatusOK, gin.H{})
		return
	}

	// Audit trail and downstream notifications, off the request path.
	go func(sig models.Signal, raw string) {
		record, err := h.auditService.RecordSignal(&sig, cmd, receipt, raw)
		if err != nil {
			log.Printf("Failed to record signal: %v", err)
			return
		}
		if err := h.notifyService.NotifySignal(record); err != nil {
			log.Printf("Failed to notify signal: %v", err)
		}
	}(signal, string(body))

	c.JSON(http.StatusOK, gin.H{
		"message":         "Executed Successfully",
		"webhook_message": signal,
		"response":        receipt,
	})
}

// HandleReceive serves the execution client's poll for the next pending
// command. The command goes back as a plain-text body; an empty queue (or
// one holding only stale messages) yields an empty JSON object.
func (h *RelayHandler) HandleReceive(c *gin.Context) {
	cmd, err := h.relayService.NextCommand(c.Request.Context())
	if err != nil {
		log.Printf("Failed to fetch next command: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch next command"})
		return
	}
	if cmd == "" {
		c.JSON(http.StatusOK, gin.H{})
		return
	}

	c.String(http.StatusOK, cmd)
}

// SaveTicket registers a ticket the execution client just opened.
func (h *RelayHandler) SaveTicket(c *gin.Context) {
	notice, err := readTicketNotice(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse ticket payload"})
		return
	}

	h.relayService.RegisterTicket(c.Request.Context(), notice)
	c.Status(http.StatusOK)
}

// DeleteTicket unregisters a ticket the execution client just closed.
func (h *RelayHandler) DeleteTicket(c *gin.Context) {
	notice, err := readTicketNotice(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse ticket payload"})
		return
	}

	h.relayService.CloseTicket(c.Request.Context(), notice)
	c.Status(http.StatusOK)
}

// readTicketNotice parses a ticket payload. The MQL client NUL-pads its
// string buffers, so NUL bytes are stripped before unmarshaling.
func readTicketNotice(c *gin.Context) (*models.TicketNotice, error) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, err
	}
	cleaned := strings.ReplaceAll(string(body), "\x00", "")

	var notice models.TicketNotice
	if err := json.Unmarshal([]byte(cleaned), &notice); err != nil {
		log.Printf("Failed to parse ticket payload: %v", err)
		return nil, err
	}
	return &notice, nil
}

// GetSignals retrieves recorded signals with pagination
func (h *RelayHandler) GetSignals(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	symbol := c.Query("symbol")

	records, total, err := h.auditService.GetSignals(page, limit, symbol)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve signals"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"signals": records,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}
