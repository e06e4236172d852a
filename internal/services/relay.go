package services

import (
	"context"
	"log"
	"time"

	"github.com/hemanthl7/auto-trade-bot/internal/command"
	"github.com/hemanthl7/auto-trade-bot/internal/config"
	"github.com/hemanthl7/auto-trade-bot/internal/models"
	"github.com/hemanthl7/auto-trade-bot/internal/queue"
)

// CommandQueue is the dispatch queue contract the relay depends on.
type CommandQueue interface {
	Enqueue(ctx context.Context, body, dedupID string) (*queue.Receipt, error)
	DequeueOne(ctx context.Context) (*queue.Entry, error)
}

// TicketStore is the ticket registry contract the relay depends on.
type TicketStore interface {
	Register(ctx context.Context, symbol, ticket string)
	Unregister(ctx context.Context, ticket string)
	ResolveOpenTicket(ctx context.Context, symbol string) (string, bool)
}

// RelayService orchestrates the flow between the webhook source, the
// dispatch queue and the ticket registry.
type RelayService struct {
	queue      CommandQueue
	tickets    TicketStore
	webhookKey string
	staleAfter time.Duration
	pollLimit  int
	now        func() time.Time
}

// NewRelayService creates a relay service over the given queue and registry.
func NewRelayService(q CommandQueue, t TicketStore, cfg *config.Config) *RelayService {
	return &RelayService{
		queue:      q,
		tickets:    t,
		webhookKey: cfg.Auth.WebhookKey,
		staleAfter: cfg.Queue.StaleAfter(),
		pollLimit:  cfg.Queue.PollLimit(),
		now:        time.Now,
	}
}

// HandleSignal validates, encodes and enqueues an inbound signal, returning
// the broker receipt and the encoded command. A signal with the wrong auth
// key returns (nil, "", nil): deliberately indistinguishable from success so
// probing clients learn nothing.
func (s *RelayService) HandleSignal(ctx context.Context, sig *models.Signal) (*queue.Receipt, string, error) {
	if sig.AuthKey != s.webhookKey {
		log.Printf("Dropping signal for %s: auth key mismatch", sig.Symbol)
		return nil, "", nil
	}

	body := command.Encode(sig, "")
	receipt, err := s.queue.Enqueue(ctx, body, sig.DedupKey())
	if err != nil {
		return nil, "", err
	}
	return receipt, body, nil
}

// NextCommand returns the next actionable command for the execution client,
// or "" when the queue holds nothing fresh. Messages older than the
// staleness threshold are discarded, not re-delivered; the loop keeps
// polling until a fresh message appears, the queue reports empty, or the
// iteration bound is hit. Close commands get their ticket field resolved
// from the registry before delivery.
func (s *RelayService) NextCommand(ctx context.Context) (string, error) {
	for i := 0; i < s.pollLimit; i++ {
		entry, err := s.queue.DequeueOne(ctx)
		if err != nil {
			return "", err
		}
		if entry == nil {
			return "", nil
		}

		if entry.Age(s.now()) > s.staleAfter {
			log.Printf("Discarding stale command (age %s, dedup %s)", entry.Age(s.now()), entry.DedupID)
			continue
		}

		cmd, err := command.Decode(entry.Body)
		if err != nil {
			return "", err
		}
		if cmd.IsClose() {
			// The encoded ticket stays at its default when no open ticket is
			// registered; the execution client decides what "0" means.
			if ticket, ok := s.tickets.ResolveOpenTicket(ctx, cmd.Symbol); ok {
				cmd.Ticket = ticket
			}
			return cmd.String(), nil
		}
		return entry.Body, nil
	}

	log.Printf("Dequeue poll limit (%d) reached with only stale messages", s.pollLimit)
	return "", nil
}

// RegisterTicket records a ticket the execution client just opened.
func (s *RelayService) RegisterTicket(ctx context.Context, notice *models.TicketNotice) {
	s.tickets.Register(ctx, notice.Symbol, notice.Ticket)
}

// CloseTicket removes a ticket the execution client just closed.
func (s *RelayService) CloseTicket(ctx context.Context, notice *models.TicketNotice) {
	s.tickets.Unregister(ctx, notice.Ticket)
}
