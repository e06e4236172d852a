// Package tickets tracks open order tickets per trading symbol so that an
// ambiguous close instruction can be resolved to a concrete ticket. Backed by
// Redis: each symbol keys a list of its open tickets, and each ticket keys
// the symbol it belongs to for reverse lookup. All keys live under the
// tickets: namespace because the dispatch queue shares the same Redis DB.
package tickets

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"
)

const (
	symbolKeyPrefix = "tickets:open:"
	ticketKeyPrefix = "tickets:symbol:"
)

// symbolKey is the list of open tickets for a symbol.
func symbolKey(symbol string) string {
	return symbolKeyPrefix + symbol
}

// ticketKey is the reverse index from a ticket to its symbol.
func ticketKey(ticket string) string {
	return ticketKeyPrefix + ticket
}

// Registry is the per-symbol open-ticket bookkeeping. When disabled, every
// operation is a silent no-op — registry operations never surface errors,
// absent state is always "none".
type Registry struct {
	rdb     *redis.Client
	enabled bool
}

// NewRegistry creates a ticket registry. Pass enabled=false to turn the
// registry into a no-op (deployments without the ticket store).
func NewRegistry(rdb *redis.Client, enabled bool) *Registry {
	return &Registry{rdb: rdb, enabled: enabled}
}

// Register records ticket as open for symbol. The ticket is prepended to the
// symbol's list and indexed back to the symbol. Registering the same ticket
// twice leaves a duplicate list entry; resolution always takes the head.
func (r *Registry) Register(ctx context.Context, symbol, ticket string) {
	if !r.enabled || symbol == "" || ticket == "" {
		return
	}
	if err := r.rdb.LPush(ctx, symbolKey(symbol), ticket).Err(); err != nil {
		log.Printf("Failed to register ticket %s for %s: %v", ticket, symbol, err)
		return
	}
	if err := r.rdb.Set(ctx, ticketKey(ticket), symbol, 0).Err(); err != nil {
		log.Printf("Failed to index ticket %s: %v", ticket, err)
	}
}

// Unregister removes one occurrence of ticket from its symbol's list and
// drops the reverse index. Silent no-op for unknown tickets.
func (r *Registry) Unregister(ctx context.Context, ticket string) {
	if !r.enabled || ticket == "" {
		return
	}
	symbol, err := r.rdb.Get(ctx, ticketKey(ticket)).Result()
	if err == redis.Nil {
		return
	}
	if err != nil {
		log.Printf("Failed to look up ticket %s: %v", ticket, err)
		return
	}
	if err := r.rdb.LRem(ctx, symbolKey(symbol), 1, ticket).Err(); err != nil {
		log.Printf("Failed to remove ticket %s from %s: %v", ticket, symbol, err)
	}
	if err := r.rdb.Del(ctx, ticketKey(ticket)).Err(); err != nil {
		log.Printf("Failed to drop index for ticket %s: %v", ticket, err)
	}
}

// ResolveOpenTicket returns one open ticket for symbol, or ("", false) when
// none is registered or the registry is disabled. The ticket stays
// registered; only an explicit Unregister removes it.
func (r *Registry) ResolveOpenTicket(ctx context.Context, symbol string) (string, bool) {
	if !r.enabled || symbol == "" {
		return "", false
	}
	ticket, err := r.rdb.LIndex(ctx, symbolKey(symbol), 0).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		log.Printf("Failed to resolve open ticket for %s: %v", symbol, err)
		return "", false
	}
	return ticket, true
}
