package command

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/hemanthl7/auto-trade-bot/internal/models"
)

// Delimiter separates the fields of a wire command. No field may contain it.
const Delimiter = "|"

// FieldCount is the fixed number of fields in a wire command.
const FieldCount = 11

// ActionTypeTrade is the constant first field of every command.
const ActionTypeTrade = "TRADE"

// ErrMalformedCommand is returned when a wire command does not split into
// exactly FieldCount fields.
var ErrMalformedCommand = errors.New("malformed command")

// OrderType is the order-type tag understood by the execution client.
type OrderType string

const (
	OrderTypeBuyLimit  OrderType = "OP_BUYLIMIT"
	OrderTypeSellLimit OrderType = "OP_SELLLIMIT"
	OrderTypeBuy       OrderType = "OP_BUY"
	OrderTypeSell      OrderType = "OP_SELL"
)

// ActionTag is the action tag understood by the execution client.
type ActionTag string

const (
	ActionOpen         ActionTag = "OPEN"
	ActionClosePartial ActionTag = "CLOSE_PARTIAL"
	ActionClose        ActionTag = "CLOSE"
	ActionModify       ActionTag = "MODIFY"
)

// Fixed values carried by every encoded command.
const (
	defaultStopLoss   = "0"
	defaultTakeProfit = "0"
	defaultComment    = "auto trade"
	defaultLots       = "0.01"
	defaultMagic      = "12345"
	defaultTicket     = "0"
)

// Command is the structured form of the pipe-delimited instruction the
// execution client consumes.
type Command struct {
	ActionType string
	Action     ActionTag
	OrderType  OrderType
	Symbol     string
	Price      string
	StopLoss   string
	TakeProfit string
	Comment    string
	Lots       string
	Magic      string
	Ticket     string
}

// String serializes the command in fixed field order.
func (c *Command) String() string {
	return strings.Join([]string{
		c.ActionType,
		string(c.Action),
		string(c.OrderType),
		c.Symbol,
		c.Price,
		c.StopLoss,
		c.TakeProfit,
		c.Comment,
		c.Lots,
		c.Magic,
		c.Ticket,
	}, Delimiter)
}

// IsClose reports whether the command closes a position and therefore needs
// its ticket field resolved before delivery.
func (c *Command) IsClose() bool {
	return c.Action == ActionClose || c.Action == ActionClosePartial
}

// mapOperation maps a signal operation to an order-type tag. Unrecognized
// operations fall back to a sell order; the execution client has always
// relied on that default, so it is logged rather than rejected.
func mapOperation(operation string) OrderType {
	switch strings.ToLower(operation) {
	case "buy":
		return OrderTypeBuyLimit
	case "sell":
		return OrderTypeSellLimit
	case "buy_market":
		return OrderTypeBuy
	case "sell_market":
		return OrderTypeSell
	default:
		log.Printf("Unrecognized operation %q, defaulting to %s", operation, OrderTypeSell)
		return OrderTypeSell
	}
}

// mapAction maps a signal action to an action tag. Same fall-through
// contract as mapOperation.
func mapAction(action string) ActionTag {
	switch strings.ToLower(action) {
	case "open":
		return ActionOpen
	case "close":
		return ActionClosePartial
	case "close_market":
		return ActionClose
	case "modify":
		return ActionModify
	default:
		log.Printf("Unrecognized action %q, defaulting to %s", action, ActionModify)
		return ActionModify
	}
}

// Encode builds the wire command for a signal. ticket overrides the ticket
// field; pass "" for the default. Pure besides the fallback logging.
func Encode(sig *models.Signal, ticket string) string {
	lots := defaultLots
	if sig.Volume != "" {
		lots = sig.Volume.String()
	}
	if ticket == "" {
		ticket = defaultTicket
	}

	cmd := Command{
		ActionType: ActionTypeTrade,
		Action:     mapAction(sig.Action),
		OrderType:  mapOperation(sig.Operation),
		Symbol:     sig.Symbol,
		Price:      sig.Price.String(),
		StopLoss:   defaultStopLoss,
		TakeProfit: defaultTakeProfit,
		Comment:    defaultComment,
		Lots:       lots,
		Magic:      defaultMagic,
		Ticket:     ticket,
	}
	return cmd.String()
}

// Decode parses a wire command back into its structured form.
func Decode(s string) (*Command, error) {
	fields := strings.Split(s, Delimiter)
	if len(fields) != FieldCount {
		return nil, fmt.Errorf("%w: got %d fields, want %d", ErrMalformedCommand, len(fields), FieldCount)
	}

	return &Command{
		ActionType: fields[0],
		Action:     ActionTag(fields[1]),
		OrderType:  OrderType(fields[2]),
		Symbol:     fields[3],
		Price:      fields[4],
		StopLoss:   fields[5],
		TakeProfit: fields[6],
		Comment:    fields[7],
		Lots:       fields[8],
		Magic:      fields[9],
		Ticket:     fields[10],
	}, nil
}
