package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Publishing types carried in the AMQP Type property.
const (
	TypeExpenseSync   = "expense.sync"
	TypeExpenseDelete = "expense.delete"
)

// ExpenseSyncMessage asks the worker to mirror an expense.
// It carries only the ID; the worker reloads the row from the store.
type ExpenseSyncMessage struct {
	ID        int64     `json:"id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// ExpenseDeleteMessage asks the worker to drop a mirrored expense.
type ExpenseDeleteMessage struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseSyncMessage(id, version int64) *ExpenseSyncMessage {
	return &ExpenseSyncMessage{ID: id, Version: version, Timestamp: time.Now()}
}

func NewExpenseDeleteMessage(id int64) *ExpenseDeleteMessage {
	return &ExpenseDeleteMessage{ID: id, Timestamp: time.Now()}
}

func (m *ExpenseSyncMessage) ToJSON() ([]byte, error)   { return json.Marshal(m) }
func (m *ExpenseDeleteMessage) ToJSON() ([]byte, error) { return json.Marshal(m) }

func ExpenseSyncMessageFromJSON(data []byte) (*ExpenseSyncMessage, error) {
	var msg ExpenseSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func ExpenseDeleteMessageFromJSON(data []byte) (*ExpenseDeleteMessage, error) {
	var msg ExpenseDeleteMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Handler processes decoded messages from the sync queue.
type Handler interface {
	HandleSync(ctx context.Context, msg *ExpenseSyncMessage) error
	HandleDelete(ctx context.Context, msg *ExpenseDeleteMessage) error
}

// errMalformed marks deliveries that can never succeed and must not be requeued.
var errMalformed = errors.New("malformed message")

// dispatch decodes body according to typ and invokes the matching handler method.
// An empty type is treated as a sync message for compatibility with older publishers.
func dispatch(ctx context.Context, h Handler, typ string, body []byte) error {
	switch typ {
	case TypeExpenseSync, "":
		msg, err := ExpenseSyncMessageFromJSON(body)
		if err != nil {
			return fmt.Errorf("%w: %v", errMalformed, err)
		}
		return h.HandleSync(ctx, msg)
	case TypeExpenseDelete:
		msg, err := ExpenseDeleteMessageFromJSON(body)
		if err != nil {
			return fmt.Errorf("%w: %v", errMalformed, err)
		}
		return h.HandleDelete(ctx, msg)
	default:
		return fmt.Errorf("%w: unknown type %q", errMalformed, typ)
	}
}
