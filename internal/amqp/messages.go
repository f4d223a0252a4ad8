package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Ledger change operations carried by LedgerChangedMessage.
const (
	OpCreated       = "created"
	OpStatusChanged = "status_changed"
	OpDeleted       = "deleted"
)

// LedgerChangedMessage tells subscribers the store's transaction set moved.
// It carries no row data; receivers refetch.
type LedgerChangedMessage struct {
	Op        string    `json:"op"`
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerChangedMessage creates a message stamped with the current time.
func NewLedgerChangedMessage(op, name string) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		Op:        op,
		Name:      name,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangedMessageFromJSON decodes a message and checks its op.
func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Op {
	case OpCreated, OpStatusChanged, OpDeleted:
	default:
		return nil, fmt.Errorf("unknown ledger op %q", msg.Op)
	}
	return &msg, nil
}
