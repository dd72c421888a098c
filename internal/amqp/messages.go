package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Action says what the worker should mirror.
type Action string

const (
	ActionUpsert Action = "upsert"
	ActionDelete Action = "delete"
)

// SyncMessage is a lightweight notice that one transaction changed. The
// worker reads the current row from the database; the message only carries
// the id and the version it was published for.
type SyncMessage struct {
	ID        string    `json:"id"`
	Version   int64     `json:"version"`
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSyncMessage creates an upsert message.
func NewSyncMessage(id string, version int64) *SyncMessage {
	return &SyncMessage{ID: id, Version: version, Action: ActionUpsert, Timestamp: time.Now()}
}

// NewDeleteMessage creates a delete message.
func NewDeleteMessage(id string, version int64) *SyncMessage {
	return &SyncMessage{ID: id, Version: version, Action: ActionDelete, Timestamp: time.Now()}
}

// ToJSON converts the message to JSON bytes
func (m *SyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SyncMessageFromJSON decodes and validates a message. A missing action
// means upsert.
func SyncMessageFromJSON(data []byte) (*SyncMessage, error) {
	var msg SyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == "" {
		return nil, errors.New("sync message without id")
	}
	switch msg.Action {
	case "":
		msg.Action = ActionUpsert
	case ActionUpsert, ActionDelete:
	default:
		return nil, fmt.Errorf("unknown sync action %q", msg.Action)
	}
	return &msg, nil
}
