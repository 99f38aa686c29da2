package model

import (
	"encoding/json"
	"time"
)

type CommandKind string

const (
	CommandReload   CommandKind = "reload"
	CommandAnnounce CommandKind = "announce"
)

// Command is the payload of a `command:broadcast` event.
type Command struct {
	ID        string      `json:"id"`
	Kind      CommandKind `json:"kind"`
	Reason    string      `json:"reason,omitempty"`
	Text      string      `json:"text,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// CommandLogEntry records how a broadcast resolved.
type CommandLogEntry struct {
	ID        int             `db:"id"          json:"id"`
	CommandID string          `db:"command_id"  json:"command_id"`
	Kind      string          `db:"kind"        json:"kind"`
	Message   string          `db:"message"     json:"message"`
	Success   bool            `db:"success"     json:"success"`
	TimedOut  bool            `db:"timed_out"   json:"timed_out"`
	Responses int             `db:"responses"   json:"responses"`
	Payload   json.RawMessage `db:"payload"     json:"payload,omitempty"`
	SentAt    time.Time       `db:"sent_at"     json:"sent_at"`
	CreatedAt time.Time       `db:"created_at"  json:"created_at"`
}
