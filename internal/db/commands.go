package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Nixie-Tech-LLC/masjid-console/internal/ack"
	"github.com/Nixie-Tech-LLC/masjid-console/internal/model"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

// CommandLog is the broadcast history table.
type CommandLog struct {
	db *sqlx.DB
}

var _ ack.Recorder = (*CommandLog)(nil)

func NewCommandLog(db *sqlx.DB) *CommandLog {
	return &CommandLog{db: db}
}

func (l *CommandLog) RecordCommand(ctx context.Context, entry model.CommandLogEntry) error {
	payload := "{}"
	if len(entry.Payload) > 0 {
		payload = string(entry.Payload)
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO command_log (command_id, kind, message, success, timed_out, responses, payload, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8)
		`, entry.CommandID, entry.Kind, entry.Message, entry.Success, entry.TimedOut, entry.Responses, payload, entry.SentAt)
	if err != nil {
		return fmt.Errorf("insert command %s: %w", entry.CommandID, err)
	}
	return nil
}

// ListCommands returns the newest entries first. limit is clamped to
// [1, MaxHistoryLimit]; zero means DefaultHistoryLimit.
func (l *CommandLog) ListCommands(ctx context.Context, limit int) ([]model.CommandLogEntry, error) {
	limit = ClampLimit(limit)
	entries := []model.CommandLogEntry{}
	err := l.db.SelectContext(ctx, &entries, `
		SELECT id, command_id, kind, message, success, timed_out, responses, payload, sent_at, created_at
		FROM command_log
		ORDER BY sent_at DESC, id DESC
		LIMIT $1
		`, limit)
	if err != nil {
		return nil, fmt.Errorf("list commands: %w", err)
	}
	return entries, nil
}

func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		return MaxHistoryLimit
	}
	return limit
}
