package packets

import (
	"github.com/Nixie-Tech-LLC/masjid-console/internal/ack"
	"github.com/Nixie-Tech-LLC/masjid-console/internal/model"
)

type BroadcastResponse struct {
	ack.Result
	Outcome ack.Outcome `json:"outcome"`
}

func NewBroadcastResponse(r ack.Result) *BroadcastResponse {
	return &BroadcastResponse{Result: r, Outcome: ack.Summarize(r)}
}

// MutationResponse wraps the backend's answer to a range change. When the
// change asked for a display reload, Notification or NotifyError says how
// it went; the change itself has succeeded either way.
type MutationResponse struct {
	Result       any                `json:"result"`
	Notification *BroadcastResponse `json:"notification,omitempty"`
	NotifyError  string             `json:"notifyError,omitempty"`
}

type HistoryResponse struct {
	Commands []model.CommandLogEntry `json:"commands"`
}

type DisplaysResponse struct {
	Clients []string `json:"clients"`
}
