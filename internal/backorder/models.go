package backorder

import (
	"time"

	"github.com/PLManuel/Mitikas-sub000/internal/fault"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusInProcess Status = "in_process"
	StatusReceived  Status = "received"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusInProcess, StatusReceived:
		return Status(s), nil
	}
	return "", fault.Invalid("unknown backorder status %q", s)
}

// Request is one reported shortage, unique per (order, variant).
type Request struct {
	ID           string     `json:"id"`
	OrderID      string     `json:"order_id"`
	VariantID    int64      `json:"variant_id"`
	QtyRequested int32      `json:"quantity_requested"`
	Status       Status     `json:"status"`
	RequestedAt  time.Time  `json:"requested_at"`
	ReceivedAt   *time.Time `json:"received_at,omitempty"`
}

// Entry is one shortage line in a warehouse report.
type Entry struct {
	VariantID int64 `json:"variant_id"`
	Quantity  int32 `json:"quantity"`
}

// GroupedRow aggregates open requests per (variant, status) for the
// simulated supplier workflow.
type GroupedRow struct {
	VariantID       int64     `json:"variant_id"`
	VariantName     string    `json:"variant_name"`
	Status          Status    `json:"status"`
	TotalRequested  int64     `json:"total_requested"`
	OrderCount      int64     `json:"order_count"`
	EarliestRequest time.Time `json:"earliest_request"`
}

// LineStatus tells the warehouse whether an order line can be fulfilled: a
// line with no request is available, a received one is available again,
// pending and in_process block.
type LineStatus struct {
	LineID    string   `json:"line_id"`
	VariantID int64    `json:"variant_id"`
	Quantity  int32    `json:"quantity"`
	Backorder *Request `json:"backorder,omitempty"`
	Available bool     `json:"available"`
}

// NormalizeReceivedAt pins a reception timestamp to a fixed wall-clock
// representation: the UTC day it happened.
func NormalizeReceivedAt(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}
