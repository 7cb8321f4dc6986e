package backorder

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrMissingIDs means a batch update named at least one unknown request;
// the whole batch was rolled back.
var ErrMissingIDs = errors.New("backorder: some ids do not exist")

type Repo struct{ DB *pgxpool.Pool }

// ReportTx inserts one pending request per entry, skipping any (order,
// variant) pair already reported. The whole report lands in one
// transaction; re-reporting is a no-op, never a duplicate.
func (r *Repo) ReportTx(ctx context.Context, orderID string, entries []Entry) (int, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	created := 0
	for _, e := range entries {
		ct, err := tx.Exec(ctx, `
			INSERT INTO backorder_requests (id, order_id, variant_id, quantity_requested, status, requested_at)
			VALUES ($1, $2, $3, $4, 'pending', now())
			ON CONFLICT (order_id, variant_id) DO NOTHING`,
			uuid.NewString(), orderID, e.VariantID, e.Quantity)
		if err != nil {
			return 0, err
		}
		created += int(ct.RowsAffected())
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return created, nil
}

// ListGrouped aggregates open requests per (variant, status), pending
// before in_process, earliest shortage first within each status.
func (r *Repo) ListGrouped(ctx context.Context) ([]GroupedRow, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT br.variant_id, v.name, br.status,
		       SUM(br.quantity_requested), COUNT(DISTINCT br.order_id), MIN(br.requested_at)
		FROM backorder_requests br
		JOIN variants v ON v.id = br.variant_id
		WHERE br.status IN ('pending', 'in_process')
		GROUP BY br.variant_id, v.name, br.status
		ORDER BY CASE br.status WHEN 'pending' THEN 0 ELSE 1 END, MIN(br.requested_at)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GroupedRow
	for rows.Next() {
		var g GroupedRow
		if err := rows.Scan(&g.VariantID, &g.VariantName, &g.Status,
			&g.TotalRequested, &g.OrderCount, &g.EarliestRequest); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// ListForOrder joins each order line to its shortage request, if any.
func (r *Repo) ListForOrder(ctx context.Context, orderID string) ([]LineStatus, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT ol.id, ol.variant_id, ol.quantity,
		       br.id, br.order_id, br.variant_id, br.quantity_requested, br.status, br.requested_at, br.received_at
		FROM order_lines ol
		LEFT JOIN backorder_requests br
		  ON br.order_id = ol.order_id AND br.variant_id = ol.variant_id
		WHERE ol.order_id = $1
		ORDER BY ol.id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LineStatus
	for rows.Next() {
		var ls LineStatus
		var reqID, reqOrderID *string
		var reqVariantID *int64
		var reqQty *int32
		var reqStatus *string
		var reqAt, recvAt *time.Time
		if err := rows.Scan(&ls.LineID, &ls.VariantID, &ls.Quantity,
			&reqID, &reqOrderID, &reqVariantID, &reqQty, &reqStatus, &reqAt, &recvAt); err != nil {
			return nil, err
		}
		if reqID != nil {
			ls.Backorder = &Request{
				ID: *reqID, OrderID: *reqOrderID, VariantID: *reqVariantID,
				QtyRequested: *reqQty, Status: Status(*reqStatus),
				RequestedAt: *reqAt, ReceivedAt: recvAt,
			}
		}
		ls.Available = ls.Backorder == nil || ls.Backorder.Status == StatusReceived
		out = append(out, ls)
	}
	return out, rows.Err()
}

// AdvanceTx moves every id in the batch to the new status, or none of
// them. Moving to received records the reception date, moving back to
// in_process clears it.
func (r *Repo) AdvanceTx(ctx context.Context, ids []string, to Status, receivedAt *time.Time) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var ct pgconn.CommandTag
	switch to {
	case StatusReceived:
		ct, err = tx.Exec(ctx,
			`UPDATE backorder_requests SET status=$2, received_at=$3 WHERE id = ANY($1)`,
			ids, string(to), receivedAt)
	case StatusInProcess:
		ct, err = tx.Exec(ctx,
			`UPDATE backorder_requests SET status=$2, received_at=NULL WHERE id = ANY($1)`,
			ids, string(to))
	default:
		ct, err = tx.Exec(ctx,
			`UPDATE backorder_requests SET status=$2 WHERE id = ANY($1)`,
			ids, string(to))
	}
	if err != nil {
		return err
	}
	if ct.RowsAffected() != int64(len(ids)) {
		return ErrMissingIDs
	}
	return tx.Commit(ctx)
}

// HasBlocking reports whether any shortage for the order is still pending
// or in process.
func (r *Repo) HasBlocking(ctx context.Context, orderID string) (bool, error) {
	var n int
	err := r.DB.QueryRow(ctx, `
		SELECT COUNT(*) FROM backorder_requests
		WHERE order_id=$1 AND status IN ('pending', 'in_process')`, orderID).Scan(&n)
	return n > 0, err
}
