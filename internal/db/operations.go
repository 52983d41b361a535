package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/buildtall-systems/orderflow/internal/actor"
	"github.com/buildtall-systems/orderflow/internal/fsm"
	"github.com/google/uuid"
)

var orderSM = fsm.NewOrderMachine()

// ErrOrderNotFound indicates order does not exist.
var ErrOrderNotFound = errors.New("order not found")

// ErrOrderExists indicates an order with the same ID is already journaled.
var ErrOrderExists = errors.New("order already exists")

// ErrInvalidStateTransition indicates a snapshot whose state cannot follow the previous one.
var ErrInvalidStateTransition = errors.New("invalid order state transition")

// Order is a journaled order.
type Order struct {
	ID        string
	CreatedAt time.Time
}

// OrderSummary is an order with its latest journaled state (for listing).
type OrderSummary struct {
	ID        string
	State     fsm.State
	Status    fsm.Status
	Snapshots int
	CreatedAt time.Time
}

// SnapshotRecord is one journaled snapshot.
type SnapshotRecord struct {
	ID        int64
	OrderID   string
	Seq       int
	State     fsm.State
	Context   fsm.OrderContext
	CreatedAt time.Time
}

// CreateOrder journals a new order with a random ID.
func (db *DB) CreateOrder(ctx context.Context) (*Order, error) {
	return db.CreateOrderWithID(ctx, uuid.NewString())
}

// CreateOrderWithID journals a new order under id.
func (db *DB) CreateOrderWithID(ctx context.Context, id string) (*Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parsing order id: %w", err)
	}

	_, err := db.ExecContext(ctx, `INSERT INTO orders (id) VALUES (?)`, id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrOrderExists
		}
		return nil, fmt.Errorf("creating order: %w", err)
	}

	return db.GetOrderByID(ctx, id)
}

// GetOrderByID returns an order by ID.
func (db *DB) GetOrderByID(ctx context.Context, id string) (*Order, error) {
	var o Order
	err := db.QueryRowContext(ctx, `
		SELECT id, created_at FROM orders WHERE id = ?
	`, id).Scan(&o.ID, &o.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying order: %w", err)
	}
	return &o, nil
}

// ListOrders returns orders with their latest state, most recent first.
func (db *DB) ListOrders(ctx context.Context, limit int) ([]OrderSummary, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT o.id, COALESCE(s.state, ''), COALESCE(s.status, ''),
		       (SELECT COUNT(*) FROM snapshots c WHERE c.order_id = o.id), o.created_at
		FROM orders o
		LEFT JOIN snapshots s ON s.order_id = o.id
		     AND s.seq = (SELECT MAX(seq) FROM snapshots m WHERE m.order_id = o.id)
		ORDER BY o.created_at DESC, o.rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying orders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var orders []OrderSummary
	for rows.Next() {
		var o OrderSummary
		var state, status string
		if err := rows.Scan(&o.ID, &state, &status, &o.Snapshots, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning order: %w", err)
		}
		o.State, o.Status = fsm.State(state), fsm.Status(status)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating orders: %w", err)
	}
	return orders, nil
}

// RecordSnapshot appends snap to the order's journal. The snapshot's state
// must equal the previous one or follow it by a single workflow event.
func (db *DB) RecordSnapshot(ctx context.Context, orderID string, snap actor.OrderSnapshot) (*SnapshotRecord, error) {
	items, err := json.Marshal(snap.Context.Items)
	if err != nil {
		return nil, fmt.Errorf("encoding items: %w", err)
	}
	events, err := json.Marshal(snap.Context.Events)
	if err != nil {
		return nil, fmt.Errorf("encoding events: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id = ?)`, orderID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("checking order: %w", err)
	}
	if !exists {
		return nil, ErrOrderNotFound
	}

	var seq int
	var prevState sql.NullString
	err = tx.QueryRowContext(ctx, `
		SELECT seq, state FROM snapshots WHERE order_id = ? ORDER BY seq DESC LIMIT 1
	`, orderID).Scan(&seq, &prevState)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("querying latest snapshot: %w", err)
	}

	if prevState.Valid && !canFollow(fsm.State(prevState.String), snap.Value) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStateTransition, prevState.String, snap.Value)
	}
	seq++

	result, err := tx.ExecContext(ctx, `
		INSERT INTO snapshots (order_id, seq, state, status, total, items, events)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, orderID, seq, string(snap.Value), string(snap.Context.Status), snap.Context.Total, string(items), string(events))
	if err != nil {
		return nil, fmt.Errorf("recording snapshot: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting snapshot id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	return &SnapshotRecord{
		ID:      id,
		OrderID: orderID,
		Seq:     seq,
		State:   snap.Value,
		Context: snap.Context,
	}, nil
}

// ListSnapshots returns an order's journal in publish order.
func (db *DB) ListSnapshots(ctx context.Context, orderID string) ([]SnapshotRecord, error) {
	if _, err := db.GetOrderByID(ctx, orderID); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, order_id, seq, state, status, total, items, events, created_at
		FROM snapshots WHERE order_id = ? ORDER BY seq ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("querying snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []SnapshotRecord
	for rows.Next() {
		r, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshots: %w", err)
	}
	return records, nil
}

// LatestSnapshot returns the most recent journaled snapshot, or nil if none.
func (db *DB) LatestSnapshot(ctx context.Context, orderID string) (*SnapshotRecord, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, order_id, seq, state, status, total, items, events, created_at
		FROM snapshots WHERE order_id = ? ORDER BY seq DESC LIMIT 1
	`, orderID)
	r, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(s scanner) (*SnapshotRecord, error) {
	var r SnapshotRecord
	var state, status, items, events string
	err := s.Scan(&r.ID, &r.OrderID, &r.Seq, &state, &status, &r.Context.Total, &items, &events, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning snapshot: %w", err)
	}

	r.State = fsm.State(state)
	r.Context.Status = fsm.Status(status)
	if err := json.Unmarshal([]byte(items), &r.Context.Items); err != nil {
		return nil, fmt.Errorf("decoding items: %w", err)
	}
	if err := json.Unmarshal([]byte(events), &r.Context.Events); err != nil {
		return nil, fmt.Errorf("decoding events: %w", err)
	}
	return &r, nil
}

// canFollow reports whether to can be journaled right after from.
func canFollow(from, to fsm.State) bool {
	if from == to {
		return true
	}
	event := inferOrderEvent(from, to)
	if event == "" {
		return false
	}
	return orderSM.CanTransition(from, event)
}

func inferOrderEvent(from, to fsm.State) fsm.EventType {
	transitions := map[fsm.State]map[fsm.State]fsm.EventType{
		fsm.StateIdle: {
			fsm.StateProcessing: fsm.EventOrderSubmitted,
		},
		fsm.StateProcessing: {
			fsm.StateShipping: fsm.EventPaymentReceived,
		},
		fsm.StateShipping: {
			fsm.StateCompleted: fsm.EventOrderShipped,
		},
	}
	if events, ok := transitions[from]; ok {
		return events[to]
	}
	return ""
}

// isUniqueViolation checks if the error is a unique constraint violation.
func isUniqueViolation(err error) bool {
	// SQLite unique constraint error contains "UNIQUE constraint failed"
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
