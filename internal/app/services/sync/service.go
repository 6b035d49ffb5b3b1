// Package sync is the server half of the offline story. Terminals
// queue writes while disconnected and replay them here; the op log
// makes a replay safe to resend from the top after a crash.
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/customer"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/oplog"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/product"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/metrics"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/services/customers"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/services/expenses"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/services/products"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/services/sales"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/storage"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/apperr"
	"github.com/learngermanghana/sedifexbiz-sub004/pkg/logger"
)

// Op kinds a client queue may carry.
const (
	OpSaleCommit     = "sale.commit"
	OpProductAdjust  = "product.adjust"
	OpCustomerCreate = "customer.create"
	OpExpenseCreate  = "expense.create"
)

const maxReplayBatch = 500

// Service replays offline queues and serves change pulls.
type Service struct {
	ops       storage.OpLogStore
	sales     *sales.Service
	products  *products.Service
	customers *customers.Service
	expenses  *expenses.Service
	log       *logger.Logger
}

// New constructs a sync service.
func New(ops storage.OpLogStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("sync")
	}
	return &Service{ops: ops, log: log}
}

// AttachDependencies wires the services replayed operations land on.
func (s *Service) AttachDependencies(sales *sales.Service, products *products.Service, customers *customers.Service, expenses *expenses.Service) {
	s.sales = sales
	s.products = products
	s.customers = customers
	s.expenses = expenses
}

// QueuedOp is one operation from a client's offline queue.
type QueuedOp struct {
	OpID     string          `json:"op_id"`
	Kind     string          `json:"kind"`
	QueuedAt time.Time       `json:"queued_at"`
	Payload  json.RawMessage `json:"payload"`
}

// OpResult is the recorded outcome of one replayed operation.
type OpResult struct {
	OpID     string         `json:"op_id"`
	Status   oplog.OpStatus `json:"status"`
	Error    string         `json:"error,omitempty"`
	ResultID string         `json:"result_id,omitempty"`
}

// Replay applies queued operations in order. Each op succeeds or fails
// on its own; one bad op never aborts the batch. Ops seen before come
// back as duplicates carrying the original outcome.
func (s *Service) Replay(ctx context.Context, storeID, deviceID, actorID string, ops []QueuedOp) ([]OpResult, error) {
	if storeID == "" {
		return nil, apperr.Invalid("store_id is required")
	}
	if len(ops) > maxReplayBatch {
		return nil, apperr.Invalid("replay batch exceeds %d operations", maxReplayBatch)
	}

	results := make([]OpResult, 0, len(ops))
	for _, op := range ops {
		results = append(results, s.replayOne(ctx, storeID, deviceID, actorID, op))
	}

	s.log.WithField("store_id", storeID).
		WithField("device_id", deviceID).
		WithField("ops", len(ops)).
		Info("offline queue replayed")
	return results, nil
}

func (s *Service) replayOne(ctx context.Context, storeID, deviceID, actorID string, op QueuedOp) OpResult {
	if op.OpID == "" {
		metrics.RecordReplayOp("failed")
		return OpResult{Status: oplog.StatusFailed, Error: "op_id is required"}
	}

	if prior, err := s.ops.GetOpRecord(ctx, storeID, op.OpID); err == nil {
		metrics.RecordReplayOp("duplicate")
		return OpResult{
			OpID:     op.OpID,
			Status:   oplog.StatusDuplicate,
			Error:    prior.Message,
			ResultID: prior.ResultID,
		}
	} else if !errors.Is(err, storage.ErrNotFound) {
		metrics.RecordReplayOp("failed")
		return OpResult{OpID: op.OpID, Status: oplog.StatusFailed, Error: err.Error()}
	}

	resultID, err := s.apply(ctx, storeID, actorID, op)
	if err != nil {
		metrics.RecordReplayOp("failed")
		result := OpResult{OpID: op.OpID, Status: oplog.StatusFailed, Error: err.Error()}

		// Entitlement failures are transient: the shop can subscribe
		// and resend. Everything else is recorded so the outcome
		// sticks.
		if apperr.KindOf(err) != apperr.KindPaymentRequired {
			s.recordOp(ctx, storeID, deviceID, op, oplog.StatusFailed, err.Error(), "")
		}
		return result
	}

	metrics.RecordReplayOp("applied")
	s.recordOp(ctx, storeID, deviceID, op, oplog.StatusApplied, "", resultID)
	return OpResult{OpID: op.OpID, Status: oplog.StatusApplied, ResultID: resultID}
}

func (s *Service) apply(ctx context.Context, storeID, actorID string, op QueuedOp) (string, error) {
	switch op.Kind {
	case OpSaleCommit:
		var in sales.CommitInput
		if err := json.Unmarshal(op.Payload, &in); err != nil {
			return "", apperr.Invalid("bad sale payload: %v", err)
		}
		if in.ClientRef == "" {
			in.ClientRef = op.OpID
		}
		if in.CreatedAt.IsZero() {
			in.CreatedAt = op.QueuedAt
		}
		committed, err := s.sales.Commit(ctx, storeID, actorID, in)
		if err != nil {
			return "", err
		}
		return committed.ID, nil

	case OpProductAdjust:
		var in struct {
			ProductID string `json:"product_id"`
			Delta     int    `json:"delta"`
			Reason    string `json:"reason"`
		}
		if err := json.Unmarshal(op.Payload, &in); err != nil {
			return "", apperr.Invalid("bad adjustment payload: %v", err)
		}
		adjusted, err := s.products.AdjustStock(ctx, storeID, in.ProductID, actorID, in.Delta, in.Reason)
		if err != nil {
			return "", err
		}
		return adjusted.ID, nil

	case OpCustomerCreate:
		var in customers.CreateInput
		if err := json.Unmarshal(op.Payload, &in); err != nil {
			return "", apperr.Invalid("bad customer payload: %v", err)
		}
		created, err := s.customers.Create(ctx, storeID, in)
		if err != nil {
			return "", err
		}
		return created.ID, nil

	case OpExpenseCreate:
		var in expenses.CreateInput
		if err := json.Unmarshal(op.Payload, &in); err != nil {
			return "", apperr.Invalid("bad expense payload: %v", err)
		}
		if in.IncurredAt.IsZero() {
			in.IncurredAt = op.QueuedAt
		}
		created, err := s.expenses.Create(ctx, storeID, actorID, in)
		if err != nil {
			return "", err
		}
		return created.ID, nil

	default:
		return "", apperr.Invalid("unknown op kind %q", op.Kind)
	}
}

func (s *Service) recordOp(ctx context.Context, storeID, deviceID string, op QueuedOp, status oplog.OpStatus, message, resultID string) {
	_, err := s.ops.CreateOpRecord(ctx, oplog.Record{
		StoreID:  storeID,
		DeviceID: deviceID,
		OpID:     op.OpID,
		Kind:     op.Kind,
		Status:   status,
		Message:  message,
		ResultID: resultID,
	})
	if err != nil && !errors.Is(err, storage.ErrDuplicate) {
		s.log.WithError(err).
			WithField("op_id", op.OpID).
			Warn("op log write failed")
	}
}

// PullResult carries records changed since the client's last sync.
type PullResult struct {
	Products  []product.Product   `json:"products"`
	Customers []customer.Customer `json:"customers"`
	Now       time.Time           `json:"now"`
}

// Pull returns products and customers changed since the given instant,
// plus the server time to use as the next since marker.
func (s *Service) Pull(ctx context.Context, storeID string, since time.Time) (PullResult, error) {
	if storeID == "" {
		return PullResult{}, apperr.Invalid("store_id is required")
	}

	now := time.Now().UTC()
	changedProducts, err := s.products.ChangedSince(ctx, storeID, since)
	if err != nil {
		return PullResult{}, err
	}
	changedCustomers, err := s.customers.ChangedSince(ctx, storeID, since)
	if err != nil {
		return PullResult{}, err
	}

	return PullResult{
		Products:  changedProducts,
		Customers: changedCustomers,
		Now:       now,
	}, nil
}
