// Package expenses records money going out, so the finance page can
// net costs off takings.
package expenses

import (
	"context"
	"strings"
	"time"

	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/expense"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/storage"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/apperr"
	"github.com/learngermanghana/sedifexbiz-sub004/pkg/logger"
)

// Service manages expenses.
type Service struct {
	expenses storage.ExpenseStore
	log      *logger.Logger
}

// New constructs an expenses service.
func New(expenses storage.ExpenseStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("expenses")
	}
	return &Service{expenses: expenses, log: log}
}

// CreateInput carries the fields for a new expense.
type CreateInput struct {
	Category    string    `json:"category"`
	AmountCents int64     `json:"amount_cents"`
	Note        string    `json:"note"`
	IncurredAt  time.Time `json:"incurred_at"`
}

// Create records an expense. A zero IncurredAt means right now.
func (s *Service) Create(ctx context.Context, storeID, actorID string, in CreateInput) (expense.Expense, error) {
	category := strings.TrimSpace(in.Category)
	switch {
	case storeID == "":
		return expense.Expense{}, apperr.Invalid("store_id is required")
	case category == "":
		return expense.Expense{}, apperr.Invalid("category is required")
	case in.AmountCents <= 0:
		return expense.Expense{}, apperr.Invalid("amount_cents must be positive")
	}

	incurredAt := in.IncurredAt
	if incurredAt.IsZero() {
		incurredAt = time.Now()
	}

	created, err := s.expenses.CreateExpense(ctx, expense.Expense{
		StoreID:     storeID,
		Category:    category,
		AmountCents: in.AmountCents,
		Note:        strings.TrimSpace(in.Note),
		RecordedBy:  actorID,
		IncurredAt:  incurredAt.UTC(),
	})
	if err != nil {
		return expense.Expense{}, err
	}

	s.log.WithField("store_id", storeID).
		WithField("expense_id", created.ID).
		WithField("amount_cents", created.AmountCents).
		Info("expense recorded")
	return created, nil
}

// UpdateInput carries expense changes. Nil fields are left unchanged.
type UpdateInput struct {
	Category    *string    `json:"category,omitempty"`
	AmountCents *int64     `json:"amount_cents,omitempty"`
	Note        *string    `json:"note,omitempty"`
	IncurredAt  *time.Time `json:"incurred_at,omitempty"`
}

// Update applies changes to an expense.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (expense.Expense, error) {
	e, err := s.expenses.GetExpense(ctx, id)
	if err != nil {
		return expense.Expense{}, err
	}

	if in.Category != nil {
		category := strings.TrimSpace(*in.Category)
		if category == "" {
			return expense.Expense{}, apperr.Invalid("category cannot be empty")
		}
		e.Category = category
	}
	if in.AmountCents != nil {
		if *in.AmountCents <= 0 {
			return expense.Expense{}, apperr.Invalid("amount_cents must be positive")
		}
		e.AmountCents = *in.AmountCents
	}
	if in.Note != nil {
		e.Note = strings.TrimSpace(*in.Note)
	}
	if in.IncurredAt != nil && !in.IncurredAt.IsZero() {
		e.IncurredAt = in.IncurredAt.UTC()
	}

	updated, err := s.expenses.UpdateExpense(ctx, e)
	if err != nil {
		return expense.Expense{}, err
	}

	s.log.WithField("expense_id", id).Info("expense updated")
	return updated, nil
}

// Get returns an expense.
func (s *Service) Get(ctx context.Context, id string) (expense.Expense, error) {
	return s.expenses.GetExpense(ctx, id)
}

// List returns the store's expenses in the range, newest first. Zero
// bounds mean unbounded.
func (s *Service) List(ctx context.Context, storeID string, from, to time.Time) ([]expense.Expense, error) {
	return s.expenses.ListExpenses(ctx, storeID, from, to)
}

// Delete removes an expense.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.expenses.DeleteExpense(ctx, id); err != nil {
		return err
	}
	s.log.WithField("expense_id", id).Info("expense deleted")
	return nil
}
