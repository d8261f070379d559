// Package store owns the in-memory transaction and budget collections.
//
// The store is the single writer: every mutation goes through one of the six
// CRUD operations, outside components only ever see copied snapshots and
// communicate intended changes back through these operations. Nothing is
// persisted; both collections live exactly as long as the process.
//
// Each operation simulates a backend round trip with a fixed latency and is
// serialized through a single-flight gate: at most one mutation is in flight
// at a time, a concurrent attempt is rejected with ErrBusy. Once an
// operation passes the gate it always runs to completion.
package store

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"fintrack/internal/core"
)

var (
	// ErrBusy is returned when a mutation is attempted while another one
	// is still in flight.
	ErrBusy = errors.New("another save is in progress")

	// ErrBudgetExists is returned when a budget for the same category and
	// month already exists; the caller must update instead.
	ErrBudgetExists = errors.New("budget already exists for this category and month")
)

// Store holds the collections and the save gate.
type Store struct {
	mu           sync.RWMutex
	transactions []core.Transaction
	budgets      []core.Budget
	version      uint64

	gate     *semaphore.Weighted
	loading  atomic.Bool
	latency  time.Duration
	notifier Notifier
}

// New creates an empty store. latency is the simulated save round trip
// applied to every mutation; notifier may be nil.
func New(latency time.Duration, notifier Notifier) *Store {
	return &Store{
		gate:     semaphore.NewWeighted(1),
		latency:  latency,
		notifier: notifier,
	}
}

// Seed installs the one-time initial data set. It assigns ids to records
// that lack one, skips the simulated latency and emits no notifications.
func (s *Store) Seed(transactions []core.Transaction, budgets []core.Budget) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transactions = make([]core.Transaction, len(transactions))
	copy(s.transactions, transactions)
	for i := range s.transactions {
		if s.transactions[i].ID == "" {
			s.transactions[i].ID = uuid.NewString()
		}
	}

	s.budgets = make([]core.Budget, len(budgets))
	copy(s.budgets, budgets)
	for i := range s.budgets {
		if s.budgets[i].ID == "" {
			s.budgets[i].ID = uuid.NewString()
		}
	}

	s.version++
}

// Transactions returns a copied snapshot of the transaction collection.
func (s *Store) Transactions() []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Transaction, len(s.transactions))
	copy(out, s.transactions)
	return out
}

// Budgets returns a copied snapshot of the budget collection.
func (s *Store) Budgets() []core.Budget {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Budget, len(s.budgets))
	copy(out, s.budgets)
	return out
}

// Transaction looks up a single transaction by id.
func (s *Store) Transaction(id string) (core.Transaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.transactions {
		if t.ID == id {
			return t, true
		}
	}
	return core.Transaction{}, false
}

// Budget looks up a single budget by id.
func (s *Store) Budget(id string) (core.Budget, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.budgets {
		if b.ID == id {
			return b, true
		}
	}
	return core.Budget{}, false
}

// Loading reports whether a mutation is currently in flight. Views use it
// to disable submit and row actions while a save runs.
func (s *Store) Loading() bool {
	return s.loading.Load()
}

// Version is a monotonically increasing counter bumped on every successful
// mutation. Derived-view caches key on it so they stay consistent with the
// current state without re-deriving on every read.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// AddTransaction validates data, assigns an id and prepends the record.
func (s *Store) AddTransaction(ctx context.Context, data core.Transaction) error {
	return s.do(ctx, "add_transaction",
		func() error { return data.Validate() },
		func() error {
			data.ID = uuid.NewString()
			s.transactions = append([]core.Transaction{data}, s.transactions...)
			return nil
		},
		Notification{Title: "Success", Description: "Transaction added successfully"},
	)
}

// UpdateTransaction replaces the record with the given id wholesale; fields
// absent from data are not preserved. An unknown id leaves the collection
// unchanged but still reports success, matching the optimistic contract.
func (s *Store) UpdateTransaction(ctx context.Context, id string, data core.Transaction) error {
	return s.do(ctx, "update_transaction",
		func() error { return data.Validate() },
		func() error {
			for i := range s.transactions {
				if s.transactions[i].ID == id {
					data.ID = id
					s.transactions[i] = data
					break
				}
			}
			return nil
		},
		Notification{Title: "Success", Description: "Transaction updated successfully"},
	)
}

// DeleteTransaction removes the record with the given id. Deleting an
// unknown id is a no-op.
func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	return s.do(ctx, "delete_transaction",
		nil,
		func() error {
			s.transactions = deleteByID(s.transactions, id, func(t core.Transaction) string { return t.ID })
			return nil
		},
		Notification{Title: "Success", Description: "Transaction deleted successfully"},
	)
}

// AddBudget validates data and enforces the one-budget-per-category-month
// invariant before the simulated save starts: a duplicate short-circuits
// with a destructive notification and unchanged state.
func (s *Store) AddBudget(ctx context.Context, data core.Budget) error {
	return s.do(ctx, "add_budget",
		func() error {
			if err := data.Validate(); err != nil {
				return err
			}
			for _, b := range s.budgets {
				if b.Category == data.Category && b.Month == data.Month {
					return ErrBudgetExists
				}
			}
			return nil
		},
		func() error {
			data.ID = uuid.NewString()
			s.budgets = append(s.budgets, data)
			return nil
		},
		Notification{Title: "Success", Description: "Budget set successfully"},
	)
}

// UpdateBudget replaces the budget with the given id wholesale.
func (s *Store) UpdateBudget(ctx context.Context, id string, data core.Budget) error {
	return s.do(ctx, "update_budget",
		func() error { return data.Validate() },
		func() error {
			for i := range s.budgets {
				if s.budgets[i].ID == id {
					data.ID = id
					s.budgets[i] = data
					break
				}
			}
			return nil
		},
		Notification{Title: "Success", Description: "Budget updated successfully"},
	)
}

// DeleteBudget removes the budget with the given id; unknown ids are a no-op.
func (s *Store) DeleteBudget(ctx context.Context, id string) error {
	return s.do(ctx, "delete_budget",
		nil,
		func() error {
			s.budgets = deleteByID(s.budgets, id, func(b core.Budget) string { return b.ID })
			return nil
		},
		Notification{Title: "Success", Description: "Budget deleted successfully"},
	)
}

// do is the shared mutation path: single-flight gate, precheck, simulated
// latency, apply, outcome notification. precheck runs before the latency so
// validation rejections short-circuit; apply runs under the write lock. The
// apply error branch is currently unreachable (in-memory mutation cannot
// fail) but is kept so a real backend can slot in without changing the
// operation contract.
func (s *Store) do(ctx context.Context, op string, precheck func() error, apply func() error, success Notification) error {
	if !s.gate.TryAcquire(1) {
		slog.WarnContext(ctx, "Mutation rejected, another save in flight", "operation", op)
		s.emit(ctx, Notification{
			Title:       "Please wait",
			Description: "Another save is still in progress",
			Variant:     VariantDestructive,
		})
		return ErrBusy
	}
	s.loading.Store(true)
	defer func() {
		s.loading.Store(false)
		s.gate.Release(1)
	}()

	if precheck != nil {
		s.mu.RLock()
		err := precheck()
		s.mu.RUnlock()
		if err != nil {
			slog.WarnContext(ctx, "Mutation rejected", "operation", op, "error", err)
			s.emit(ctx, rejection(err))
			return err
		}
	}

	// Simulated backend round trip. Runs to completion once started: no
	// cancellation mid-save, so the collections never end up half-mutated.
	if s.latency > 0 {
		time.Sleep(s.latency)
	}

	s.mu.Lock()
	err := apply()
	if err == nil {
		s.version++
	}
	s.mu.Unlock()

	if err != nil {
		slog.ErrorContext(ctx, "Mutation failed", "operation", op, "error", err)
		s.emit(ctx, Notification{
			Title:       "Error",
			Description: "The change could not be saved",
			Variant:     VariantDestructive,
		})
		return err
	}

	slog.InfoContext(ctx, "Mutation applied", "operation", op, "version", s.Version())
	s.emit(ctx, success)
	return nil
}

func (s *Store) emit(ctx context.Context, n Notification) {
	if n.Variant == "" {
		n.Variant = VariantDefault
	}
	if s.notifier != nil {
		s.notifier.Notify(ctx, n)
	}
}

func rejection(err error) Notification {
	if errors.Is(err, ErrBudgetExists) {
		return Notification{
			Title:       "Budget Already Exists",
			Description: "A budget for this category and month already exists. Edit it instead.",
			Variant:     VariantDestructive,
		}
	}
	return Notification{
		Title:       "Invalid data",
		Description: err.Error(),
		Variant:     VariantDestructive,
	}
}

func deleteByID[T any](items []T, id string, idOf func(T) string) []T {
	out := items[:0]
	for _, it := range items {
		if idOf(it) != id {
			out = append(out, it)
		}
	}
	return out
}
