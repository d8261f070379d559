package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fintrack/internal/core"
)

type recorder struct {
	mu    sync.Mutex
	notes []Notification
}

func (r *recorder) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

func (r *recorder) last(t *testing.T) Notification {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notes) == 0 {
		t.Fatalf("expected at least one notification")
	}
	return r.notes[len(r.notes)-1]
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notes)
}

func validTx() core.Transaction {
	return core.Transaction{
		Amount:      core.Money{Cents: 30000},
		Date:        core.NewDate(2025, 1, 5),
		Description: "Groceries",
		Category:    "Food",
	}
}

func validBudget() core.Budget {
	return core.Budget{Category: "Food", Month: "2025-01", Amount: core.Money{Cents: 40000}}
}

func TestAddTransactionAssignsID(t *testing.T) {
	rec := &recorder{}
	s := New(0, rec)
	ctx := context.Background()

	if err := s.AddTransaction(ctx, validTx()); err != nil {
		t.Fatalf("add: %v", err)
	}

	txs := s.Transactions()
	if len(txs) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txs))
	}
	if txs[0].ID == "" {
		t.Fatalf("store must assign the id")
	}
	if n := rec.last(t); n.Variant != VariantDefault {
		t.Fatalf("expected default variant, got %s", n.Variant)
	}

	// Newest first, like the original ordering
	second := validTx()
	second.Description = "Lunch"
	if err := s.AddTransaction(ctx, second); err != nil {
		t.Fatalf("add second: %v", err)
	}
	if got := s.Transactions()[0].Description; got != "Lunch" {
		t.Fatalf("expected newest first, got %q", got)
	}
}

func TestAddTransactionRejectsUnknownCategory(t *testing.T) {
	rec := &recorder{}
	s := New(0, rec)

	tx := validTx()
	tx.Category = "Gambling"
	err := s.AddTransaction(context.Background(), tx)
	if !errors.Is(err, core.ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
	if len(s.Transactions()) != 0 {
		t.Fatalf("state must be unchanged on rejection")
	}
	if n := rec.last(t); n.Variant != VariantDestructive {
		t.Fatalf("expected destructive notification, got %+v", n)
	}
}

func TestUpdateTransactionReplacesWholeRecord(t *testing.T) {
	s := New(0, nil)
	ctx := context.Background()
	if err := s.AddTransaction(ctx, validTx()); err != nil {
		t.Fatalf("add: %v", err)
	}
	id := s.Transactions()[0].ID

	repl := core.Transaction{
		Amount:   core.Money{Cents: 500},
		Date:     core.NewDate(2025, 2, 1),
		Category: "Shopping",
		// Description deliberately empty: full replacement, not a merge
	}
	if err := s.UpdateTransaction(ctx, id, repl); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, ok := s.Transaction(id)
	if !ok {
		t.Fatalf("record with id %s must still exist", id)
	}
	if got.Description != "" || got.Category != "Shopping" || got.Amount.Cents != 500 {
		t.Fatalf("expected full replacement, got %+v", got)
	}
}

func TestUpdateTransactionUnknownIDIsNoop(t *testing.T) {
	s := New(0, nil)
	ctx := context.Background()
	if err := s.AddTransaction(ctx, validTx()); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := s.UpdateTransaction(ctx, "no-such-id", validTx()); err != nil {
		t.Fatalf("update of unknown id must not fail: %v", err)
	}
	if len(s.Transactions()) != 1 {
		t.Fatalf("collection length must be unchanged")
	}
}

func TestDeleteTransaction(t *testing.T) {
	s := New(0, nil)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := s.AddTransaction(ctx, validTx()); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	id := s.Transactions()[1].ID

	if err := s.DeleteTransaction(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(s.Transactions()) != 2 {
		t.Fatalf("expected exactly one record removed")
	}
	if _, ok := s.Transaction(id); ok {
		t.Fatalf("deleted record still present")
	}

	// Deleting a non-existent id is a no-op
	if err := s.DeleteTransaction(ctx, "no-such-id"); err != nil {
		t.Fatalf("delete of unknown id must not fail: %v", err)
	}
	if len(s.Transactions()) != 2 {
		t.Fatalf("collection length must be unchanged")
	}
}

func TestAddBudgetRejectsDuplicate(t *testing.T) {
	rec := &recorder{}
	s := New(0, rec)
	ctx := context.Background()

	if err := s.AddBudget(ctx, validBudget()); err != nil {
		t.Fatalf("first add: %v", err)
	}

	dup := validBudget()
	dup.Amount = core.Money{Cents: 99999} // same pair, different amount
	err := s.AddBudget(ctx, dup)
	if !errors.Is(err, ErrBudgetExists) {
		t.Fatalf("expected ErrBudgetExists, got %v", err)
	}

	budgets := s.Budgets()
	if len(budgets) != 1 {
		t.Fatalf("exactly one budget must remain for the pair, got %d", len(budgets))
	}
	if budgets[0].Amount.Cents != 40000 {
		t.Fatalf("state must be unchanged on rejection")
	}
	n := rec.last(t)
	if n.Variant != VariantDestructive || n.Title != "Budget Already Exists" {
		t.Fatalf("unexpected rejection notification: %+v", n)
	}

	// Same category in a different month is fine
	other := validBudget()
	other.Month = "2025-02"
	if err := s.AddBudget(ctx, other); err != nil {
		t.Fatalf("different month should be accepted: %v", err)
	}
}

func TestUpdateAndDeleteBudget(t *testing.T) {
	s := New(0, nil)
	ctx := context.Background()
	if err := s.AddBudget(ctx, validBudget()); err != nil {
		t.Fatalf("add: %v", err)
	}
	id := s.Budgets()[0].ID

	repl := core.Budget{Category: "Food", Month: "2025-01", Amount: core.Money{Cents: 50000}}
	if err := s.UpdateBudget(ctx, id, repl); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, ok := s.Budget(id)
	if !ok || got.Amount.Cents != 50000 {
		t.Fatalf("unexpected budget after update: %+v", got)
	}

	if err := s.DeleteBudget(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(s.Budgets()) != 0 {
		t.Fatalf("budget should be gone")
	}
}

func TestSingleFlightGate(t *testing.T) {
	rec := &recorder{}
	s := New(50*time.Millisecond, rec)
	ctx := context.Background()

	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		close(started)
		done <- s.AddTransaction(ctx, validTx())
	}()
	<-started

	// Wait for the first mutation to actually hold the gate
	deadline := time.Now().Add(time.Second)
	for !s.Loading() {
		if time.Now().After(deadline) {
			t.Fatalf("first mutation never took the gate")
		}
		time.Sleep(time.Millisecond)
	}

	if err := s.AddTransaction(ctx, validTx()); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy while a save is in flight, got %v", err)
	}

	if err := <-done; err != nil {
		t.Fatalf("first mutation failed: %v", err)
	}
	if len(s.Transactions()) != 1 {
		t.Fatalf("only the first mutation should have applied")
	}
	if s.Loading() {
		t.Fatalf("gate must be released after completion")
	}
}

func TestSeedAndVersion(t *testing.T) {
	rec := &recorder{}
	s := New(0, rec)

	if s.Version() != 0 {
		t.Fatalf("fresh store should be at version 0")
	}
	s.Seed([]core.Transaction{validTx()}, []core.Budget{validBudget()})

	if rec.count() != 0 {
		t.Fatalf("seeding must not notify")
	}
	if len(s.Transactions()) != 1 || len(s.Budgets()) != 1 {
		t.Fatalf("seed data missing")
	}
	if s.Transactions()[0].ID == "" || s.Budgets()[0].ID == "" {
		t.Fatalf("seed must assign missing ids")
	}
	v := s.Version()
	if v == 0 {
		t.Fatalf("seed should bump the version")
	}

	if err := s.AddTransaction(context.Background(), validTx()); err != nil {
		t.Fatalf("add: %v", err)
	}
	if s.Version() <= v {
		t.Fatalf("successful mutation must bump the version")
	}
}

func TestSnapshotsAreCopies(t *testing.T) {
	s := New(0, nil)
	s.Seed([]core.Transaction{validTx()}, nil)

	snap := s.Transactions()
	snap[0].Description = "tampered"

	if got := s.Transactions()[0].Description; got != "Groceries" {
		t.Fatalf("snapshot mutation leaked into the store: %q", got)
	}
}
