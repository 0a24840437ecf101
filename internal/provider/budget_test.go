package provider

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestBudget_CountsCalls(t *testing.T) {
	b := NewBudget(1000, 1000)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := b.Wait(context.Background()); err != nil {
				t.Errorf("Wait() error: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := b.Calls(); got != 20 {
		t.Errorf("Calls() = %d, want 20", got)
	}
}

func TestBudget_CancelledContext(t *testing.T) {
	// Burst of 1 with a very slow refill: the second Wait must block
	// until the context gives up.
	b := NewBudget(0.001, 1)

	if err := b.Wait(context.Background()); err != nil {
		t.Fatalf("first Wait() error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := b.Wait(ctx); err == nil {
		t.Error("expected error from cancelled context")
	}
	if got := b.Calls(); got != 1 {
		t.Errorf("Calls() = %d, want 1 (denied waits are not charged)", got)
	}
}

func TestBudget_DefensiveDefaults(t *testing.T) {
	b := NewBudget(0, 0)
	if err := b.Wait(context.Background()); err != nil {
		t.Errorf("Wait() on default budget error: %v", err)
	}
}

func TestValidateSymbol(t *testing.T) {
	valid := []string{"AAPL", "MSFT", "0700.HK", "BRK.B"}
	for _, s := range valid {
		if err := ValidateSymbol(s); err != nil {
			t.Errorf("ValidateSymbol(%s) = %v, want nil", s, err)
		}
	}

	invalid := []string{"", "AAPL$", "WAY-TOO-LONG-SYMBOL-NAME", "A B"}
	for _, s := range invalid {
		if err := ValidateSymbol(s); err == nil {
			t.Errorf("ValidateSymbol(%s) = nil, want error", s)
		}
	}
}
