package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/instantverify/verify-api/internal/models"
)

// MemoryCreditLedger is an in-memory CreditLedger used in tests
type MemoryCreditLedger struct {
	mu       sync.Mutex
	balances map[string]int64
}

// NewMemoryCreditLedger creates an empty in-memory credit ledger
func NewMemoryCreditLedger() *MemoryCreditLedger {
	return &MemoryCreditLedger{balances: make(map[string]int64)}
}

func (l *MemoryCreditLedger) Deduct(ctx context.Context, userID string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.balances[userID] < 1 {
		return 0, models.ErrInsufficientCredits
	}
	l.balances[userID]--
	return l.balances[userID], nil
}

func (l *MemoryCreditLedger) Refund(ctx context.Context, userID string) (int64, error) {
	return l.Grant(ctx, userID, 1)
}

func (l *MemoryCreditLedger) Grant(ctx context.Context, userID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("grant amount must be positive, got %d", amount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.balances[userID] += amount
	return l.balances[userID], nil
}

func (l *MemoryCreditLedger) Balance(ctx context.Context, userID string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[userID], nil
}
