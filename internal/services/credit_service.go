package services

import (
	"context"
	"fmt"
	"time"

	"github.com/instantverify/verify-api/internal/models"
	"github.com/instantverify/verify-api/internal/observability"
	"github.com/instantverify/verify-api/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreditLedger tracks per-user verification credits. One credit buys one
// verification submission.
type CreditLedger interface {
	// Deduct atomically removes one credit and returns the remaining
	// balance. It returns models.ErrInsufficientCredits without changing
	// the balance when the user has no credits.
	Deduct(ctx context.Context, userID string) (int64, error)

	// Refund returns one credit, used when submission fails after the
	// deduction already happened.
	Refund(ctx context.Context, userID string) (int64, error)

	// Grant adds credits to the user's balance, creating the account if
	// needed, and returns the new balance.
	Grant(ctx context.Context, userID string, amount int64) (int64, error)

	// Balance returns the user's current balance. Unknown users have a
	// zero balance.
	Balance(ctx context.Context, userID string) (int64, error)
}

// creditAccount is the persisted ledger document
type creditAccount struct {
	UserID    string    `bson:"_id"`
	Balance   int64     `bson:"balance"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoCreditLedger is the MongoDB-backed credit ledger. Deductions use a
// conditional findAndModify so the balance can never go negative under
// concurrent submissions.
type MongoCreditLedger struct {
	credits *mongo.Collection
}

// NewMongoCreditLedger creates a credit ledger over the given collection
func NewMongoCreditLedger(db *mongo.Database, collection string) *MongoCreditLedger {
	return &MongoCreditLedger{credits: db.Collection(collection)}
}

func (l *MongoCreditLedger) Deduct(ctx context.Context, userID string) (int64, error) {
	ctx, span, cleanup := utils.TraceOperation(ctx, "credit_ledger.deduct", map[string]interface{}{
		"user_id": userID,
	})
	defer cleanup()

	var account creditAccount
	err := l.credits.FindOneAndUpdate(ctx,
		bson.M{"_id": userID, "balance": bson.M{"$gte": int64(1)}},
		bson.M{
			"$inc": bson.M{"balance": -1},
			"$set": bson.M{"updated_at": time.Now()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&account)

	if err == mongo.ErrNoDocuments {
		observability.CreditDeductions.WithLabelValues("insufficient").Inc()
		return 0, models.ErrInsufficientCredits
	}
	if err != nil {
		observability.CreditDeductions.WithLabelValues("error").Inc()
		utils.RecordErrorInSpan(span, err, nil)
		return 0, fmt.Errorf("failed to deduct credit: %w", err)
	}

	observability.CreditDeductions.WithLabelValues("success").Inc()
	return account.Balance, nil
}

func (l *MongoCreditLedger) Refund(ctx context.Context, userID string) (int64, error) {
	return l.Grant(ctx, userID, 1)
}

func (l *MongoCreditLedger) Grant(ctx context.Context, userID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("grant amount must be positive, got %d", amount)
	}

	var account creditAccount
	err := l.credits.FindOneAndUpdate(ctx,
		bson.M{"_id": userID},
		bson.M{
			"$inc": bson.M{"balance": amount},
			"$set": bson.M{"updated_at": time.Now()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After).SetUpsert(true),
	).Decode(&account)
	if err != nil {
		return 0, fmt.Errorf("failed to grant credits: %w", err)
	}
	return account.Balance, nil
}

func (l *MongoCreditLedger) Balance(ctx context.Context, userID string) (int64, error) {
	var account creditAccount
	err := l.credits.FindOne(ctx, bson.M{"_id": userID}).Decode(&account)
	if err == mongo.ErrNoDocuments {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load credit balance: %w", err)
	}
	return account.Balance, nil
}
