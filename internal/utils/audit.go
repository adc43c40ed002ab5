package utils

import (
	"context"
	"sync"
	"time"

	"github.com/instantverify/verify-api/internal/config"
	"github.com/instantverify/verify-api/internal/logging"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// AuditLog represents an audit log entry
type AuditLog struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RequestID  string             `bson:"request_id" json:"request_id"`
	UserID     string             `bson:"user_id,omitempty" json:"user_id,omitempty"`
	Action     string             `bson:"action" json:"action"`
	Resource   string             `bson:"resource" json:"resource"`
	ResourceID string             `bson:"resource_id,omitempty" json:"resource_id,omitempty"`
	OldValue   interface{}        `bson:"old_value,omitempty" json:"old_value,omitempty"`
	NewValue   interface{}        `bson:"new_value,omitempty" json:"new_value,omitempty"`
	Timestamp  time.Time          `bson:"timestamp" json:"timestamp"`
	Metadata   map[string]string  `bson:"metadata,omitempty" json:"metadata,omitempty"`
}

// Audit constants
const (
	AuditActionSubmit     = "SUBMIT"
	AuditActionTransition = "TRANSITION"
	AuditActionComplete   = "COMPLETE"
	AuditActionDeduct     = "DEDUCT"
	AuditActionRefund     = "REFUND"
	AuditActionGenerate   = "GENERATE"

	AuditResourceRequest = "verification_request"
	AuditResourceStep    = "verification_step"
	AuditResourceCredit  = "credit"
	AuditResourceReport  = "report"
)

// AuditWorker manages asynchronous audit logging
type AuditWorker struct {
	auditChan chan AuditLog
	workers   int
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
}

var (
	auditWorker *AuditWorker
	auditOnce   sync.Once
)

// InitAuditWorker initializes the audit worker
func InitAuditWorker(workers int, bufferSize int) {
	auditOnce.Do(func() {
		ctx, cancel := context.WithCancel(context.Background())
		auditWorker = &AuditWorker{
			auditChan: make(chan AuditLog, bufferSize),
			workers:   workers,
			ctx:       ctx,
			cancel:    cancel,
		}
		auditWorker.start()
	})
}

// start starts the audit worker pool
func (aw *AuditWorker) start() {
	aw.wg.Add(aw.workers)

	for i := 0; i < aw.workers; i++ {
		go func() {
			defer aw.wg.Done()
			aw.processAuditLogs()
		}()
	}

	logging.Logger.Info("audit worker started",
		zap.Int("workers", aw.workers),
		zap.Int("buffer_size", cap(aw.auditChan)))
}

// processAuditLogs drains the channel and inserts logs in batches
func (aw *AuditWorker) processAuditLogs() {
	const maxBatch = 50
	const flushInterval = 2 * time.Second

	batch := make([]interface{}, 0, maxBatch)
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		collection := config.MongoDB.Collection(config.AppConfig.AuditLogCollection)
		if _, err := collection.InsertMany(ctx, batch); err != nil {
			logging.Logger.Error("failed to insert audit batch",
				zap.Int("batch_size", len(batch)),
				zap.Error(err))
		}
		batch = batch[:0]
	}

	for {
		select {
		case entry, ok := <-aw.auditChan:
			if !ok {
				flush()
				return
			}
			batch = append(batch, entry)
			if len(batch) >= maxBatch {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-aw.ctx.Done():
			flush()
			return
		}
	}
}

// StopAuditWorker stops the audit worker and flushes pending entries
func StopAuditWorker() {
	if auditWorker == nil {
		return
	}
	auditWorker.cancel()
	auditWorker.wg.Wait()
}

// LogAudit enqueues an audit entry without blocking the caller. Entries are
// dropped when the buffer is full; the audit trail is best-effort.
func LogAudit(entry AuditLog) {
	if auditWorker == nil {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	select {
	case auditWorker.auditChan <- entry:
	default:
		logging.Logger.Warn("audit buffer full, dropping entry",
			zap.String("action", entry.Action),
			zap.String("resource", entry.Resource))
	}
}

// LogVerificationSubmitted records the submission of a verification request
func LogVerificationSubmitted(requestID, userID string, verificationType string) {
	LogAudit(AuditLog{
		RequestID: requestID,
		UserID:    userID,
		Action:    AuditActionSubmit,
		Resource:  AuditResourceRequest,
		Metadata:  map[string]string{"type": verificationType},
	})
}

// LogStepTransition records a verification step status change
func LogStepTransition(requestID, stepName, oldStatus, newStatus string) {
	LogAudit(AuditLog{
		RequestID:  requestID,
		Action:     AuditActionTransition,
		Resource:   AuditResourceStep,
		ResourceID: stepName,
		OldValue:   oldStatus,
		NewValue:   newStatus,
	})
}

// LogCreditDeduction records a credit deduction against a user
func LogCreditDeduction(requestID, userID string, balanceAfter int64) {
	LogAudit(AuditLog{
		RequestID: requestID,
		UserID:    userID,
		Action:    AuditActionDeduct,
		Resource:  AuditResourceCredit,
		NewValue:  balanceAfter,
	})
}
