package services

import (
	"context"
	"fmt"
	"time"

	"github.com/instantverify/verify-api/internal/logging"
	"github.com/instantverify/verify-api/internal/models"
	"github.com/instantverify/verify-api/internal/observability"
	"github.com/instantverify/verify-api/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const maxStatusUpdateRetries = 3

// MongoStepStore is the MongoDB-backed step store. Step transitions use a
// findAndModify on the step document followed by a versioned compare-and-swap
// on the request document, retried on contention.
type MongoStepStore struct {
	requests *mongo.Collection
	steps    *mongo.Collection
}

// NewMongoStepStore creates a step store over the given collections
func NewMongoStepStore(db *mongo.Database, requestCollection, stepCollection string) *MongoStepStore {
	return &MongoStepStore{
		requests: db.Collection(requestCollection),
		steps:    db.Collection(stepCollection),
	}
}

func (s *MongoStepStore) CreateRequest(ctx context.Context, request *models.VerificationRequest) error {
	ctx, span, cleanup := utils.TraceOperation(ctx, "step_store.create_request", map[string]interface{}{
		"request_id": request.ID,
		"type":       string(request.Type),
	})
	defer cleanup()

	defs, err := models.StepsForType(request.Type)
	if err != nil {
		return err
	}

	now := time.Now()
	request.Status = models.RequestStatusPending
	request.Version = 1
	request.CreatedAt = now
	request.UpdatedAt = now

	if _, err := s.requests.InsertOne(ctx, request); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrDuplicateInitialization
		}
		utils.RecordErrorInSpan(span, err, nil)
		return fmt.Errorf("failed to insert verification request: %w", err)
	}

	stepDocs := make([]interface{}, 0, len(defs))
	for i, def := range defs {
		stepDocs = append(stepDocs, models.VerificationStep{
			RequestID:   request.ID,
			Name:        def.Name,
			Order:       i + 1,
			Status:      models.StepStatusPending,
			Description: def.Description,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}

	if _, err := s.steps.InsertMany(ctx, stepDocs); err != nil {
		// The unique request_id+name index makes re-initialization visible
		// as a duplicate key error.
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrDuplicateInitialization
		}
		utils.RecordErrorInSpan(span, err, nil)
		return fmt.Errorf("failed to insert verification steps: %w", err)
	}

	return nil
}

func (s *MongoStepStore) GetRequest(ctx context.Context, requestID string) (*models.VerificationRequest, error) {
	var request models.VerificationRequest
	err := s.requests.FindOne(ctx, bson.M{"_id": requestID}).Decode(&request)
	if err == mongo.ErrNoDocuments {
		return nil, models.ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load verification request: %w", err)
	}
	return &request, nil
}

func (s *MongoStepStore) ListSteps(ctx context.Context, requestID string) ([]models.VerificationStep, error) {
	cursor, err := s.steps.Find(ctx,
		bson.M{"request_id": requestID},
		options.Find().SetSort(bson.M{"order": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to query verification steps: %w", err)
	}
	defer cursor.Close(ctx)

	var steps []models.VerificationStep
	if err := cursor.All(ctx, &steps); err != nil {
		return nil, fmt.Errorf("failed to decode verification steps: %w", err)
	}

	if len(steps) == 0 {
		// Distinguish an unknown request from a known one with no steps
		if _, err := s.GetRequest(ctx, requestID); err != nil {
			return nil, err
		}
	}
	return steps, nil
}

func (s *MongoStepStore) UpdateStep(ctx context.Context, requestID, stepName string, status models.StepStatus, description string) (*models.VerificationStep, models.RequestStatus, error) {
	ctx, span, cleanup := utils.TraceOperation(ctx, "step_store.update_step", map[string]interface{}{
		"request_id": requestID,
		"step":       stepName,
		"status":     string(status),
	})
	defer cleanup()

	update := bson.M{
		"status":     status,
		"updated_at": time.Now(),
	}
	if description != "" {
		update["description"] = description
	}

	var step models.VerificationStep
	err := s.steps.FindOneAndUpdate(ctx,
		bson.M{"request_id": requestID, "name": stepName},
		bson.M{"$set": update},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&step)
	if err == mongo.ErrNoDocuments {
		return nil, "", models.ErrStepNotFound
	}
	if err != nil {
		utils.RecordErrorInSpan(span, err, nil)
		return nil, "", fmt.Errorf("failed to update verification step: %w", err)
	}

	observability.StepTransitions.WithLabelValues(stepName, string(status)).Inc()

	aggregate, err := s.recomputeStatus(ctx, requestID)
	if err != nil {
		return nil, "", err
	}
	return &step, aggregate, nil
}

// recomputeStatus derives the aggregate status from the current step set and
// writes it back under the request's version guard.
func (s *MongoStepStore) recomputeStatus(ctx context.Context, requestID string) (models.RequestStatus, error) {
	for attempt := 0; attempt < maxStatusUpdateRetries; attempt++ {
		request, err := s.GetRequest(ctx, requestID)
		if err != nil {
			return "", err
		}

		steps, err := s.ListSteps(ctx, requestID)
		if err != nil {
			return "", err
		}

		aggregate := models.AggregateStatus(steps)
		if aggregate == request.Status {
			return aggregate, nil
		}

		result, err := s.requests.UpdateOne(ctx,
			bson.M{"_id": requestID, "version": request.Version},
			bson.M{
				"$set": bson.M{"status": aggregate, "updated_at": time.Now()},
				"$inc": bson.M{"version": 1},
			})
		if err != nil {
			return "", fmt.Errorf("failed to update request status: %w", err)
		}
		if result.ModifiedCount == 1 {
			return aggregate, nil
		}

		// Version moved under us; re-read and try again
		logging.Logger.Debug("request status update contention",
			zap.String("request_id", requestID),
			zap.Int("attempt", attempt+1))
	}

	return "", fmt.Errorf("failed to update request %s status after %d attempts", requestID, maxStatusUpdateRetries)
}

func (s *MongoStepStore) ListUserRequests(ctx context.Context, userID string, limit int64) ([]models.VerificationRequest, error) {
	if limit <= 0 {
		limit = 50
	}

	cursor, err := s.requests.Find(ctx,
		bson.M{"user_id": userID},
		options.Find().SetSort(bson.M{"created_at": -1}).SetLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query user requests: %w", err)
	}
	defer cursor.Close(ctx)

	var requests []models.VerificationRequest
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, fmt.Errorf("failed to decode user requests: %w", err)
	}
	return requests, nil
}
