package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/instantverify/verify-api/internal/models"
	"github.com/instantverify/verify-api/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ReportStore persists the final verification reports
type ReportStore interface {
	// Generate writes the report for a finished request. It is idempotent:
	// regenerating replaces the previous report.
	Generate(ctx context.Context, request *models.VerificationRequest, steps []models.VerificationStep, records []models.CriminalRecordEntry) (*models.Report, error)

	// GetReport returns the request's report or models.ErrReportNotFound.
	GetReport(ctx context.Context, requestID string) (*models.Report, error)
}

// buildReport assembles the report document from the request's final state
func buildReport(request *models.VerificationRequest, steps []models.VerificationStep, records []models.CriminalRecordEntry) *models.Report {
	summaries := make([]models.ReportStepSummary, 0, len(steps))
	for _, step := range steps {
		summaries = append(summaries, models.ReportStepSummary{
			Name:        step.Name,
			Status:      step.Status,
			Description: step.Description,
		})
	}
	if records == nil {
		records = []models.CriminalRecordEntry{}
	}

	return &models.Report{
		ID:              utils.GenerateUUID(),
		RequestID:       request.ID,
		UserID:          request.UserID,
		Type:            request.Type,
		Status:          request.Status,
		Steps:           summaries,
		CriminalRecords: records,
		GeneratedAt:     time.Now(),
	}
}

// MongoReportStore is the MongoDB-backed report store
type MongoReportStore struct {
	reports *mongo.Collection
}

// NewMongoReportStore creates a report store over the given collection
func NewMongoReportStore(db *mongo.Database, collection string) *MongoReportStore {
	return &MongoReportStore{reports: db.Collection(collection)}
}

func (s *MongoReportStore) Generate(ctx context.Context, request *models.VerificationRequest, steps []models.VerificationStep, records []models.CriminalRecordEntry) (*models.Report, error) {
	report := buildReport(request, steps, records)

	_, err := s.reports.ReplaceOne(ctx,
		bson.M{"request_id": request.ID},
		report,
		options.Replace().SetUpsert(true))
	if err != nil {
		return nil, fmt.Errorf("failed to persist report: %w", err)
	}
	return report, nil
}

func (s *MongoReportStore) GetReport(ctx context.Context, requestID string) (*models.Report, error) {
	var report models.Report
	err := s.reports.FindOne(ctx, bson.M{"request_id": requestID}).Decode(&report)
	if err == mongo.ErrNoDocuments {
		return nil, models.ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load report: %w", err)
	}
	return &report, nil
}

// MemoryReportStore is an in-memory ReportStore used in tests
type MemoryReportStore struct {
	mu      sync.Mutex
	reports map[string]*models.Report
}

// NewMemoryReportStore creates an empty in-memory report store
func NewMemoryReportStore() *MemoryReportStore {
	return &MemoryReportStore{reports: make(map[string]*models.Report)}
}

func (s *MemoryReportStore) Generate(ctx context.Context, request *models.VerificationRequest, steps []models.VerificationStep, records []models.CriminalRecordEntry) (*models.Report, error) {
	report := buildReport(request, steps, records)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[request.ID] = report
	return report, nil
}

func (s *MemoryReportStore) GetReport(ctx context.Context, requestID string) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, ok := s.reports[requestID]
	if !ok {
		return nil, models.ErrReportNotFound
	}
	copied := *report
	return &copied, nil
}
