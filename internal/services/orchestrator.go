package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/instantverify/verify-api/internal/logging"
	"github.com/instantverify/verify-api/internal/models"
	"github.com/instantverify/verify-api/internal/observability"
	"github.com/instantverify/verify-api/internal/providers"
	"github.com/instantverify/verify-api/internal/utils"
	"go.uber.org/zap"
)

// ProgressNotifier is notified after every persisted step transition
type ProgressNotifier interface {
	StepChanged(ctx context.Context, requestID string, step *models.VerificationStep, status models.RequestStatus)
}

// Orchestrator drives a verification request through its step pipeline in
// strict catalog order. Each step is marked processing, executed against the
// matching verifier, then marked completed or failed; the first failure halts
// the pipeline. A failed verification is a domain outcome, so Run returns an
// error only for infrastructure problems.
type Orchestrator struct {
	store              StepStore
	verifiers          *providers.Verifiers
	reports            ReportStore
	notifier           ProgressNotifier
	faceMatchThreshold float64
	timeout            time.Duration
}

// NewOrchestrator creates an orchestrator. notifier may be nil.
func NewOrchestrator(store StepStore, verifiers *providers.Verifiers, reports ReportStore, notifier ProgressNotifier, faceMatchThreshold float64, timeout time.Duration) *Orchestrator {
	return &Orchestrator{
		store:              store,
		verifiers:          verifiers,
		reports:            reports,
		notifier:           notifier,
		faceMatchThreshold: faceMatchThreshold,
		timeout:            timeout,
	}
}

// stepOutcome is the result of executing one step
type stepOutcome struct {
	status      models.StepStatus
	description string
}

// Run executes the request's pipeline. Already-completed steps are skipped,
// so a request interrupted by a crash resumes where it stopped.
func (o *Orchestrator) Run(ctx context.Context, requestID string) (err error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	ctx, span, cleanup := utils.TraceOperation(ctx, "orchestrator.run", map[string]interface{}{
		"request_id": requestID,
	})
	defer cleanup()

	request, err := o.store.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}

	if request.Status == models.RequestStatusCompleted || request.Status == models.RequestStatusFailed {
		logging.Logger.Info("request already in terminal status, skipping",
			zap.String("request_id", requestID),
			zap.String("status", string(request.Status)))
		return nil
	}

	steps, err := o.store.ListSteps(ctx, requestID)
	if err != nil {
		return err
	}

	var currentStep string
	defer func() {
		if r := recover(); r != nil {
			logging.Logger.Error("panic during verification pipeline",
				zap.String("request_id", requestID),
				zap.String("step", currentStep),
				zap.Any("panic", r))
			if currentStep != "" {
				o.abortStep(requestID, currentStep)
			}
			observability.VerificationOutcomes.WithLabelValues(string(request.Type), string(models.RequestStatusFailed)).Inc()
			err = fmt.Errorf("verification pipeline panicked at step %q", currentStep)
		}
	}()

	var criminalRecords []models.CriminalRecordEntry

	for _, step := range steps {
		if step.Status == models.StepStatusCompleted {
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		currentStep = step.Name

		stepCtx, stepSpan := utils.TraceStepExecution(ctx, requestID, step.Name)

		if err := o.transition(stepCtx, requestID, step.Name, models.StepStatusProcessing, ""); err != nil {
			stepSpan.End()
			return err
		}

		outcome := o.executeStep(stepCtx, request, step.Name, &criminalRecords)
		stepSpan.End()

		if err := o.transition(stepCtx, requestID, step.Name, outcome.status, outcome.description); err != nil {
			o.abortStep(requestID, step.Name)
			return err
		}

		utils.LogStepTransition(requestID, step.Name, string(models.StepStatusProcessing), string(outcome.status))

		if outcome.status == models.StepStatusFailed {
			logging.Logger.Info("verification failed",
				zap.String("request_id", requestID),
				zap.String("step", step.Name),
				zap.String("reason", outcome.description))
			observability.VerificationOutcomes.WithLabelValues(string(request.Type), string(models.RequestStatusFailed)).Inc()
			return nil
		}
	}
	currentStep = ""

	utils.LogAudit(utils.AuditLog{
		RequestID: requestID,
		UserID:    request.UserID,
		Action:    utils.AuditActionComplete,
		Resource:  utils.AuditResourceRequest,
	})
	observability.VerificationOutcomes.WithLabelValues(string(request.Type), string(models.RequestStatusCompleted)).Inc()
	utils.AddSpanAttribute(span, "outcome", "completed")

	logging.Logger.Info("verification completed",
		zap.String("request_id", requestID),
		zap.String("type", string(request.Type)))
	return nil
}

// transition persists a step status change and notifies listeners
func (o *Orchestrator) transition(ctx context.Context, requestID, stepName string, status models.StepStatus, description string) error {
	step, aggregate, err := o.store.UpdateStep(ctx, requestID, stepName, status, description)
	if err != nil {
		return fmt.Errorf("failed to transition step %q: %w", stepName, err)
	}
	if o.notifier != nil {
		o.notifier.StepChanged(ctx, requestID, step, aggregate)
	}
	return nil
}

// abortStep best-effort marks an in-flight step failed so an aborted run
// never leaves a step stuck in processing. It uses a fresh background context
// because the run context may already be cancelled or expired.
func (o *Orchestrator) abortStep(requestID, stepName string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := o.transition(ctx, requestID, stepName, models.StepStatusFailed, "Internal processing error"); err != nil {
		logging.Logger.Error("failed to mark aborted step",
			zap.String("request_id", requestID),
			zap.String("step", stepName),
			zap.Error(err))
	}
}

// executeStep runs the verifier behind one named step and maps its result to
// a step outcome. Provider failures on evidence-gathering steps fail the
// step; the Criminal Records step is the exception and always completes.
func (o *Orchestrator) executeStep(ctx context.Context, request *models.VerificationRequest, stepName string, criminalRecords *[]models.CriminalRecordEntry) stepOutcome {
	docs := request.Documents

	switch stepName {
	case models.StepDocumentUpload:
		if err := utils.ValidateDocuments(request.Type, docs); err != nil {
			return stepOutcome{models.StepStatusFailed, err.Error()}
		}
		return stepOutcome{models.StepStatusCompleted, "Documents validated"}

	case models.StepOTPVerification:
		result, err := o.verifiers.ID.VerifyOTP(ctx, docs.AadhaarNumber, docs.OTP)
		return o.resultOutcome(result, err, "OTP verified")

	case models.StepLicenseVerification:
		result, err := o.verifiers.License.VerifyLicense(ctx, docs.LicenseNumber, docs.DateOfBirth)
		return o.resultOutcome(result, err, "License verified")

	case models.StepUIDAIVerification:
		result, err := o.verifiers.ID.VerifyID(ctx, docs.AadhaarNumber, providers.Identity{
			Name:        docs.Name,
			DateOfBirth: docs.DateOfBirth,
			FatherName:  docs.FatherName,
		})
		return o.resultOutcome(result, err, "Identity confirmed by UIDAI")

	case models.StepFaceMatch:
		match, err := o.verifiers.Face.MatchFaces(ctx, docs.DocumentPhotoURL, docs.LivePhotoURL)
		if err != nil {
			return o.errorOutcome(err)
		}
		description := fmt.Sprintf("Face match confidence %.2f", match.Confidence)
		if match.Confidence < o.faceMatchThreshold {
			return stepOutcome{models.StepStatusFailed, description + " below threshold"}
		}
		return stepOutcome{models.StepStatusCompleted, description}

	case models.StepCriminalRecords:
		records, err := o.verifiers.Criminal.CheckRecords(ctx, providers.Identity{
			Name:        docs.Name,
			DateOfBirth: docs.DateOfBirth,
			FatherName:  docs.FatherName,
		})
		// Record sources are unreliable; their unavailability never blocks
		// the verification.
		if err != nil {
			logging.Logger.Warn("criminal record check unavailable",
				zap.String("request_id", request.ID),
				zap.Error(err))
			return stepOutcome{models.StepStatusCompleted, "Record sources unavailable, manual review recommended"}
		}
		*criminalRecords = records
		if len(records) > 0 {
			return stepOutcome{models.StepStatusCompleted, fmt.Sprintf("%d record(s) found", len(records))}
		}
		return stepOutcome{models.StepStatusCompleted, "No records found"}

	case models.StepReportGeneration:
		return o.generateReport(ctx, request, *criminalRecords)
	}

	return stepOutcome{models.StepStatusFailed, fmt.Sprintf("No executor for step %q", stepName)}
}

// resultOutcome maps a provider Result to a step outcome
func (o *Orchestrator) resultOutcome(result providers.Result, err error, successDescription string) stepOutcome {
	if err != nil {
		return o.errorOutcome(err)
	}
	if !result.Verified {
		description := result.Message
		if description == "" {
			description = "Verification failed"
		}
		return stepOutcome{models.StepStatusFailed, description}
	}
	if result.Message != "" {
		successDescription = result.Message
	}
	return stepOutcome{models.StepStatusCompleted, successDescription}
}

// errorOutcome maps a provider error to a failed outcome with a
// client-presentable description
func (o *Orchestrator) errorOutcome(err error) stepOutcome {
	if errors.Is(err, providers.ErrInvalidFormat) {
		return stepOutcome{models.StepStatusFailed, "Submitted document has an invalid format"}
	}
	var provErr *providers.ProviderError
	if errors.As(err, &provErr) {
		return stepOutcome{models.StepStatusFailed, "Verification service temporarily unavailable"}
	}
	return stepOutcome{models.StepStatusFailed, "Verification could not be completed"}
}

// generateReport persists the final report. The report records the request's
// final status, so the Report Generation step itself is counted as completed
// before aggregation.
func (o *Orchestrator) generateReport(ctx context.Context, request *models.VerificationRequest, records []models.CriminalRecordEntry) stepOutcome {
	steps, err := o.store.ListSteps(ctx, request.ID)
	if err != nil {
		logging.Logger.Error("failed to load steps for report",
			zap.String("request_id", request.ID),
			zap.Error(err))
		return stepOutcome{models.StepStatusFailed, "Internal processing error"}
	}

	final := make([]models.VerificationStep, len(steps))
	copy(final, steps)
	for i := range final {
		if final[i].Name == models.StepReportGeneration {
			final[i].Status = models.StepStatusCompleted
			final[i].Description = "Report generated"
		}
	}

	snapshot := *request
	snapshot.Status = models.AggregateStatus(final)

	report, err := o.reports.Generate(ctx, &snapshot, final, records)
	if err != nil {
		logging.Logger.Error("failed to generate report",
			zap.String("request_id", request.ID),
			zap.Error(err))
		return stepOutcome{models.StepStatusFailed, "Report generation failed"}
	}

	utils.LogAudit(utils.AuditLog{
		RequestID:  request.ID,
		UserID:     request.UserID,
		Action:     utils.AuditActionGenerate,
		Resource:   utils.AuditResourceReport,
		ResourceID: report.ID,
	})
	return stepOutcome{models.StepStatusCompleted, "Report generated"}
}
