package models

import "math"

// AggregateStatus derives a request's status from its step statuses.
// Precedence is strict: any failed step fails the request; otherwise a fully
// completed step set completes it; otherwise any processing step marks it
// processing; everything else is pending. A warning step matches none of the
// first three conditions, so it behaves like a pending step here.
func AggregateStatus(steps []VerificationStep) RequestStatus {
	if len(steps) == 0 {
		return RequestStatusPending
	}

	anyProcessing := false
	allCompleted := true
	for _, step := range steps {
		switch step.Status {
		case StepStatusFailed:
			return RequestStatusFailed
		case StepStatusProcessing:
			anyProcessing = true
			allCompleted = false
		case StepStatusCompleted:
		default:
			allCompleted = false
		}
	}

	if allCompleted {
		return RequestStatusCompleted
	}
	if anyProcessing {
		return RequestStatusProcessing
	}
	return RequestStatusPending
}

// ProgressPercent returns the request's completion percentage, rounded to the
// nearest integer.
func ProgressPercent(steps []VerificationStep) int {
	if len(steps) == 0 {
		return 0
	}

	completed := 0
	for _, step := range steps {
		if step.Status == StepStatusCompleted {
			completed++
		}
	}

	return int(math.Round(100 * float64(completed) / float64(len(steps))))
}
