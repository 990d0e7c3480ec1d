package research

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrQuota marks a transient rate or resource limit failure. Backends wrap
	// it so that IsQuotaError does not depend on message text.
	ErrQuota = errors.New("quota exhausted")

	// ErrMalformedResponse is returned when a capability answer fails validation.
	ErrMalformedResponse = errors.New("malformed capability response")

	// ErrEmptyPlan is returned when the planner proposes no objectives.
	ErrEmptyPlan = errors.New("planner returned no objectives")

	// ErrPlanning wraps planner failures. It aborts the run.
	ErrPlanning = errors.New("planning failed")

	// ErrReportSynthesis wraps report synthesis failures. It aborts the run.
	ErrReportSynthesis = errors.New("report synthesis failed")

	// ErrObjectiveNotFound is returned when an objective id is unknown.
	ErrObjectiveNotFound = errors.New("objective not found")

	// ErrObjectiveNotCompleted is returned when regenerating an unfinished objective.
	ErrObjectiveNotCompleted = errors.New("objective is not completed")

	// ErrInvalidInput is returned for empty topics or slides.
	ErrInvalidInput = errors.New("invalid input")
)

var quotaMarkers = []string{
	"quota",
	"resource_exhausted",
	"resource exhausted",
	"too many requests",
	"rate limit",
}

// status429 matches 429 as an HTTP status, leading the message or following
// "status", "code", "http" or "error", but not inside ports, sizes or ids.
var status429 = regexp.MustCompile(`(?:^|status|code|http|error)\W{0,3}429\b`)

// IsQuotaError classifies err as a transient quota condition, either through
// ErrQuota or through the wording backends commonly use for HTTP 429.
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrQuota) {
		return true
	}
	msg := strings.ToLower(err.Error())
	if status429.MatchString(msg) {
		return true
	}
	for _, m := range quotaMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// Stage names a step of the asset synthesis pipeline.
type Stage string

const (
	StageDesign Stage = "design"
	StageScript Stage = "script"
	StageImage  Stage = "image"
	StageAudit  Stage = "audit"
)

// StageError reports which asset stage failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("asset stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
