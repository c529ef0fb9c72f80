package evaluation

import (
	"github.com/pkg/errors"
)

var (
	ErrUnauthorized    = errors.New("evaluator identity is required")
	ErrNotEvaluator    = errors.New("your role is not allowed to evaluate teachers")
	ErrNotAssigned     = errors.New("you are not assigned to evaluate this teacher")
	ErrProgramMismatch = errors.New("this teacher is outside of your assigned programs")
	ErrNoScheduleSet   = errors.New("this teacher has no evaluation schedule set")
	ErrNotFound        = errors.New("evaluation not found")
	ErrNotDraft        = errors.New("evaluation is not a draft")
)

// PersistenceError is a storage failure of the transactional steps. Its message is the underlying one.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string { return e.Err.Error() }
func (e *PersistenceError) Unwrap() error { return e.Err }

func IsPersistenceError(err error) bool {
	_, ok := errors.Cause(err).(*PersistenceError)
	return ok
}

// RecommendationError is a failure of the recommendation service. It is logged, never returned to callers.
type RecommendationError struct {
	EvaluationID string
	Err          error
}

func (e *RecommendationError) Error() string {
	return "generating recommendations for evaluation " + e.EvaluationID + ": " + e.Err.Error()
}
func (e *RecommendationError) Unwrap() error { return e.Err }
