package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/trezcool/observa/core/evaluation"
)

// resultMiddleware makes every failure of the route answer with the evaluation.Result contract.
// It must come before any other middleware of the route.
func resultMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		err := next(ctx)
		if err == nil {
			return nil
		}
		if _, ok := err.(*submissionError); ok {
			return err
		}
		return &submissionError{err}
	}
}

// evaluatorMiddleware only lets through users whose role can evaluate teachers.
func evaluatorMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		rc, err := contextRequestContext(ctx)
		if err != nil {
			return evaluation.ErrUnauthorized
		}
		if !rc.Role.Capabilities().CanEvaluate {
			return evaluation.ErrNotEvaluator
		}
		return next(ctx)
	}
}

// authenticatedMiddleware rejects tokens that carry no user.
func authenticatedMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if _, err := contextRequestContext(ctx); err != nil {
			return err
		}
		return next(ctx)
	}
}
