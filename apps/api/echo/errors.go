package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/observa/core"
	"github.com/trezcool/observa/core/evaluation"
)

var errUnauthorized = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")

// submissionError makes the error handler answer with the evaluation.Result contract.
type submissionError struct {
	err error
}

func (e *submissionError) Error() string { return e.err.Error() }
func (e *submissionError) Cause() error  { return e.err }

// resultResponse is an evaluation.Result with the field errors of a rejected form.
type resultResponse struct {
	evaluation.Result
	Errors map[string]string `json:"errors,omitempty"`
}

// evaluationErrorCode is the response status of the evaluation errors.
func evaluationErrorCode(err error) (int, bool) {
	switch err {
	case evaluation.ErrUnauthorized:
		return http.StatusUnauthorized, true
	case evaluation.ErrNotEvaluator, evaluation.ErrNotAssigned, evaluation.ErrProgramMismatch:
		return http.StatusForbidden, true
	case evaluation.ErrNotFound:
		return http.StatusNotFound, true
	case evaluation.ErrNoScheduleSet, evaluation.ErrNotDraft:
		return http.StatusConflict, true
	}
	return 0, false
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var (
			code    int
			message interface{}
			fields  map[string]string
		)

		_, isSubmission := err.(*submissionError)
		origErr := errors.Cause(err)

		switch e := origErr.(type) {
		case *echo.HTTPError:
			if e == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = e.Message
				break
			}
			if e.Internal != nil {
				if herr, ok := e.Internal.(*echo.HTTPError); ok {
					e = herr
				}
			}
			code = e.Code
			message = e.Message
		case *core.ValidationError:
			code = http.StatusBadRequest
			if len(e.Fields) > 0 {
				fields = e.FieldMap()
				message = fields
			} else {
				message = e.Error()
			}
		default:
			if c, ok := evaluationErrorCode(origErr); ok {
				code = c
				message = origErr.Error()
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg
			if evaluation.IsPersistenceError(origErr) {
				message = origErr.Error()
			}

			var args []interface{}
			args = append(args, errors.Wrap(err, msg))
			if rc, rcErr := contextRequestContext(ctx); rcErr == nil {
				args = append(args, rc)
			}
			logger.Error(msg, args...)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		var body interface{}
		switch {
		case isSubmission:
			msg, ok := message.(string)
			if !ok {
				msg = origErr.Error()
			}
			body = resultResponse{Result: evaluation.Result{Success: false, Message: msg}, Errors: fields}
		case ctx.Echo().Debug:
			body = echo.Map{"error": err.Error()}
		default:
			if m, ok := message.(string); ok {
				body = echo.Map{"error": m}
			} else {
				body = message
			}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, body)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
