package handler

import (
	"errors"
	"net/http"

	"github.com/homevest/backoffice/internal/errHandler"
	"github.com/homevest/backoffice/internal/workflow"
)

// respondWorkflowError translates an engine error into the matching HTTP
// response. Anything not in the taxonomy is a server error.
func respondWorkflowError(eh *errHandler.ErrorHandler, w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *workflow.ValidationError

	switch {
	case errors.As(err, &validationErr):
		eh.FailedValidation(w, r, validationErr.Messages)
	case errors.Is(err, workflow.ErrNotFound):
		eh.NotFound(w, r)
	case errors.Is(err, workflow.ErrForbidden):
		eh.Forbidden(w, r)
	case errors.Is(err, workflow.ErrDuplicateAccount),
		errors.Is(err, workflow.ErrAlreadyInProgress),
		errors.Is(err, workflow.ErrAlreadyProcessed),
		errors.Is(err, workflow.ErrTicketClosed):
		eh.Conflict(w, r, err.Error())
	default:
		eh.ServerError(w, r, err)
	}
}
