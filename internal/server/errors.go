package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/talent-pool/internal/ingestion"
	"github.com/jonathan/talent-pool/internal/schemas"
	"github.com/jonathan/talent-pool/internal/types"
)

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validation *types.ValidationError
		notFound   *types.NotFoundError
		protected  *types.ProtectedEntityError
		empty      *types.EmptyBatchError
		noop       *types.NoOpError
		schemaErr  *schemas.ValidationError
		feedErr    *ingestion.Error
		fieldErrs  validator.ValidationErrors
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &noop):
		return http.StatusOK
	case errors.As(err, &validation), errors.As(err, &schemaErr), errors.As(err, &feedErr), errors.As(err, &fieldErrs):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &protected):
		return http.StatusConflict
	case errors.As(err, &empty):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage renders err for a response body. Validator errors are reduced
// to their first failing field.
func errorMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return fmt.Sprintf("validation error: %s - %s", fe.Field(), fe.Tag())
	}
	return err.Error()
}

// writeError writes err with the status HTTPStatus picks for it.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status == http.StatusInternalServerError {
		s.logf("internal error: %v", err)
	}
	body := map[string]any{"error": errorMessage(err)}

	var empty *types.EmptyBatchError
	if errors.As(err, &empty) && len(empty.AlreadyScreened) > 0 {
		body["already_screened"] = empty.AlreadyScreened
	}
	s.jsonResponse(w, status, body)
}
