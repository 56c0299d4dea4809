package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/dorsta123/Case-Prep/internal/types"
)

// Error kinds reported in the "kind" field of error bodies.
const (
	KindValidation          = "validation"
	KindUpstreamGeneration  = "upstream_generation"
	KindUpstreamTimeout     = "upstream_timeout"
	KindMalformedEvaluation = "malformed_evaluation"
	KindPersistence         = "persistence"
	KindNotFound            = "not_found"
	KindSessionClosed       = "session_closed"
	KindInternal            = "internal"
)

// ErrorKind classifies err by the first typed error in its chain.
func ErrorKind(err error) string {
	var (
		validation *types.ValidationError
		upstream   *types.UpstreamGenerationError
		malformed  *types.MalformedEvaluationError
		persist    *types.PersistenceError
		notFound   *types.NotFoundError
		closed     *types.SessionClosedError
	)
	switch {
	case errors.As(err, &validation):
		return KindValidation
	case errors.As(err, &upstream):
		if errors.Is(err, context.DeadlineExceeded) {
			return KindUpstreamTimeout
		}
		return KindUpstreamGeneration
	case errors.As(err, &malformed):
		return KindMalformedEvaluation
	case errors.As(err, &notFound):
		return KindNotFound
	case errors.As(err, &closed):
		return KindSessionClosed
	case errors.As(err, &persist):
		return KindPersistence
	default:
		return KindInternal
	}
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	switch ErrorKind(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindSessionClosed:
		return http.StatusConflict
	case KindUpstreamGeneration, KindMalformedEvaluation:
		return http.StatusBadGateway
	case KindUpstreamTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
