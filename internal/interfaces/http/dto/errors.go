package dto

import (
	"net/http"

	"github.com/offeringbowl/backend/internal/domain/shared"
)

// MsgInternal replaces the message of unclassified errors
const MsgInternal = "Internal server error"

// StatusForKind maps an error kind to its HTTP status code
func StatusForKind(kind shared.Kind) int {
	switch kind {
	case shared.KindUnauthorized:
		return http.StatusUnauthorized
	case shared.KindForbidden:
		return http.StatusForbidden
	case shared.KindNotFound:
		return http.StatusNotFound
	case shared.KindUnprocessable:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
