// Package dto defines the JSON envelope shared by every route and the
// helpers that turn query strings and bodies into service inputs.
package dto

import "github.com/offeringbowl/backend/internal/domain/shared"

// Response is the JSON envelope. success is always present; the other keys
// depend on the route, e.g. {"success":true,"post":{...}}.
type Response map[string]any

// NewSuccessResponse creates a success response
func NewSuccessResponse() Response {
	return Response{"success": true}
}

// With sets key to value and returns r for chaining
func (r Response) With(key string, value any) Response {
	r[key] = value
	return r
}

// WithMessage sets the human readable message
func (r Response) WithMessage(message string) Response {
	return r.With("message", message)
}

// WithCursor sets the pagination cursor; an exhausted listing reports null
func (r Response) WithCursor(cursor string) Response {
	if cursor == "" {
		return r.With("cursor", nil)
	}
	return r.With("cursor", cursor)
}

// NewErrorResponse creates a failure response carrying message under "error"
func NewErrorResponse(message string) Response {
	return Response{"success": false, "error": message}
}

// NewErrorResponseWithDetails adds the failed field rules to an error response
func NewErrorResponseWithDetails(message string, details []shared.FieldError) Response {
	r := NewErrorResponse(message)
	if len(details) > 0 {
		r["details"] = details
	}
	return r
}

// NewMissingResponse is the lookup-miss shape used by the user and settings
// reads: {"success":false,"message":"User not found."}
func NewMissingResponse(message string) Response {
	return Response{"success": false, "message": message}
}

// RouteNotFound is the body for unmatched routes
func RouteNotFound() Response {
	return Response{"error": 404, "message": "Route not found."}
}
