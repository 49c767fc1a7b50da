package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/offeringbowl/backend/internal/domain/shared"
)

// Pagination bounds for list routes
const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// PageQuery is the parsed ?limit=&cursor= pair
type PageQuery struct {
	Limit  int32
	Cursor string
}

// ParsePageQuery clamps limit to [1, MaxLimit]. A missing or non-numeric
// limit falls back to DefaultLimit; the cursor is passed through as is.
func ParsePageQuery(limit, cursor string) PageQuery {
	q := PageQuery{Limit: DefaultLimit, Cursor: cursor}
	n, err := strconv.Atoi(limit)
	if err != nil {
		return q
	}
	switch {
	case n < 1:
		q.Limit = 1
	case n > MaxLimit:
		q.Limit = MaxLimit
	default:
		q.Limit = int32(n)
	}
	return q
}

// DecodeJSON strictly decodes one JSON object from r into dst. Malformed
// bodies and unknown fields are reported as "Invalid <entity> data: ...".
func DecodeJSON(r io.Reader, entity string, dst any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return shared.Unprocessable(fmt.Sprintf("Invalid %s data: %s", entity, decodeMessage(err)))
	}
	if dec.More() {
		return shared.Unprocessable(fmt.Sprintf("Invalid %s data: unexpected data after JSON object", entity))
	}
	return nil
}

// ReadPatch reads a JSON object body as a shared.Patch. The patch is checked
// for well-formedness here; field names are checked when it is applied.
func ReadPatch(r io.Reader, entity string) (shared.Patch, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, shared.Unprocessable(fmt.Sprintf("Invalid %s data: %s", entity, err.Error()))
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' || !json.Valid(body) {
		return nil, shared.Unprocessable(fmt.Sprintf("Invalid %s data: body must be a JSON object", entity))
	}
	return shared.Patch(body), nil
}

func decodeMessage(err error) string {
	if errors.Is(err, io.EOF) {
		return "request body is empty"
	}
	return err.Error()
}
