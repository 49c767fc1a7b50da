package shared

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Patch is a JSON object of changed fields. Applying it to a record is a
// shallow merge: fields present in the patch replace the record's values,
// absent fields are kept.
type Patch []byte

// ApplyTo merges p onto dst. Unknown fields are rejected.
func (p Patch) ApplyTo(entity string, dst any) error {
	if len(bytes.TrimSpace(p)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(p))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return Unprocessable(fmt.Sprintf("Invalid %s data: %s", entity, err.Error()))
	}
	return nil
}
