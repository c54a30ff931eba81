package acl

import (
	"encoding/json"
	"fmt"
)

// objectID decodes the two id encodings the upstreams emit: a bare string
// or Mongo extended JSON `{"$oid": "..."}`. Both flatten to the hex form.
type objectID string

// String returns the flattened id.
func (o objectID) String() string {
	return string(o)
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *objectID) UnmarshalJSON(data []byte) error {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		*o = objectID(plain)

		return nil
	}

	var wrapped struct {
		OID string `json:"$oid"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return fmt.Errorf("object id is neither a string nor an $oid document: %w", err)
	}

	*o = objectID(wrapped.OID)

	return nil
}
