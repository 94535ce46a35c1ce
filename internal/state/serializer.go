package state

import (
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/taskvault/internal/common"
)

// MandatoryFields are the top-level keys every persisted state payload must
// carry. A payload missing any of them is malformed, whatever else it
// contains.
var MandatoryFields = []string{
	"tasks",
	"projects",
	"goals",
	"analytics",
	"searchQuery",
	"selectedProject",
	"selectedPriority",
	"settings",
	"authentication",
}

// Serializer converts the state tree to and from its transport form.
// Timestamp leaves travel as tagged objects (see Timestamp); everything
// else passes through as plain JSON. Serialize and Deserialize are inverse
// for any value produced by the other.
type Serializer struct{}

// Serialize encodes the state tree to UTF-8 JSON.
func (Serializer) Serialize(s *AppState) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("serialize state: %w", err)
	}
	return data, nil
}

// Deserialize decodes a transport payload back into the state tree. It
// fails with common.ErrMalformedState when the payload is not a JSON
// object, is missing any mandatory top-level field, or carries leaves the
// model cannot represent.
func (Serializer) Deserialize(data []byte) (*AppState, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedState, err)
	}

	for _, field := range MandatoryFields {
		if _, ok := raw[field]; !ok {
			return nil, fmt.Errorf("%w: missing field %q", common.ErrMalformedState, field)
		}
	}

	var s AppState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedState, err)
	}
	return &s, nil
}
