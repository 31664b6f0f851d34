package repository

import (
	"encoding/json"
	"fmt"

	"github.com/satushop/kaspisync/internal/store"
)

// encode serializes a typed record into a flat store document. This is
// the only place domain records cross into string-keyed form.
func encode(v interface{}) (store.Document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	var doc store.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	return doc, nil
}

// decode deserializes a store document back into a typed record
func decode(doc store.Document, v interface{}) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to decode record: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode record: %w", err)
	}
	return nil
}
