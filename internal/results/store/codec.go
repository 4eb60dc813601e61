// Package store holds the result backends. Each persists a domain.Result as a
// JSON document under its request id and reports a miss as sentinel.ErrNotFound.
package store

import (
	"encoding/json"
	"fmt"

	"carriercheck/internal/domain"
)

func encode(r *domain.Result) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("result is required")
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*domain.Result, error) {
	var r domain.Result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return &r, nil
}
