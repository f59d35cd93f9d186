// Package codec encodes record collections as the JSON documents the
// key-value stores persist.
package codec

import (
	"encoding/json"
	"fmt"

	"quizzify-service/internal/domain"
)

// DecodeList decodes a stored collection. An absent document is empty.
func DecodeList[T any](raw []byte) ([]T, error) {
	if len(raw) == 0 {
		return []T{}, nil
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: decode collection: %v", domain.ErrPersistence, err)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// DecodeUser decodes the profile document, or returns fallback when absent.
func DecodeUser(raw []byte, fallback domain.User) (domain.User, error) {
	if len(raw) == 0 {
		return fallback, nil
	}
	var user domain.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return domain.User{}, fmt.Errorf("%w: decode user: %v", domain.ErrPersistence, err)
	}
	return user, nil
}

// Encode marshals a collection or profile document.
func Encode(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: encode: %v", domain.ErrPersistence, err)
	}
	return raw, nil
}

// DecodeRecord decodes a single stored record.
func DecodeRecord[T any](raw []byte) (T, error) {
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("%w: decode record: %v", domain.ErrPersistence, err)
	}
	return out, nil
}
