package proto

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformed marks a payload that cannot be used.
var ErrMalformed = errors.New("malformed payload")

// Decode unmarshals the envelope payload into T.
func Decode[T any](env Envelope) (T, error) {
	var out T
	if len(env.Data) == 0 {
		return out, fmt.Errorf("%s: empty data: %w", env.Type, ErrMalformed)
	}
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return out, fmt.Errorf("%s: %v: %w", env.Type, err, ErrMalformed)
	}
	return out, nil
}

// Encode wraps v into an envelope of the given type. A nil v produces an envelope without data.
func Encode(typ string, v any) (Envelope, error) {
	if v == nil {
		return Envelope{Type: typ}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s: %w", typ, err)
	}
	return Envelope{Type: typ, Data: data}, nil
}
