package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// OptionalString is a request field that tells an omitted key apart from an
// explicit null, a value of the wrong JSON type, an empty string and a set one.
type OptionalString struct {
	Value string

	// Present is true when the key was sent with a non-null value.
	Present bool

	// IsString is true when the sent value was a JSON string.
	IsString bool

	// Raw keeps the original bytes of a value that was not a string.
	Raw json.RawMessage
}

// Some returns a present string field holding value.
func Some(value string) OptionalString {
	return OptionalString{Value: value, Present: true, IsString: true}
}

// UnmarshalJSON never fails: a value of the wrong type is recorded and left
// for the validator to report together with the other failures.
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	*o = OptionalString{}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	o.Present = true
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		o.Raw = append(json.RawMessage(nil), data...)
		return nil
	}
	o.Value = value
	o.IsString = true

	return nil
}

// MarshalJSON writes the value, or null when the field was not provided.
func (o OptionalString) MarshalJSON() ([]byte, error) {
	if !o.Present {
		return []byte("null"), nil
	}
	if !o.IsString {
		return o.Raw, nil
	}
	return json.Marshal(o.Value)
}

// NonEmpty returns the value when it is a string of at least one character.
func (o OptionalString) NonEmpty() (string, bool) {
	if !o.Present || !o.IsString || o.Value == "" {
		return "", false
	}
	return o.Value, true
}

// NonBlank returns the value when it is a string with something other than whitespace.
func (o OptionalString) NonBlank() (string, bool) {
	if !o.Present || !o.IsString || strings.TrimSpace(o.Value) == "" {
		return "", false
	}
	return o.Value, true
}
