package rote

import (
	"encoding"
	"encoding/json"
	"fmt"
)

// Response represents the learner's assessment of a card after the answer
// is revealed.
type Response int

const (
	Hard   Response = iota + 1 // Failed to recall; retry within minutes.
	Medium                     // Recalled with effort.
	Easy                       // Recalled comfortably.
)

var (
	responseNames  = [...]string{Hard: "Hard", Medium: "Medium", Easy: "Easy"}
	responseByName = map[string]Response{
		"Hard":   Hard,
		"Medium": Medium,
		"Easy":   Easy,
	}
)

// Compile-time interface checks.
var (
	_ fmt.Stringer             = Response(0)
	_ json.Marshaler           = Response(0)
	_ json.Unmarshaler         = (*Response)(nil)
	_ encoding.TextMarshaler   = Response(0)
	_ encoding.TextUnmarshaler = (*Response)(nil)
)

// String returns the name of the response ("Hard", "Medium", "Easy").
// For invalid values it returns "Response(n)".
func (r Response) String() string {
	if r.IsValid() {
		return responseNames[r]
	}
	return fmt.Sprintf("Response(%d)", int(r))
}

// IsValid reports whether r is a valid response (Hard through Easy).
func (r Response) IsValid() bool {
	return r >= Hard && r <= Easy
}

// MarshalText implements encoding.TextMarshaler.
func (r Response) MarshalText() ([]byte, error) {
	if !r.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidResponse, int(r))
	}
	return []byte(responseNames[r]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Response) UnmarshalText(text []byte) error {
	v, ok := responseByName[string(text)]
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidResponse, text)
	}
	*r = v
	return nil
}

// MarshalJSON implements json.Marshaler. Response serializes as a JSON string.
func (r Response) MarshalJSON() ([]byte, error) {
	text, err := r.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON implements json.Unmarshaler. Expects a JSON string.
func (r *Response) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidResponse, data)
	}
	return r.UnmarshalText([]byte(s))
}
