package model

import (
	"bytes"
	"encoding/json"
)

// AnswerSet maps question ids to the submitted value.
type AnswerSet map[int]Answer

// Answer holds the raw JSON value submitted for one question: a string for
// single-valued questions, a list of strings for multi-choice ones.
type Answer json.RawMessage

// NewAnswer encodes v as an answer value.
func NewAnswer(v any) Answer {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return Answer(b)
}

func (a Answer) MarshalJSON() ([]byte, error) {
	if len(a) == 0 {
		return []byte("null"), nil
	}
	return a, nil
}

func (a *Answer) UnmarshalJSON(b []byte) error {
	*a = append((*a)[0:0], b...)
	return nil
}

// IsNull reports whether nothing was answered.
func (a Answer) IsNull() bool {
	trimmed := bytes.TrimSpace(a)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// Single returns the value if it is a JSON string.
func (a Answer) Single() (string, bool) {
	if a.IsNull() {
		return "", false
	}
	var s string
	if err := json.Unmarshal(a, &s); err != nil {
		return "", false
	}
	return s, true
}

// List returns the value if it is a JSON list of strings.
func (a Answer) List() ([]string, bool) {
	if a.IsNull() {
		return nil, false
	}
	var ss []string
	if err := json.Unmarshal(a, &ss); err != nil {
		return nil, false
	}
	return ss, true
}

// Text renders the value for display: strings verbatim, anything else as JSON.
func (a Answer) Text() string {
	if s, ok := a.Single(); ok {
		return s
	}
	return string(bytes.TrimSpace(a))
}
