package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// AnswerKind tags the shape of an Answer.
type AnswerKind int

const (
	// AnswerNone is the zero value; it never matches a correct answer.
	AnswerNone AnswerKind = iota
	AnswerSingle
	AnswerMulti
)

// Answer is either a single string or an ordered sequence of strings.
// It serializes as a JSON string or a JSON array respectively.
type Answer struct {
	kind   AnswerKind
	single string
	multi  []string
}

// SingleAnswer builds a one-value answer.
func SingleAnswer(v string) Answer {
	return Answer{kind: AnswerSingle, single: v}
}

// MultiAnswer builds an ordered multi-part answer. The slice is copied.
func MultiAnswer(vs ...string) Answer {
	cp := make([]string, len(vs))
	copy(cp, vs)
	return Answer{kind: AnswerMulti, multi: cp}
}

func (a Answer) Kind() AnswerKind { return a.kind }

// Single returns the value of a single answer and whether a holds one.
func (a Answer) Single() (string, bool) {
	return a.single, a.kind == AnswerSingle
}

// Multi returns a copy of the parts of a multi answer and whether a holds one.
func (a Answer) Multi() ([]string, bool) {
	if a.kind != AnswerMulti {
		return nil, false
	}
	cp := make([]string, len(a.multi))
	copy(cp, a.multi)
	return cp, true
}

// IsZero reports whether the answer carries no value. Single answers with an
// empty string are still values.
func (a Answer) IsZero() bool { return a.kind == AnswerNone }

// Equal compares kind and content, order-sensitive for multi answers.
func (a Answer) Equal(b Answer) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case AnswerSingle:
		return a.single == b.single
	case AnswerMulti:
		if len(a.multi) != len(b.multi) {
			return false
		}
		for i := range a.multi {
			if a.multi[i] != b.multi[i] {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func (a Answer) String() string {
	switch a.kind {
	case AnswerSingle:
		return a.single
	case AnswerMulti:
		return fmt.Sprintf("%q", a.multi)
	default:
		return ""
	}
}

func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.kind {
	case AnswerSingle:
		return json.Marshal(a.single)
	case AnswerMulti:
		return json.Marshal(a.multi)
	default:
		return []byte("null"), nil
	}
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = Answer{}
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = SingleAnswer(s)
		return nil
	case '[':
		var parts []string
		if err := json.Unmarshal(data, &parts); err != nil {
			return fmt.Errorf("answer array must contain strings: %w", err)
		}
		*a = MultiAnswer(parts...)
		return nil
	default:
		return fmt.Errorf("answer must be a string or an array of strings, got %s", string(data))
	}
}
