package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// FormRef is a foreign key submitted through a form payload. It remembers whether
// the key was present at all and keeps the raw value so malformed input can be
// told apart from an absent one.
type FormRef struct {
	raw     string
	present bool
}

// NewFormRef builds a reference from a raw query or form value.
func NewFormRef(raw string, present bool) FormRef {
	return FormRef{raw: strings.TrimSpace(raw), present: present}
}

// FormRefID builds a present reference from a numeric id.
func FormRefID(id int64) FormRef {
	return FormRef{raw: strconv.FormatInt(id, 10), present: true}
}

// Present reports whether the key appeared in the payload.
func (r FormRef) Present() bool { return r.present }

// Raw returns the submitted text.
func (r FormRef) Raw() string { return r.raw }

// ID parses the value as a positive integer id.
func (r FormRef) ID() (int64, bool) {
	if !r.present || r.raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(r.raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// UnmarshalJSON accepts numbers, strings and null.
func (r *FormRef) UnmarshalJSON(data []byte) error {
	r.present = true
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		r.raw = ""
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		r.raw = strings.TrimSpace(s)
		return nil
	}
	r.raw = string(trimmed)
	return nil
}

// MarshalJSON writes the id as a number when it parses, otherwise the raw string.
func (r FormRef) MarshalJSON() ([]byte, error) {
	if !r.present {
		return []byte("null"), nil
	}
	if id, ok := r.ID(); ok {
		return []byte(strconv.FormatInt(id, 10)), nil
	}
	return json.Marshal(r.raw)
}
