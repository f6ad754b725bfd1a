package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormRefUnmarshal(t *testing.T) {
	cases := []struct {
		body    string
		present bool
		id      int64
		ok      bool
	}{
		{body: `{}`, present: false},
		{body: `{"grade":3}`, present: true, id: 3, ok: true},
		{body: `{"grade":"7"}`, present: true, id: 7, ok: true},
		{body: `{"grade":"abc"}`, present: true},
		{body: `{"grade":""}`, present: true},
		{body: `{"grade":null}`, present: true},
		{body: `{"grade":-2}`, present: true},
	}
	for _, tc := range cases {
		var payload struct {
			Grade FormRef `json:"grade"`
		}
		require.NoError(t, json.Unmarshal([]byte(tc.body), &payload), tc.body)
		assert.Equal(t, tc.present, payload.Grade.Present(), tc.body)
		id, ok := payload.Grade.ID()
		assert.Equal(t, tc.ok, ok, tc.body)
		assert.Equal(t, tc.id, id, tc.body)
	}
}

func TestRoleRegistrationPrefix(t *testing.T) {
	prefix, ok := RoleStaff.RegistrationPrefix()
	assert.True(t, ok)
	assert.Equal(t, "STA", prefix)

	_, ok = RoleStudent.RegistrationPrefix()
	assert.False(t, ok)
	assert.Equal(t, RoleLibrarian, AccountLibrarian.Role())
	assert.False(t, AccountKind("teachers").Valid())
}
