package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRow_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantID  *int64
		wantErr bool
		check   func(t *testing.T, r Row)
	}{
		{name: "numeric id", input: `{"id":5,"project_id":"P-5"}`, wantID: ptr(int64(5)),
			check: func(t *testing.T, r Row) { assert.Equal(t, "P-5", *r.Get("project_id")) }},
		{name: "null id", input: `{"id":null}`},
		{name: "missing id", input: `{"project_id":"x"}`},
		{name: "string id", input: `{"id":"12"}`, wantID: ptr(int64(12))},
		{name: "empty string id", input: `{"id":""}`},
		{name: "integral float id", input: `{"id":7.0}`, wantID: ptr(int64(7))},
		{name: "fractional id", input: `{"id":7.5}`, wantErr: true},
		{name: "word id", input: `{"id":"seven"}`, wantErr: true},
		{name: "null cell is kept", input: `{"id":1,"programming_deadline":null}`, wantID: ptr(int64(1)),
			check: func(t *testing.T, r Row) {
				assert.True(t, r.Has("programming_deadline"))
				assert.Nil(t, r.Get("programming_deadline"))
			}},
		{name: "number cell as text", input: `{"quantity":42}`,
			check: func(t *testing.T, r Row) { assert.Equal(t, "42", *r.Get("quantity")) }},
		{name: "bool cell as text", input: `{"flag":true}`,
			check: func(t *testing.T, r Row) { assert.Equal(t, "true", *r.Get("flag")) }},
		{name: "object cell", input: `{"project_id":{}}`, wantErr: true},
		{name: "array cell", input: `{"project_id":[1]}`, wantErr: true},
		{name: "not an object", input: `[1,2]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Row
			err := json.Unmarshal([]byte(tt.input), &r)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, r.ID)
			if tt.check != nil {
				tt.check(t, r)
			}
		})
	}
}

func TestRow_MarshalJSON(t *testing.T) {
	r := NewRow(nil)
	v := "05.03.2024"
	r.Set("programming_deadline", &v)
	r.Set("comment", nil)

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":null,"programming_deadline":"05.03.2024","comment":null}`, string(data))
}

func TestRow_CloneIsIndependent(t *testing.T) {
	v := "a"
	orig := NewRow(ptr(int64(1)))
	orig.Set("project_id", &v)

	c := orig.Clone()
	*c.ID = 2
	w := "b"
	c.Set("project_id", &w)

	assert.Equal(t, int64(1), *orig.ID)
	assert.Equal(t, "a", *orig.Get("project_id"))
}

func ptr[T any](v T) *T { return &v }
