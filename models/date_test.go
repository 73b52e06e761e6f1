package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-01-10")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-10", d.String())

	_, err = ParseDate("10/01/2024")
	assert.Error(t, err)

	_, err = ParseDate("2024-02-30")
	assert.Error(t, err)
}

func TestDateJSON(t *testing.T) {
	type payload struct {
		Due  *Date `json:"due"`
		Done Date  `json:"done"`
	}

	var p payload
	require.NoError(t, json.Unmarshal([]byte(`{"due":"2024-03-05","done":""}`), &p))
	require.NotNil(t, p.Due)
	assert.Equal(t, NewDate(2024, time.March, 5), *p.Due)
	assert.True(t, p.Done.IsZero())

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"due":"2024-03-05","done":null}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"due":"2024-13-01"}`), &p))
	assert.Error(t, json.Unmarshal([]byte(`{"due":20240101}`), &p))
}

func TestDateScan(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  string
	}{
		{"time value", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), "2024-01-10"},
		{"plain text", "2024-01-10", "2024-01-10"},
		{"timestamp text", "2024-01-10 00:00:00+00:00", "2024-01-10"},
		{"bytes", []byte("2024-01-10"), "2024-01-10"},
		{"null", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			require.NoError(t, d.Scan(tt.value))
			assert.Equal(t, tt.want, d.String())
		})
	}

	var d Date
	assert.Error(t, d.Scan(42))
}

func TestDateValue(t *testing.T) {
	v, err := NewDate(2024, time.January, 10).Value()
	require.NoError(t, err)
	assert.Equal(t, "2024-01-10", v)

	v, err = Date{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestDateOfKeepsLocalCalendarDay(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	late := time.Date(2024, 1, 10, 23, 30, 0, 0, loc)
	assert.Equal(t, "2024-01-10", DateOf(late).String())
}
