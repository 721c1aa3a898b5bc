package models

import (
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampLayouts(t *testing.T) {
	cases := map[string]time.Time{
		`"2024-03-01T09:30:00"`:         time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		`"2024-03-01T09:30:00.250000"`:  time.Date(2024, 3, 1, 9, 30, 0, 250_000_000, time.UTC),
		`"2024-03-01T09:30:00+02:00"`:   time.Date(2024, 3, 1, 7, 30, 0, 0, time.UTC),
		`"2024-03-01"`:                  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		`"2024-03-01T09:30:00.123456Z"`: time.Date(2024, 3, 1, 9, 30, 0, 123_456_000, time.UTC),
	}
	for in, want := range cases {
		var ts Timestamp
		require.NoError(t, sonic.Unmarshal([]byte(in), &ts), in)
		assert.True(t, want.Equal(ts.Time), "%s: got %s", in, ts.Time)
	}
}

func TestTimestampEmpty(t *testing.T) {
	for _, in := range []string{`null`, `""`} {
		var ts Timestamp
		require.NoError(t, sonic.Unmarshal([]byte(in), &ts))
		assert.True(t, ts.IsZero())

		out, err := sonic.Marshal(ts)
		require.NoError(t, err)
		assert.Equal(t, "null", string(out))
	}

	var ts Timestamp
	assert.Error(t, sonic.Unmarshal([]byte(`"yesterday"`), &ts))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "amy", (&User{Username: " amy "}).DisplayName())
	assert.Equal(t, "bob", (&User{Email: "bob@example.com"}).DisplayName())
	assert.Equal(t, "Trader", (&User{}).DisplayName())
	var nilUser *User
	assert.Equal(t, "Trader", nilUser.DisplayName())
}
