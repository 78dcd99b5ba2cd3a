package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateJSON(t *testing.T) {
	d := Date{Year: 2024, Month: time.March, Day: 7}

	raw, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2024-03-07"`, string(raw))

	var back Date
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, d, back)

	assert.Error(t, json.Unmarshal([]byte(`"07/03/2024"`), &back))
}

func TestDateOfUsesOwnLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	ts := time.Date(2024, 3, 7, 23, 30, 0, 0, time.UTC)

	assert.Equal(t, Date{2024, time.March, 7}, DateOf(ts))
	assert.Equal(t, Date{2024, time.March, 8}, DateOf(ts.In(tokyo)))
}

func TestDateTime(t *testing.T) {
	d := Date{Year: 2024, Month: time.December, Day: 31}
	assert.Equal(t, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), d.Time(nil))
	assert.True(t, Date{}.IsZero())
	assert.False(t, d.IsZero())
}
