package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodNextRollsOverYear(t *testing.T) {
	assert.Equal(t, Period{Year: 2025, Month: time.January}, Period{Year: 2024, Month: time.December}.Next())
	assert.Equal(t, Period{Year: 2024, Month: time.March}, Period{Year: 2024, Month: time.February}.Next())
}

func TestPeriodBefore(t *testing.T) {
	a := Period{Year: 2023, Month: time.December}
	b := Period{Year: 2024, Month: time.January}
	assert.True(t, a.Before(b))
	assert.False(t, b.Before(a))
	assert.False(t, a.Before(a))
}

func TestPeriodOfUsesTimestampLocation(t *testing.T) {
	ts := time.Date(2024, time.January, 31, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "2024-01", PeriodOf(ts).String())
}

func TestPeriodJSONKey(t *testing.T) {
	b, err := json.Marshal(map[Period]int{{Year: 2024, Month: time.May}: 3})
	require.NoError(t, err)
	assert.JSONEq(t, `{"2024-05":3}`, string(b))

	var back map[Period]int
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, 3, back[Period{Year: 2024, Month: time.May}])
}

func TestParseCategoryAndTag(t *testing.T) {
	c, ok := ParseCategory(" Slow App ")
	assert.True(t, ok)
	assert.Equal(t, CategorySlowApp, c)

	_, ok = ParseCategory("slow app")
	assert.False(t, ok)

	tag, ok := ParseTag(" login ")
	assert.True(t, ok)
	assert.Equal(t, Tag("login"), tag)

	_, ok = ParseTag("")
	assert.False(t, ok)
}
