package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cre-pipeline/internal/config"
)

func TestParseNightlyRunTime(t *testing.T) {
	s := NewScheduler(nil, config.DefaultConfig())

	assert.Equal(t, "0 2 * * *", s.parseNightlyRunTime("02:00"))
	assert.Equal(t, "30 23 * * *", s.parseNightlyRunTime("23:30"))
	assert.Equal(t, "0 0 * * *", s.parseNightlyRunTime("00:00"))
}

func TestParseNightlyRunTime_FallsBackOnBadInput(t *testing.T) {
	s := NewScheduler(nil, config.DefaultConfig())

	for _, bad := range []string{"", "nonsense", "25:00", "12:75", "-1:30", "12:-5"} {
		assert.Equal(t, "0 2 * * *", s.parseNightlyRunTime(bad), "input %q", bad)
	}
}
