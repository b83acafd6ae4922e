package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobID(t *testing.T) {
	assert.Equal(t, "auction_42_complete", JobID("42", KindComplete, 0))
	assert.Equal(t, "auction_42_update_90", JobID("42", KindUpdate, 90*time.Minute))
	assert.Equal(t, "auction_42_notify_5", JobID("42", KindNotify, 5*time.Minute))
}

func TestPlan_FiltersElapsedOffsets(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(100 * time.Minute)
	updates := []time.Duration{120 * time.Minute, 90 * time.Minute, 60 * time.Minute, 30 * time.Minute}
	reminders := []time.Duration{10 * time.Minute, 5 * time.Minute}

	jobs := Plan("7", end, start, updates, reminders)

	var ids []string
	for _, j := range jobs {
		ids = append(ids, j.ID)
	}
	assert.Equal(t, []string{
		"auction_7_update_90",
		"auction_7_update_60",
		"auction_7_update_30",
		"auction_7_notify_10",
		"auction_7_notify_5",
		"auction_7_complete",
	}, ids)
	assert.Equal(t, end, jobs[len(jobs)-1].FireAt)
	assert.Equal(t, end.Add(-90*time.Minute), jobs[0].FireAt)
}

func TestPlan_PastEndKeepsOnlyCompletion(t *testing.T) {
	end := time.Unix(1000, 0)
	jobs := Plan("1", end, end.Add(time.Hour), []time.Duration{time.Minute}, []time.Duration{time.Minute})
	require.Len(t, jobs, 1)
	assert.Equal(t, KindComplete, jobs[0].Kind)
}
