// Package scheduler fires the timed callbacks of running auctions: interim
// listing updates, reminders to participants and the final completion.
//
// Jobs are plain descriptors derived from a lot's end time, so the whole
// job set can be rebuilt from the database after a restart.
package scheduler

import (
	"fmt"
	"sort"
	"time"
)

type Kind string

const (
	KindComplete Kind = "complete"
	KindUpdate   Kind = "update"
	KindNotify   Kind = "notify"
)

// Job is one pending callback. Offset is the distance before the auction
// end and is zero for completion jobs.
type Job struct {
	ID     string        `json:"id"`
	LotID  string        `json:"lot_id"`
	Kind   Kind          `json:"kind"`
	Offset time.Duration `json:"offset"`
	FireAt time.Time     `json:"fire_at"`
}

// JobID names a job after the lot, kind and offset in minutes. Scheduling
// the same job twice therefore replaces it.
func JobID(lotID string, kind Kind, offset time.Duration) string {
	if kind == KindComplete {
		return "auction_" + lotID + "_complete"
	}
	return fmt.Sprintf("auction_%s_%s_%d", lotID, kind, int64(offset/time.Minute))
}

// Plan lists the jobs of an auction ending at end. Updates and reminders
// whose fire time is not after now are left out; the completion job is
// always present.
func Plan(lotID string, end, now time.Time, updates, reminders []time.Duration) []Job {
	jobs := []Job{{ID: JobID(lotID, KindComplete, 0), LotID: lotID, Kind: KindComplete, FireAt: end}}

	add := func(kind Kind, offsets []time.Duration) {
		for _, off := range offsets {
			at := end.Add(-off)
			if !at.After(now) {
				continue
			}
			jobs = append(jobs, Job{ID: JobID(lotID, kind, off), LotID: lotID, Kind: kind, Offset: off, FireAt: at})
		}
	}
	add(KindUpdate, updates)
	add(KindNotify, reminders)

	sortJobs(jobs)
	return jobs
}

func sortJobs(jobs []Job) {
	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].FireAt.Equal(jobs[j].FireAt) {
			return jobs[i].ID < jobs[j].ID
		}
		return jobs[i].FireAt.Before(jobs[j].FireAt)
	})
}
