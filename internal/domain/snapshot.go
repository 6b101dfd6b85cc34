package domain

import "time"

// Sweep triggers.
const (
	TriggerRequest  = "request"
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
)

// Snapshot is the result of one sweep of an environment.
type Snapshot struct {
	ID          string       `json:"id"`
	Environment Environment  `json:"environment"`
	Trigger     string       `json:"trigger"`
	StartedAt   time.Time    `json:"startedAt"`
	FinishedAt  time.Time    `json:"finishedAt"`
	Results     []HostResult `json:"results"`
}

// Summary counts instances per status.
func (s Snapshot) Summary() map[Status]int {
	counts := map[Status]int{
		StatusOnline:  0,
		StatusOffline: 0,
		StatusError:   0,
	}
	for _, h := range s.Results {
		if h.Status == StatusError {
			counts[StatusError]++
			continue
		}
		for _, inst := range h.Instances {
			counts[inst.Status]++
		}
	}
	return counts
}
