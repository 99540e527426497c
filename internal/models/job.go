package models

// JobState is the observed state of an asynchronous analysis job. Transitions
// happen only on the provider side; the pipeline learns about them by polling.
type JobState string

const (
	JobQueued         JobState = "queued"
	JobInProgress     JobState = "in_progress"
	JobRequiresAction JobState = "requires_action"
	JobCompleted      JobState = "completed"
	JobFailed         JobState = "failed"
)

// Pending reports whether the job may still transition. A requires_action
// job is treated as still pending; this pipeline never resolves the action,
// so the job either times out server-side or completes without us.
func (s JobState) Pending() bool {
	switch s {
	case JobQueued, JobInProgress, JobRequiresAction:
		return true
	}
	return false
}
