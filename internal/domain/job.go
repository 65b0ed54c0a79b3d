package domain

import "time"

// JobStatus enumerates video job lifecycle states.
type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusScripting  JobStatus = "SCRIPTING"
	JobStatusRendering  JobStatus = "RENDERING"
	JobStatusAssembling JobStatus = "ASSEMBLING"
	JobStatusComplete   JobStatus = "COMPLETE"
	JobStatusFailed     JobStatus = "FAILED"
)

// Terminal reports whether no further transition may leave the status.
func (s JobStatus) Terminal() bool {
	return s == JobStatusComplete || s == JobStatusFailed
}

var nextStatus = map[JobStatus]JobStatus{
	JobStatusPending:    JobStatusScripting,
	JobStatusScripting:  JobStatusRendering,
	JobStatusRendering:  JobStatusAssembling,
	JobStatusAssembling: JobStatusComplete,
}

// CanTransition reports whether from -> to is a legal edge of the job state machine.
func CanTransition(from, to JobStatus) bool {
	if from.Terminal() {
		return false
	}
	if to == JobStatusFailed {
		return true
	}
	return nextStatus[from] == to
}

// Stage names the pipeline step a failure is attributed to.
type Stage string

const (
	StageScripting  Stage = "SCRIPTING"
	StageRendering  Stage = "RENDERING"
	StageAssembling Stage = "ASSEMBLING"
)

// Scene is one segment of a generated script.
type Scene struct {
	ImagePrompt string `json:"image_prompt"`
	ContentText string `json:"content_text"`
	AssetRef    string `json:"asset_ref,omitempty"`
}

// Usage records token consumption reported by the text backend.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Failure describes why a job ended in JobStatusFailed.
type Failure struct {
	Stage  Stage       `json:"stage"`
	Kind   FailureKind `json:"kind"`
	Reason string      `json:"reason"`
}

// VideoJob is a single admitted video request.
type VideoJob struct {
	ID          string
	UserID      string
	Prompt      string
	Locale      string
	Status      JobStatus
	Scenes      []Scene
	Usage       *Usage
	Failure     *Failure
	ArtifactRef string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
