package domain

import "time"

type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeUnstable Outcome = "unstable"
	OutcomeFailure  Outcome = "failure"
)

type StageStatus string

const (
	StageOK       StageStatus = "ok"
	StageSkipped  StageStatus = "skipped"
	StageUnstable StageStatus = "unstable"
	StageFailed   StageStatus = "failed"
	StageAborted  StageStatus = "aborted"
)

// When gates a stage. An empty Branch means the stage always runs.
type When struct {
	Branch string
}

// CredentialBinding names a credential store entry and the environment
// variables its username/password are exposed under for the stage's steps.
type CredentialBinding struct {
	Entry       string
	UsernameVar string
	PasswordVar string
}

// Credentials is an opaque username/password pair. It is resolved right
// before the declaring stage runs and must not outlive that stage.
type Credentials struct {
	Username string
	Password string
}

// String keeps secrets out of logs and %v formatting.
func (Credentials) String() string { return "credentials(redacted)" }

type Step struct {
	Name         string
	Run          string
	AllowFailure bool
	Timeout      time.Duration
}

type Stage struct {
	Name        string
	When        When
	Credentials *CredentialBinding
	Disabled    bool
	Steps       []Step
}

type Pipeline struct {
	Name   string
	Stages []Stage
}

// RunContext identifies one pipeline run. Branch is the value stage
// predicates compare against; Workspace is the directory steps run in and
// the cleanup hook removes.
type RunContext struct {
	RunID       string
	JobName     string
	BuildNumber string
	BuildURL    string
	Branch      string
	Workspace   string
}

type StageResult struct {
	Name     string
	Status   StageStatus
	Error    string
	Duration time.Duration
}

type RunReport struct {
	RunID       string
	Pipeline    string
	JobName     string
	BuildNumber string
	BuildURL    string
	Branch      string
	Outcome     Outcome
	Stages      []StageResult
	Started     time.Time
	Finished    time.Time
}
