package domain

import "context"

type StepRunner interface {
	Run(ctx context.Context, step Step, workspace string, extraEnv []string) (string, error)
}

type Notifier interface {
	Notify(ctx context.Context, outcome Outcome, message string) error
}

type CredentialStore interface {
	Lookup(ctx context.Context, entry string) (Credentials, error)
}

type WorkspaceCleaner interface {
	Clean(ctx context.Context, dir string) error
}

type ReportSink interface {
	Write(ctx context.Context, r RunReport) error
}
