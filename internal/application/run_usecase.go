package application

import (
	"context"
	"fmt"
	"time"

	"github.com/davarch/ci-runner/internal/domain"
	"go.uber.org/zap"
)

type RunUseCase struct {
	log     *zap.Logger
	steps   domain.StepRunner
	creds   domain.CredentialStore
	note    domain.Notifier
	cleaner domain.WorkspaceCleaner
	reports domain.ReportSink
}

func NewRunUseCase(
	log *zap.Logger,
	steps domain.StepRunner,
	creds domain.CredentialStore,
	note domain.Notifier,
	cleaner domain.WorkspaceCleaner,
	reports domain.ReportSink,
) *RunUseCase {
	return &RunUseCase{
		log: log, steps: steps, creds: creds,
		note: note, cleaner: cleaner, reports: reports,
	}
}

// Run executes the pipeline's stages sequentially, then fires the post
// hooks: workspace cleanup (always, exactly once), one outcome-keyed
// notification, and the run report. The returned error is non-nil iff the
// run outcome is failure.
func (uc *RunUseCase) Run(ctx context.Context, p domain.Pipeline, rc domain.RunContext) (domain.RunReport, error) {
	report := domain.RunReport{
		RunID:       rc.RunID,
		Pipeline:    p.Name,
		JobName:     rc.JobName,
		BuildNumber: rc.BuildNumber,
		BuildURL:    rc.BuildURL,
		Branch:      rc.Branch,
		Started:     time.Now(),
	}

	results, runErr := uc.runStages(ctx, p, rc)
	report.Stages = results
	report.Outcome = outcomeOf(results)
	report.Finished = time.Now()

	uc.postHooks(ctx, rc, report)

	return report, runErr
}

func (uc *RunUseCase) runStages(ctx context.Context, p domain.Pipeline, rc domain.RunContext) ([]domain.StageResult, error) {
	var (
		results []domain.StageResult
		runErr  error
	)

	for _, stage := range p.Stages {
		if runErr != nil {
			results = append(results, domain.StageResult{Name: stage.Name, Status: domain.StageAborted})
			continue
		}

		res := uc.runStage(ctx, stage, rc)
		results = append(results, res)

		if res.Status == domain.StageFailed {
			runErr = fmt.Errorf("stage %q failed: %s", stage.Name, res.Error)
		}
	}

	return results, runErr
}

// runStage recovers panics from the step runner so that a crashing step is
// classified as a stage failure and the post hooks still run.
func (uc *RunUseCase) runStage(ctx context.Context, stage domain.Stage, rc domain.RunContext) (res domain.StageResult) {
	res = domain.StageResult{Name: stage.Name, Status: domain.StageOK}
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			res.Status = domain.StageFailed
			res.Error = fmt.Sprintf("panic: %v", r)
		}
		res.Duration = time.Since(start)
	}()

	if stage.Disabled {
		uc.log.Info("stage disabled", zap.String("stage", stage.Name))
		res.Status = domain.StageSkipped
		return res
	}

	if stage.When.Branch != "" && stage.When.Branch != rc.Branch {
		uc.log.Info("stage skipped",
			zap.String("stage", stage.Name),
			zap.String("want_branch", stage.When.Branch),
			zap.String("branch", rc.Branch),
		)
		res.Status = domain.StageSkipped
		return res
	}

	// Credentials live only inside this call; they are handed to the step
	// runner as env pairs and never stored on the use case or the report.
	var extraEnv []string
	if b := stage.Credentials; b != nil {
		cred, err := uc.creds.Lookup(ctx, b.Entry)
		if err != nil {
			res.Status = domain.StageFailed
			res.Error = err.Error()
			return res
		}
		extraEnv = []string{
			b.UsernameVar + "=" + cred.Username,
			b.PasswordVar + "=" + cred.Password,
		}
	}

	for _, step := range stage.Steps {
		uc.log.Info("running step",
			zap.String("stage", stage.Name),
			zap.String("step", stepLabel(step)),
		)

		out, err := uc.steps.Run(ctx, step, rc.Workspace, extraEnv)
		if out != "" {
			uc.log.Debug("step output",
				zap.String("stage", stage.Name),
				zap.String("step", stepLabel(step)),
				zap.String("output", out),
			)
		}

		if err != nil {
			if step.AllowFailure {
				uc.log.Warn("step failed (allowed)",
					zap.String("stage", stage.Name),
					zap.String("step", stepLabel(step)),
					zap.Error(err),
				)
				res.Status = domain.StageUnstable
				continue
			}
			res.Status = domain.StageFailed
			res.Error = err.Error()
			return res
		}
	}

	return res
}

func (uc *RunUseCase) postHooks(ctx context.Context, rc domain.RunContext, report domain.RunReport) {
	if err := uc.cleaner.Clean(ctx, rc.Workspace); err != nil {
		uc.log.Warn("workspace cleanup failed", zap.String("dir", rc.Workspace), zap.Error(err))
	}

	if err := uc.note.Notify(ctx, report.Outcome, messageFor(report.Outcome, rc)); err != nil {
		uc.log.Warn("notification failed", zap.Error(err))
	}

	if err := uc.reports.Write(ctx, report); err != nil {
		uc.log.Warn("report write failed", zap.Error(err))
	}
}

func outcomeOf(results []domain.StageResult) domain.Outcome {
	out := domain.OutcomeSuccess
	for _, r := range results {
		switch r.Status {
		case domain.StageFailed, domain.StageAborted:
			return domain.OutcomeFailure
		case domain.StageUnstable:
			out = domain.OutcomeUnstable
		}
	}
	return out
}

func messageFor(o domain.Outcome, rc domain.RunContext) string {
	var label string
	switch o {
	case domain.OutcomeSuccess:
		label = "SUCCESSFUL"
	case domain.OutcomeUnstable:
		label = "UNSTABLE"
	default:
		label = "FAILED"
	}
	return fmt.Sprintf("%s: job '%s [%s]' (%s)", label, rc.JobName, rc.BuildNumber, rc.BuildURL)
}

func stepLabel(s domain.Step) string {
	if s.Name != "" {
		return s.Name
	}
	return s.Run
}
