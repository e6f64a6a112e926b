package cli

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/davarch/ci-runner/internal/application"
	"github.com/davarch/ci-runner/internal/domain"
	"github.com/davarch/ci-runner/internal/infrastructure/config"
	"github.com/davarch/ci-runner/internal/infrastructure/credstore_env"
	"github.com/davarch/ci-runner/internal/infrastructure/exec_shell"
	"github.com/davarch/ci-runner/internal/infrastructure/logging"
	"github.com/davarch/ci-runner/internal/infrastructure/notify_webhook"
	"github.com/davarch/ci-runner/internal/infrastructure/pipeline_yaml"
	"github.com/davarch/ci-runner/internal/infrastructure/report_fs"
	"github.com/davarch/ci-runner/internal/infrastructure/workspace_fs"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline once",
	Run: func(cmd *cobra.Command, args []string) {
		log := logging.New()
		defer func() { _ = log.Sync() }()

		cfg, err := config.Load(cfgPath)
		if err != nil {
			log.Fatal("config", zap.Error(err))
		}

		uc := buildUseCase(log, cfg)

		p, err := pipeline_yaml.Load(pipelinePath, time.Duration(cfg.Run.StepTimeout))
		if err != nil {
			log.Fatal("pipeline", zap.Error(err))
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		rc := newRunContext(cfg, p)
		if rc.Workspace == "" {
			log.Fatal("workspace is required (run.workspace or WORKSPACE)")
		}
		if err := os.MkdirAll(rc.Workspace, 0o755); err != nil {
			log.Fatal("workspace", zap.Error(err))
		}

		log.Info("start",
			zap.String("version", version),
			zap.String("run_id", rc.RunID),
			zap.String("pipeline", p.Name),
			zap.String("branch", rc.Branch),
			zap.String("workspace", rc.Workspace),
		)

		report, runErr := uc.Run(ctx, p, rc)
		log.Info("done",
			zap.String("run_id", rc.RunID),
			zap.String("outcome", string(report.Outcome)),
		)

		if runErr != nil {
			log.Error("run failed", zap.Error(runErr))
			os.Exit(1)
		}
	},
}

func init() {
	runCmd.Flags().StringVar(&branchFlag, "branch", "", "branch override (default: BRANCH_NAME / config)")
	rootCmd.AddCommand(runCmd)
}

func buildUseCase(log *zap.Logger, cfg config.Config) *application.RunUseCase {
	entries := make(map[string]credstore_env.Entry, len(cfg.Credentials))
	for name, e := range cfg.Credentials {
		entries[name] = credstore_env.Entry{
			UsernameEnv: e.UsernameEnv,
			PasswordEnv: e.PasswordEnv,
			Username:    e.Username,
			Password:    e.Password,
		}
	}

	var note domain.Notifier
	if cfg.Notify.Soft {
		note = notify_webhook.NewSoft(cfg.Notify.WebhookURL, cfg.Notify.Channel, time.Duration(cfg.Notify.Timeout))
	} else {
		note = notify_webhook.New(cfg.Notify.WebhookURL, cfg.Notify.Channel, time.Duration(cfg.Notify.Timeout))
	}

	return application.NewRunUseCase(
		log,
		exec_shell.New(cfg.Run.Shell),
		credstore_env.New(entries),
		note,
		workspace_fs.New(),
		report_fs.New(cfg.Run.ReportPath),
	)
}

func newRunContext(cfg config.Config, p domain.Pipeline) domain.RunContext {
	branch := cfg.Run.Branch
	if branchFlag != "" {
		branch = branchFlag
	}

	job := cfg.Run.JobName
	if job == "" {
		job = p.Name
	}

	return domain.RunContext{
		RunID:       uuid.NewString(),
		JobName:     job,
		BuildNumber: cfg.Run.BuildNumber,
		BuildURL:    cfg.Run.BuildURL,
		Branch:      branch,
		Workspace:   cfg.Run.Workspace,
	}
}
