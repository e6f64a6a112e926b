package cli

import (
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/davarch/ci-runner/internal/infrastructure/config"
	"github.com/davarch/ci-runner/internal/infrastructure/logging"
	"github.com/davarch/ci-runner/internal/infrastructure/pipeline_yaml"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the pipeline and re-run it whenever the pipeline file changes",
	Run: func(cmd *cobra.Command, args []string) {
		log := logging.New()
		defer func() { _ = log.Sync() }()

		cfg, err := config.Load(cfgPath)
		if err != nil {
			log.Fatal("config", zap.Error(err))
		}

		uc := buildUseCase(log, cfg)

		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		var mu sync.Mutex
		runOnce := func() {
			mu.Lock()
			defer mu.Unlock()

			p, err := pipeline_yaml.Load(pipelinePath, time.Duration(cfg.Run.StepTimeout))
			if err != nil {
				log.Warn("pipeline reload failed", zap.Error(err))
				return
			}

			rc := newRunContext(cfg, p)
			if rc.Workspace == "" {
				log.Warn("workspace is required (run.workspace or WORKSPACE)")
				return
			}
			if err := os.MkdirAll(rc.Workspace, 0o755); err != nil {
				log.Warn("workspace", zap.Error(err))
				return
			}

			report, runErr := uc.Run(ctx, p, rc)
			if runErr != nil {
				log.Error("run failed", zap.String("run_id", rc.RunID), zap.Error(runErr))
				return
			}
			log.Info("done",
				zap.String("run_id", rc.RunID),
				zap.String("outcome", string(report.Outcome)),
			)
		}

		watchAndRerun(pipelinePath, log, runOnce)

		log.Info("watching",
			zap.String("version", version),
			zap.String("pipeline", pipelinePath),
		)
		runOnce()

		<-ctx.Done()
	},
}

func init() {
	watchCmd.Flags().StringVar(&branchFlag, "branch", "", "branch override (default: BRANCH_NAME / config)")
	rootCmd.AddCommand(watchCmd)
}

// watchAndRerun debounces writes to the pipeline file and calls fire after
// things settle.
func watchAndRerun(path string, log *zap.Logger, fire func()) {
	if path == "" {
		return
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warn("fsnotify init failed", zap.Error(err))
		return
	}

	go func() {
		defer func() { _ = w.Close() }()

		var timer *time.Timer

		startTimer := func() {
			if timer == nil {
				timer = time.AfterFunc(300*time.Millisecond, fire)
				return
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(300 * time.Millisecond)
		}

		if err := w.Add(dir); err != nil {
			log.Warn("fsnotify add dir failed", zap.String("dir", dir), zap.Error(err))
			return
		}

		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}

				if filepath.Base(ev.Name) != base {
					continue
				}

				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					startTimer()
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warn("fsnotify error", zap.Error(err))
			}
		}
	}()
}
