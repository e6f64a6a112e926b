package report_fs

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/davarch/ci-runner/internal/domain"
)

type FSSink struct {
	path string
}

func New(path string) *FSSink { return &FSSink{path: path} }

func (s *FSSink) Write(_ context.Context, r domain.RunReport) error {
	if s.path == "" {
		return errors.New("report path is empty")
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(s.path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	type stageOut struct {
		Name       string `json:"name"`
		Status     string `json:"status"`
		Error      string `json:"error,omitempty"`
		DurationMS int64  `json:"duration_ms"`
	}
	type out struct {
		RunID       string     `json:"run_id"`
		Pipeline    string     `json:"pipeline"`
		Job         string     `json:"job"`
		BuildNumber string     `json:"build_number"`
		BuildURL    string     `json:"build_url"`
		Branch      string     `json:"branch"`
		Outcome     string     `json:"outcome"`
		Stages      []stageOut `json:"stages"`
		Started     int64      `json:"started"`
		Finished    int64      `json:"finished"`
	}

	stages := make([]stageOut, 0, len(r.Stages))
	for _, st := range r.Stages {
		stages = append(stages, stageOut{
			Name:       st.Name,
			Status:     string(st.Status),
			Error:      st.Error,
			DurationMS: st.Duration.Milliseconds(),
		})
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")

	return enc.Encode(out{
		RunID:       r.RunID,
		Pipeline:    r.Pipeline,
		Job:         r.JobName,
		BuildNumber: r.BuildNumber,
		BuildURL:    r.BuildURL,
		Branch:      r.Branch,
		Outcome:     string(r.Outcome),
		Stages:      stages,
		Started:     r.Started.Unix(),
		Finished:    r.Finished.Unix(),
	})
}
