package report_fs

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/davarch/ci-runner/internal/domain"
)

func TestWrite_CreatesReportFile(t *testing.T) {
	tmp := t.TempDir()
	path := tmp + "/reports/last.json"

	s := New(path)
	r := domain.RunReport{
		RunID:       "run-1",
		Pipeline:    "package",
		JobName:     "package-job",
		BuildNumber: "42",
		Branch:      "master",
		Outcome:     domain.OutcomeSuccess,
		Stages: []domain.StageResult{
			{Name: "build", Status: domain.StageOK, Duration: 1500 * time.Millisecond},
			{Name: "upload", Status: domain.StageSkipped},
		},
		Started:  time.Unix(100, 0),
		Finished: time.Unix(102, 0),
	}
	if err := s.Write(context.Background(), r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("file not created: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got["outcome"] != "success" {
		t.Errorf("outcome: got %v", got["outcome"])
	}
	if stages, ok := got["stages"].([]any); !ok || len(stages) != 2 {
		t.Errorf("stages: got %v", got["stages"])
	}
}

func TestWrite_EmptyPathFails(t *testing.T) {
	if err := New("").Write(context.Background(), domain.RunReport{}); err == nil {
		t.Error("expected error for empty path")
	}
}
