package pipeline_yaml

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const samplePipeline = `
name: package

stages:
  - name: build
    steps:
      - run: make dist
  - name: upload
    when:
      branch: master
    credentials:
      entry: registry
      username_var: REGISTRY_USER
      password_var: REGISTRY_PASS
    steps:
      - run: upload dist/*
        timeout: 30s
`

func writePipeline(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_AppliesDefaultsAndMapsFields(t *testing.T) {
	path := writePipeline(t, samplePipeline)

	p, err := Load(path, 5*time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p.Name != "package" {
		t.Errorf("name: got %q", p.Name)
	}
	if len(p.Stages) != 2 {
		t.Fatalf("expected 2 stages, got %d", len(p.Stages))
	}

	build := p.Stages[0]
	if build.When.Branch != "" {
		t.Errorf("build stage should have no branch gate, got %q", build.When.Branch)
	}
	if build.Steps[0].Timeout != 5*time.Minute {
		t.Errorf("default timeout not applied, got %v", build.Steps[0].Timeout)
	}

	upload := p.Stages[1]
	if upload.When.Branch != "master" {
		t.Errorf("upload branch gate: got %q", upload.When.Branch)
	}
	if upload.Credentials == nil || upload.Credentials.Entry != "registry" {
		t.Errorf("credentials binding not mapped: %+v", upload.Credentials)
	}
	if upload.Steps[0].Timeout != 30*time.Second {
		t.Errorf("explicit timeout overridden, got %v", upload.Steps[0].Timeout)
	}
}

func TestLoad_RejectsInvalidPipelines(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"no stages", `name: empty`},
		{"unnamed stage", "stages:\n  - steps:\n      - run: make\n"},
		{"duplicate stage", "stages:\n  - name: a\n    steps:\n      - run: x\n  - name: a\n    steps:\n      - run: y\n"},
		{"stage without steps", "stages:\n  - name: a\n"},
		{"step without run", "stages:\n  - name: a\n    steps:\n      - name: noop\n"},
		{"credentials missing vars", "stages:\n  - name: a\n    credentials:\n      entry: registry\n    steps:\n      - run: x\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writePipeline(t, tc.yaml)
			if _, err := Load(path, 0); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSetStageDisabled_RoundTrips(t *testing.T) {
	path := writePipeline(t, samplePipeline)

	changed, err := SetStageDisabled(path, "upload", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !changed {
		t.Fatal("expected a change")
	}

	p, err := Load(path, 0)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if !p.Stages[1].Disabled {
		t.Error("upload stage should be disabled after save")
	}

	// second call is a no-op
	changed, err = SetStageDisabled(path, "upload", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if changed {
		t.Error("expected no change on repeat")
	}
}

func TestStageNames(t *testing.T) {
	path := writePipeline(t, samplePipeline)

	names, err := StageNames(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(names) != 2 || names[0] != "build" || names[1] != "upload" {
		t.Errorf("unexpected names: %v", names)
	}
}
