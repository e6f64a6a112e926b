package pipeline_yaml

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/davarch/ci-runner/internal/domain"
	"gopkg.in/yaml.v3"
)

// duration unmarshals "30s" style YAML strings; yaml.v3 has no built-in
// time.Duration support.
type duration time.Duration

func (d *duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*d = duration(v)
		return nil
	}

	var n int64
	if err := value.Decode(&n); err != nil {
		return err
	}
	*d = duration(n)
	return nil
}

func (d duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

type stepDTO struct {
	Name         string   `yaml:"name,omitempty"`
	Run          string   `yaml:"run"`
	AllowFailure bool     `yaml:"allow_failure,omitempty"`
	Timeout      duration `yaml:"timeout,omitempty"`
}

type credentialsDTO struct {
	Entry       string `yaml:"entry"`
	UsernameVar string `yaml:"username_var"`
	PasswordVar string `yaml:"password_var"`
}

type whenDTO struct {
	Branch string `yaml:"branch,omitempty"`
}

type stageDTO struct {
	Name        string          `yaml:"name"`
	When        *whenDTO        `yaml:"when,omitempty"`
	Credentials *credentialsDTO `yaml:"credentials,omitempty"`
	Disabled    bool            `yaml:"disabled,omitempty"`
	Steps       []stepDTO       `yaml:"steps"`
}

type pipelineDTO struct {
	Name   string     `yaml:"name"`
	Stages []stageDTO `yaml:"stages"`
}

// Load reads and validates a pipeline file. Steps without an explicit
// timeout get defaultTimeout.
func Load(path string, defaultTimeout time.Duration) (domain.Pipeline, error) {
	dto, err := load(path)
	if err != nil {
		return domain.Pipeline{}, err
	}

	p := toDomain(dto, defaultTimeout)
	if err := validate(p); err != nil {
		return domain.Pipeline{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

func load(path string) (pipelineDTO, error) {
	var dto pipelineDTO

	b, err := os.ReadFile(path)
	if err != nil {
		return dto, err
	}
	if err := yaml.Unmarshal(b, &dto); err != nil {
		return dto, fmt.Errorf("%s: %w", path, err)
	}
	return dto, nil
}

func toDomain(dto pipelineDTO, defaultTimeout time.Duration) domain.Pipeline {
	p := domain.Pipeline{Name: dto.Name}

	for _, s := range dto.Stages {
		stage := domain.Stage{Name: s.Name, Disabled: s.Disabled}
		if s.When != nil {
			stage.When = domain.When{Branch: s.When.Branch}
		}
		if s.Credentials != nil {
			stage.Credentials = &domain.CredentialBinding{
				Entry:       s.Credentials.Entry,
				UsernameVar: s.Credentials.UsernameVar,
				PasswordVar: s.Credentials.PasswordVar,
			}
		}
		for _, st := range s.Steps {
			step := domain.Step{
				Name:         st.Name,
				Run:          st.Run,
				AllowFailure: st.AllowFailure,
				Timeout:      time.Duration(st.Timeout),
			}
			if step.Timeout == 0 {
				step.Timeout = defaultTimeout
			}
			stage.Steps = append(stage.Steps, step)
		}
		p.Stages = append(p.Stages, stage)
	}

	return p
}

func validate(p domain.Pipeline) error {
	if len(p.Stages) == 0 {
		return errors.New("pipeline has no stages")
	}

	seen := make(map[string]bool, len(p.Stages))
	for _, s := range p.Stages {
		if s.Name == "" {
			return errors.New("stage without a name")
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate stage name %q", s.Name)
		}
		seen[s.Name] = true

		if len(s.Steps) == 0 {
			return fmt.Errorf("stage %q has no steps", s.Name)
		}
		for _, st := range s.Steps {
			if st.Run == "" {
				return fmt.Errorf("stage %q: step without a run command", s.Name)
			}
			if st.Timeout < 0 {
				return fmt.Errorf("stage %q: negative step timeout", s.Name)
			}
		}

		if c := s.Credentials; c != nil {
			if c.Entry == "" {
				return fmt.Errorf("stage %q: credentials without an entry name", s.Name)
			}
			if c.UsernameVar == "" || c.PasswordVar == "" {
				return fmt.Errorf("stage %q: credentials must name both env vars", s.Name)
			}
		}
	}

	return nil
}

// SetStageDisabled flips the disabled flag of one stage in the pipeline
// file. Returns false when the stage is missing or already in the wanted
// state.
func SetStageDisabled(path, stage string, disabled bool) (bool, error) {
	dto, err := load(path)
	if err != nil {
		return false, err
	}

	changed := false
	for i := range dto.Stages {
		if dto.Stages[i].Name == stage && dto.Stages[i].Disabled != disabled {
			dto.Stages[i].Disabled = disabled
			changed = true
		}
	}
	if !changed {
		return false, nil
	}

	return true, save(path, dto)
}

// StageNames lists the stage names in file order, for CLI completion.
func StageNames(path string) ([]string, error) {
	dto, err := load(path)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(dto.Stages))
	for _, s := range dto.Stages {
		out = append(out, s.Name)
	}
	return out, nil
}

func save(path string, dto pipelineDTO) error {
	if path == "" {
		return errors.New("empty pipeline path")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	lockFile := path + ".lock"
	lf, err := os.OpenFile(lockFile, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return err
	}
	defer func() { _ = lf.Close() }()

	if runtime.GOOS != "windows" {
		if err := syscall.Flock(int(lf.Fd()), syscall.LOCK_EX); err != nil {
			return err
		}
		defer func() { _ = syscall.Flock(int(lf.Fd()), syscall.LOCK_UN) }()
	}

	b, err := yaml.Marshal(&dto)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	defer func() { _ = f.Close() }()

	if _, err := f.Write(b); err != nil {
		return err
	}

	if err := f.Sync(); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}
