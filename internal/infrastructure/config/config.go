package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from "30s" style YAML
// strings (yaml.v3 has no built-in support for durations).
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*d = Duration(v)
		return nil
	}

	var n int64
	if err := value.Decode(&n); err != nil {
		return err
	}
	*d = Duration(n)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// CredentialEntry resolves either from the environment (the *_env fields)
// or from literal values in the config file. Env takes precedence.
type CredentialEntry struct {
	UsernameEnv string `yaml:"username_env,omitempty"`
	PasswordEnv string `yaml:"password_env,omitempty"`
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
}

type Config struct {
	Notify struct {
		WebhookURL string   `yaml:"webhook_url"`
		Channel    string   `yaml:"channel"`
		Timeout    Duration `yaml:"timeout"`
		Soft       bool     `yaml:"soft"`
	} `yaml:"notify"`

	Run struct {
		JobName     string   `yaml:"job_name"`
		BuildNumber string   `yaml:"build_number"`
		BuildURL    string   `yaml:"build_url"`
		Branch      string   `yaml:"branch"`
		Workspace   string   `yaml:"workspace"`
		Shell       string   `yaml:"shell"`
		StepTimeout Duration `yaml:"step_timeout"`
		ReportPath  string   `yaml:"report_path"`
	} `yaml:"run"`

	Credentials map[string]CredentialEntry `yaml:"credentials"`
}

// Load reads config.yaml (missing file is fine, defaults apply) and lets
// the conventional CI environment variables override it.
func Load(path string) (Config, error) {
	var c Config

	c.Notify.Timeout = Duration(10 * time.Second)
	c.Run.Shell = "sh"
	c.Run.StepTimeout = Duration(10 * time.Minute)
	c.Run.ReportPath = expandHome("~/.cache/ci-runner/report.json")

	if path != "" {
		if b, err := os.ReadFile(path); err == nil {
			_ = yaml.Unmarshal(b, &c)
		}
	}

	if v := os.Getenv("CI_WEBHOOK_URL"); v != "" {
		c.Notify.WebhookURL = v
	}

	if v := os.Getenv("CI_CHANNEL"); v != "" {
		c.Notify.Channel = v
	}

	if v := os.Getenv("JOB_NAME"); v != "" {
		c.Run.JobName = v
	}

	if v := os.Getenv("BUILD_NUMBER"); v != "" {
		c.Run.BuildNumber = v
	}

	if v := os.Getenv("BUILD_URL"); v != "" {
		c.Run.BuildURL = v
	}

	if v := os.Getenv("BRANCH_NAME"); v != "" {
		c.Run.Branch = v
	}

	if v := os.Getenv("WORKSPACE"); v != "" {
		c.Run.Workspace = expandHome(v)
	}

	if v := os.Getenv("REPORT_PATH"); v != "" {
		c.Run.ReportPath = expandHome(v)
	}

	if v := os.Getenv("STEP_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Run.StepTimeout = Duration(d)
		}
	}

	c.Run.Workspace = expandHome(c.Run.Workspace)
	c.Run.ReportPath = expandHome(c.Run.ReportPath)

	if c.Run.Shell == "" {
		c.Run.Shell = "sh"
	}

	if c.Run.StepTimeout <= 0 {
		c.Run.StepTimeout = Duration(10 * time.Minute)
	}

	if c.Notify.Timeout <= 0 {
		c.Notify.Timeout = Duration(10 * time.Second)
	}

	if c.Run.BuildNumber == "" {
		c.Run.BuildNumber = "0"
	}

	if c.Notify.WebhookURL == "" {
		return c, errors.New("CI_WEBHOOK_URL is required (YAML or ENV)")
	}

	return c, nil
}

func expandHome(p string) string {
	if strings.HasPrefix(p, "~/") {
		if h, _ := os.UserHomeDir(); h != "" {
			return h + p[1:]
		}
	}
	return p
}
