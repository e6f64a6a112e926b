package domain

import (
	"context"
	"errors"
)

type StepCall struct {
	Step      Step
	Workspace string
	Env       []string
}

type MockStepRunner struct {
	// FailOn maps a step's Run command to the error it should return.
	FailOn map[string]error
	// PanicOn names a Run command that panics instead of returning.
	PanicOn string
	Calls   []StepCall
}

func (m *MockStepRunner) Run(_ context.Context, step Step, ws string, env []string) (string, error) {
	m.Calls = append(m.Calls, StepCall{Step: step, Workspace: ws, Env: append([]string(nil), env...)})
	if m.PanicOn != "" && step.Run == m.PanicOn {
		panic("step panicked: " + step.Run)
	}
	if err, ok := m.FailOn[step.Run]; ok {
		return "", err
	}
	return "ok\n", nil
}

type MockNotifier struct {
	Outcomes []Outcome
	Messages []string
	Err      error
}

func (n *MockNotifier) Notify(_ context.Context, o Outcome, msg string) error {
	n.Outcomes = append(n.Outcomes, o)
	n.Messages = append(n.Messages, msg)
	return n.Err
}

type MockCredentialStore struct {
	Entries map[string]Credentials
	Lookups int
}

func (s *MockCredentialStore) Lookup(_ context.Context, entry string) (Credentials, error) {
	s.Lookups++
	c, ok := s.Entries[entry]
	if !ok {
		return Credentials{}, errors.New("unknown credential entry: " + entry)
	}
	return c, nil
}

type MockCleaner struct {
	Cleaned []string
	Err     error
}

func (c *MockCleaner) Clean(_ context.Context, dir string) error {
	c.Cleaned = append(c.Cleaned, dir)
	return c.Err
}

type MockReportSink struct {
	Reports []RunReport
	Err     error
}

func (s *MockReportSink) Write(_ context.Context, r RunReport) error {
	if s.Err != nil {
		return s.Err
	}
	s.Reports = append(s.Reports, r)
	return nil
}
