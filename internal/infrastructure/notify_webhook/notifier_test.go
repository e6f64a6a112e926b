package notify_webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/davarch/ci-runner/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotify_PostsColoredAttachment(t *testing.T) {
	var got payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	c := New(srv.URL, "#ci", 5*time.Second)
	err := c.Notify(context.Background(), domain.OutcomeSuccess, "SUCCESSFUL: job 'package-job [42]'")
	require.NoError(t, err)

	assert.Equal(t, "#ci", got.Channel)
	require.Len(t, got.Attachments, 1)
	assert.Equal(t, "good", got.Attachments[0].Color)
	assert.Contains(t, got.Attachments[0].Text, "package-job")
}

func TestNotify_OutcomeColors(t *testing.T) {
	assert.Equal(t, "good", colorFor(domain.OutcomeSuccess))
	assert.Equal(t, "warning", colorFor(domain.OutcomeUnstable))
	assert.Equal(t, "danger", colorFor(domain.OutcomeFailure))
}

func TestNotify_RetriesServerErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "", 5*time.Second)
	err := c.Notify(context.Background(), domain.OutcomeFailure, "FAILED")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, calls, 3)
}

func TestNotify_ClientErrorIsPermanent(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL, "", 5*time.Second)
	err := c.Notify(context.Background(), domain.OutcomeFailure, "FAILED")
	require.Error(t, err)
	assert.Equal(t, 1, calls, "4xx must not be retried")
}

func TestNotify_SoftModeSwallowsErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewSoft(srv.URL, "", 5*time.Second)
	assert.NoError(t, c.Notify(context.Background(), domain.OutcomeFailure, "FAILED"))
}
