package docsource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"resty.dev/v3"

	"github.com/vk/archreview/internal/runctx"
	"github.com/vk/archreview/internal/testutil"
)

func TestSummarize_LocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "design.md")
	require.NoError(t, os.WriteFile(path, []byte("# Payments redesign\nqueue-based"), 0o600))

	model := &testutil.FakeModel{Responses: []string{"A queue-based payments redesign."}}
	m := New(model, resty.New())

	out, err := m.Summarize(context.Background(), &Input{Source: path})
	require.NoError(t, err)
	assert.Equal(t, "A queue-based payments redesign.", out.Summary)

	require.Len(t, model.Prompts, 1)
	assert.Contains(t, model.Prompts[0], "# Payments redesign")
}

func TestSummarize_HTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("remote document body"))
	}))
	defer srv.Close()

	model := &testutil.FakeModel{Responses: []string{"summary"}}
	m := New(model, resty.New())

	out, err := m.Summarize(context.Background(), &Input{Source: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, "summary", out.Summary)

	require.Len(t, model.Prompts, 1)
	assert.Contains(t, model.Prompts[0], "remote document body")
}

func TestSummarize_HTTPErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	m := New(&testutil.FakeModel{}, resty.New())

	_, err := m.Summarize(context.Background(), &Input{Source: srv.URL})
	require.Error(t, err)
	assert.True(t, runctx.IsTransient(err))
}

func TestSummarize_MissingFile(t *testing.T) {
	m := New(&testutil.FakeModel{}, resty.New())

	_, err := m.Summarize(context.Background(), &Input{Source: filepath.Join(t.TempDir(), "absent.md")})
	require.Error(t, err)
	assert.False(t, runctx.IsTransient(err))
}
