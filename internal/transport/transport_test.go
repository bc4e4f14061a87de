package transport_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxkimambo/stockctl/internal/activity"
	"github.com/maxkimambo/stockctl/internal/transport"
)

// newTestServer creates a test server with keep-alives disabled so closing
// it does not disturb other tests sharing the default transport.
func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	server.Config.SetKeepAlivesEnabled(false)
	t.Cleanup(server.Close)
	return server
}

func TestIsReadOnly(t *testing.T) {
	tests := map[string]bool{
		http.MethodGet:     true,
		http.MethodHead:    true,
		http.MethodOptions: true,
		"":                 true,
		http.MethodPost:    false,
		http.MethodPut:     false,
		http.MethodPatch:   false,
		http.MethodDelete:  false,
	}
	for method, want := range tests {
		assert.Equal(t, want, transport.IsReadOnly(method), "method %q", method)
	}
}

func TestTransport_Participation(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		override *bool
		want     int
	}{
		{name: "GET is silent", method: http.MethodGet, want: 0},
		{name: "POST counts", method: http.MethodPost, want: 1},
		{name: "DELETE counts", method: http.MethodDelete, want: 1},
		{name: "GET opted in", method: http.MethodGet, override: ptr(true), want: 1},
		{name: "POST opted out", method: http.MethodPost, override: ptr(false), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := activity.New()
			server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"ok":true}`))
			})
			client := &http.Client{Transport: transport.New(c, nil)}

			ctx := context.Background()
			if tt.override != nil {
				ctx = activity.WithParticipation(ctx, *tt.override)
			}
			req, err := http.NewRequestWithContext(ctx, tt.method, server.URL, nil)
			require.NoError(t, err)

			resp, err := client.Do(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Active(), "in flight until the body is consumed")

			_, err = io.ReadAll(resp.Body)
			require.NoError(t, err)
			require.NoError(t, resp.Body.Close())
			assert.Equal(t, 0, c.Active())
		})
	}
}

func TestTransport_EndsOnCloseWithoutRead(t *testing.T) {
	c := activity.New()
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 1024)))
	})
	client := &http.Client{Transport: transport.New(c, nil)}

	resp, err := client.Post(server.URL, "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	assert.Equal(t, 1, c.Active())

	require.NoError(t, resp.Body.Close())
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, 0, c.Active(), "double close ends once")
}

func TestTransport_EndsOnErrorStatus(t *testing.T) {
	c := activity.New()
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "out of stock", http.StatusUnprocessableEntity)
	})
	client := &http.Client{Transport: transport.New(c, nil)}

	resp, err := client.Post(server.URL, "application/json", nil)
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, 0, c.Active())
}

func TestTransport_EndsOnTransportFailure(t *testing.T) {
	c := activity.New()
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := &http.Client{Transport: transport.New(c, nil)}
	resp, err := client.Post(url, "application/json", nil)
	if resp != nil {
		_ = resp.Body.Close()
	}

	require.Error(t, err)
	assert.Equal(t, 0, c.Active())
}

func TestTransport_SetsRequestID(t *testing.T) {
	ids := make(chan string, 2)
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		ids <- r.Header.Get(transport.RequestIDHeader)
	})
	client := &http.Client{Transport: transport.New(activity.New(), nil)}

	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	req.Header.Set(transport.RequestIDHeader, "caller-chosen")
	resp, err = client.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Len(t, <-ids, 36)
	assert.Equal(t, "caller-chosen", <-ids)
}

func TestTransport_NilCoordinator(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})
	client := &http.Client{Transport: &transport.Transport{}}

	resp, err := client.Post(server.URL, "application/json", nil)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
}

func ptr(b bool) *bool { return &b }
