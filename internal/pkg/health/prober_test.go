package health

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/hosted/app/models"
)

type recordingStore struct {
	instances []models.Instance
	listErr   error

	updates map[string]string
}

func newRecordingStore(instances ...models.Instance) *recordingStore {
	return &recordingStore{instances: instances, updates: map[string]string{}}
}

func (s *recordingStore) UpdateHealth(instanceID, healthStatus string, checkedAt time.Time) error {
	s.updates[instanceID] = healthStatus
	return nil
}

func (s *recordingStore) ListActiveWithAddress() ([]models.Instance, error) {
	return s.instances, s.listErr
}

// proberFor points a Prober at a local httptest server by splitting its
// address into the IP and port the probe URL is built from.
func proberFor(t *testing.T, store Store, srv *httptest.Server) (*Prober, string) {
	t.Helper()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	p := NewProber(store)
	p.Port = port
	return p, host
}

func TestCheck_HealthyOn200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := newRecordingStore()
	p, host := proberFor(t, store, srv)

	assert.True(t, p.Check(context.Background(), "inst_1", host))
	assert.Equal(t, models.HealthStatusHealthy, store.updates["inst_1"])
}

func TestCheck_ClientErrorStillHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	store := newRecordingStore()
	p, host := proberFor(t, store, srv)

	assert.True(t, p.Check(context.Background(), "inst_1", host), "a responding process is alive even when it rejects the request")
	assert.Equal(t, models.HealthStatusHealthy, store.updates["inst_1"])
}

func TestCheck_UnhealthyOn5xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	store := newRecordingStore()
	p, host := proberFor(t, store, srv)

	assert.False(t, p.Check(context.Background(), "inst_1", host))
	assert.Equal(t, models.HealthStatusUnhealthy, store.updates["inst_1"])
}

func TestCheck_StatusBounds(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		healthy bool
	}{
		{"informational below range", 103, false},
		{"lower bound", 200, true},
		{"upper bound", 499, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newRecordingStore()
			p := NewProber(store)
			p.HTTPClient = &http.Client{Transport: staticStatusTransport{tt.status}}

			assert.Equal(t, tt.healthy, p.Check(context.Background(), "inst_1", "203.0.113.1"))
		})
	}
}

type staticStatusTransport struct{ status int }

func (s staticStatusTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode: s.status,
		Body:       io.NopCloser(strings.NewReader("")),
	}, nil
}

func TestCheck_UnhealthyOnConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	store := newRecordingStore()
	p, host := proberFor(t, store, srv)
	srv.Close() // nothing listens on that port anymore

	assert.False(t, p.Check(context.Background(), "inst_1", host))
	assert.Equal(t, models.HealthStatusUnhealthy, store.updates["inst_1"])
}

func TestCheckInstance_ShortCircuits(t *testing.T) {
	store := newRecordingStore()
	p := NewProber(store)
	// A nil transport makes any accidental network call fail the test loudly.
	p.HTTPClient = &http.Client{Transport: failingTransport{t}}

	tests := []struct {
		name string
		inst models.Instance
	}{
		{"provisioning instance", models.Instance{ID: "inst_1", Status: models.InstanceStatusProvisioning, ServerIP: "203.0.113.1"}},
		{"failed instance", models.Instance{ID: "inst_2", Status: models.InstanceStatusFailed, ServerIP: "203.0.113.2"}},
		{"active without address", models.Instance{ID: "inst_3", Status: models.InstanceStatusActive}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reachable, probed := p.CheckInstance(context.Background(), &tt.inst)
			assert.False(t, reachable)
			assert.False(t, probed)
			assert.Empty(t, store.updates, "short-circuit must not persist anything")
		})
	}
}

type failingTransport struct{ t *testing.T }

func (f failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	f.t.Fatal("unexpected network call")
	return nil, nil
}

func TestSweepActive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	port, _ := strconv.Atoi(portStr)

	store := newRecordingStore(
		models.Instance{ID: "inst_up", Status: models.InstanceStatusActive, ServerIP: host},
		// TEST-NET-3 address, nothing answers there.
		models.Instance{ID: "inst_down", Status: models.InstanceStatusActive, ServerIP: "203.0.113.255"},
	)
	p := NewProber(store)
	p.Port = port
	p.HTTPClient = &http.Client{Timeout: 500 * time.Millisecond}

	summary, err := p.SweepActive(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Checked)
	assert.Equal(t, 1, summary.Healthy)
	assert.Equal(t, 1, summary.Unhealthy)
	assert.Equal(t, []string{"inst_down"}, summary.UnhealthyInstances)
	assert.Equal(t, models.HealthStatusHealthy, store.updates["inst_up"])
	assert.Equal(t, models.HealthStatusUnhealthy, store.updates["inst_down"])
}
