package health

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/openclaw/hosted/app/models"
)

const (
	// ServicePort is the fixed port the hosted service gateway listens on.
	ServicePort = 18789

	probeTimeout = 10 * time.Second
)

// Store is the persistence surface for health results. Satisfied by
// repository.InstanceRepository.
type Store interface {
	UpdateHealth(instanceID, healthStatus string, checkedAt time.Time) error
	ListActiveWithAddress() ([]models.Instance, error)
}

// Prober checks reachability of provisioned instances' service endpoints and
// records the observed status.
type Prober struct {
	store Store

	// Port and HTTPClient are overridable for tests.
	Port       int
	HTTPClient *http.Client
}

// NewProber creates a health prober.
func NewProber(store Store) *Prober {
	return &Prober{
		store:      store,
		Port:       ServicePort,
		HTTPClient: &http.Client{Timeout: probeTimeout},
	}
}

// Check probes one instance endpoint and persists the result. Any 2xx-4xx
// response counts as healthy: even an erroring request proves the host and
// process are alive. Connection failures, timeouts and 5xx are unhealthy.
func (p *Prober) Check(ctx context.Context, instanceID, serverIP string) bool {
	healthy := false
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("http://%s:%d/", serverIP, p.Port), nil)
	if err == nil {
		if resp, rerr := p.HTTPClient.Do(req); rerr == nil {
			resp.Body.Close()
			healthy = resp.StatusCode >= 200 && resp.StatusCode < 500
		}
	}

	status := models.HealthStatusUnhealthy
	if healthy {
		status = models.HealthStatusHealthy
	}
	if err := p.store.UpdateHealth(instanceID, status, time.Now()); err != nil {
		log.Errorf("[Health] Failed to persist health for %s: %v", instanceID, err)
	}
	return healthy
}

// CheckInstance probes inst when it is active with a known address;
// otherwise it reports unreachable without any network call. probed tells the
// caller whether a live probe actually happened.
func (p *Prober) CheckInstance(ctx context.Context, inst *models.Instance) (reachable bool, probed bool) {
	if inst.Status != models.InstanceStatusActive || inst.ServerIP == "" {
		return false, false
	}
	return p.Check(ctx, inst.ID, inst.ServerIP), true
}

// SweepSummary reports a batch sweep over active instances.
type SweepSummary struct {
	Checked            int      `json:"checked"`
	Healthy            int      `json:"healthy"`
	Unhealthy          int      `json:"unhealthy"`
	UnhealthyInstances []string `json:"unhealthy_instances"`
}

// SweepActive probes every active instance with a known address. Intended to
// be triggered by external scheduling (cron), not self-scheduled.
func (p *Prober) SweepActive(ctx context.Context) (*SweepSummary, error) {
	instances, err := p.store.ListActiveWithAddress()
	if err != nil {
		return nil, err
	}

	summary := &SweepSummary{UnhealthyInstances: []string{}}
	for _, inst := range instances {
		summary.Checked++
		if p.Check(ctx, inst.ID, inst.ServerIP) {
			summary.Healthy++
		} else {
			summary.Unhealthy++
			summary.UnhealthyInstances = append(summary.UnhealthyInstances, inst.ID)
		}
	}

	if summary.Unhealthy > 0 {
		log.Warnf("[Health] Unhealthy instances: %v", summary.UnhealthyInstances)
	}
	return summary, nil
}
