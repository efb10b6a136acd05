package provision

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/openclaw/hosted/app/repository"
)

// Runner executes one provisioning attempt. *Invoker is the production
// implementation.
type Runner interface {
	Run(ctx context.Context, customerID, setupPassword string) (*Outcome, error)
}

// Store is the persistence surface the engine needs. It is satisfied by
// repository.InstanceRepository; each Mark* call commits one outcome as a
// single transaction.
type Store interface {
	SetSetupPassword(instanceID, password string) error
	MarkProvisioned(s repository.ProvisionSuccess) error
	MarkProvisionFailed(instanceID, customerID, provisionLog string) error
}

// Engine drives the provisioning state machine for a single instance:
// provisioning -> active | failed. It is triggered from a background job, so
// failures are recorded in the store rather than propagated; the returned
// error exists only for job-level observability.
type Engine struct {
	store  Store
	runner Runner
}

// NewEngine creates a provisioning engine.
func NewEngine(store Store, runner Runner) *Engine {
	return &Engine{store: store, runner: runner}
}

// Run provisions one instance end to end and commits the terminal outcome.
func (e *Engine) Run(ctx context.Context, instanceID, customerID string) error {
	setupPassword, err := GenerateSetupPassword()
	if err != nil {
		return e.fail(instanceID, customerID, fmt.Sprintf("failed to generate setup password: %v", err))
	}

	// Persist the credential before invoking so a slow or retried run still
	// has a usable credential recorded.
	if err := e.store.SetSetupPassword(instanceID, setupPassword); err != nil {
		log.Errorf("[Provision] Failed to store setup password for %s: %v", instanceID, err)
		return fmt.Errorf("store setup password: %w", err)
	}

	log.Infof("[Provision] Starting provisioning for instance %s (customer %s)", instanceID, customerID)

	outcome, err := e.runner.Run(ctx, customerID, setupPassword)
	if err != nil {
		return e.fail(instanceID, customerID, fmt.Sprintf("provisioning error: %v", err))
	}
	if !outcome.Success {
		if outcome.TimedOut {
			log.Errorf("[Provision] Provisioning timed out for %s", instanceID)
		} else {
			log.Errorf("[Provision] Provisioning failed for %s", instanceID)
		}
		return e.fail(instanceID, customerID, outcome.Log)
	}

	result := outcome.Result
	password := result.SetupPassword
	if password == "" {
		// Script omitted the credential; keep the pre-generated one.
		password = setupPassword
	}
	var serverID *int64
	if result.ServerID != 0 {
		serverID = &result.ServerID
	}
	payload, _ := json.Marshal(result)

	if err := e.store.MarkProvisioned(repository.ProvisionSuccess{
		InstanceID:      instanceID,
		CustomerID:      customerID,
		HetznerServerID: serverID,
		ServerIP:        result.ServerIP,
		ServerName:      result.ServerName,
		SetupPassword:   password,
		ProvisionLog:    outcome.Log,
		EventPayload:    string(payload),
	}); err != nil {
		log.Errorf("[Provision] Failed to commit success for %s: %v", instanceID, err)
		return fmt.Errorf("commit provision success: %w", err)
	}

	log.Infof("[Provision] Instance %s provisioned successfully: %s", instanceID, result.ServerIP)
	return nil
}

func (e *Engine) fail(instanceID, customerID, provisionLog string) error {
	if err := e.store.MarkProvisionFailed(instanceID, customerID, provisionLog); err != nil {
		// The single worst case is a stuck provisioning row with no event;
		// make the double fault loud.
		log.Errorf("[Provision] Failed to commit failure for %s: %v", instanceID, err)
		return fmt.Errorf("commit provision failure: %w", err)
	}
	return fmt.Errorf("provisioning failed for instance %s", instanceID)
}

// GenerateSetupPassword returns a fresh URL-safe credential with 24 bytes of
// entropy.
func GenerateSetupPassword() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
