package provision

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/openclaw/hosted/internal/pkg/config"
)

// Outcome is the reduced result of one provisioning script invocation. Log is
// always populated, success or failure, and is persisted verbatim for
// diagnostics.
type Outcome struct {
	Success  bool
	TimedOut bool
	Result   *ScriptResult
	Log      string
}

// Invoker runs the provisioning script as a time-bounded subprocess with a
// minimal, explicit environment. It has no side effects of its own.
type Invoker struct {
	ScriptPath      string
	Timeout         time.Duration
	HetznerAPIToken string
	SSHKeyID        string
	FirewallID      string
}

// NewInvoker builds an Invoker from process configuration.
func NewInvoker(cfg *config.Config) *Invoker {
	return &Invoker{
		ScriptPath:      cfg.ProvisioningScript,
		Timeout:         cfg.ProvisionTimeout,
		HetznerAPIToken: cfg.HetznerAPIToken,
		SSHKeyID:        cfg.SSHKeyID,
		FirewallID:      cfg.FirewallID,
	}
}

// Run executes `bash <script> <customerID> <setupPassword>` and reduces the
// captured output to an Outcome. The subprocess is killed when the timeout
// fires; it is never left running. A non-nil error means the invocation
// itself could not be carried out (e.g. the script is missing).
func (iv *Invoker) Run(ctx context.Context, customerID, setupPassword string) (*Outcome, error) {
	runCtx, cancel := context.WithTimeout(ctx, iv.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "bash", iv.ScriptPath, customerID, setupPassword)
	// Explicit environment only: provisioning must be reproducible and
	// auditable, so nothing ambient is inherited.
	cmd.Env = []string{
		"HETZNER_API_TOKEN=" + iv.HetznerAPIToken,
		"SSH_KEY_ID=" + iv.SSHKeyID,
		"FIREWALL_ID=" + iv.FirewallID,
		"PATH=/usr/local/bin:/usr/bin:/bin",
		"HOME=/root",
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Reap the process even if a grandchild holds the output pipes open
	// after the kill.
	cmd.WaitDelay = 10 * time.Second

	err := cmd.Run()

	if runCtx.Err() == context.DeadlineExceeded {
		return &Outcome{
			TimedOut: true,
			Log:      fmt.Sprintf("Provisioning timed out after %s", iv.Timeout),
		}, nil
	}

	combined := combineLog(stdout.String(), stderr.String())

	if err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			// Non-zero exit: the log carries the diagnostics.
			return &Outcome{Log: combined}, nil
		}
		return nil, fmt.Errorf("failed to start provisioning script: %w", err)
	}

	result := ParseScriptResult(stdout.String())
	return &Outcome{
		Success: result != nil && result.Status == ScriptResultSuccess,
		Result:  result,
		Log:     combined,
	}, nil
}

func combineLog(stdout, stderr string) string {
	return "STDOUT:\n" + stdout + "\n\nSTDERR:\n" + stderr
}
