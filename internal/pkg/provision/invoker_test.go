package provision

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "provision.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/bash\n"+body), 0o755))
	return path
}

func testInvoker(script string, timeout time.Duration) *Invoker {
	return &Invoker{
		ScriptPath:      script,
		Timeout:         timeout,
		HetznerAPIToken: "token-123",
		SSHKeyID:        "42",
		FirewallID:      "7",
	}
}

func TestInvokerRun_Success(t *testing.T) {
	script := writeScript(t, `
echo "Creating server for $1..."
echo '{"status": "success", "server_id": 555, "server_ip": "203.0.113.9", "server_name": "openclaw-x", "setup_password": "frompw"}'
`)
	iv := testInvoker(script, 30*time.Second)

	outcome, err := iv.Run(context.Background(), "cust_abc", "pw")
	require.NoError(t, err)

	assert.True(t, outcome.Success)
	assert.False(t, outcome.TimedOut)
	require.NotNil(t, outcome.Result)
	assert.Equal(t, int64(555), outcome.Result.ServerID)
	assert.Equal(t, "203.0.113.9", outcome.Result.ServerIP)
	assert.Contains(t, outcome.Log, "Creating server for cust_abc")
}

func TestInvokerRun_NonZeroExit(t *testing.T) {
	script := writeScript(t, `
echo "partial progress"
echo "hcloud: rate limit exceeded" >&2
exit 3
`)
	iv := testInvoker(script, 30*time.Second)

	outcome, err := iv.Run(context.Background(), "cust_abc", "pw")
	require.NoError(t, err)

	assert.False(t, outcome.Success)
	assert.False(t, outcome.TimedOut)
	assert.Nil(t, outcome.Result)
	assert.Contains(t, outcome.Log, "partial progress")
	assert.Contains(t, outcome.Log, "rate limit exceeded")
}

func TestInvokerRun_NonSuccessStatus(t *testing.T) {
	script := writeScript(t, `echo '{"status": "error", "server_id": 0}'`)
	iv := testInvoker(script, 30*time.Second)

	outcome, err := iv.Run(context.Background(), "cust_abc", "pw")
	require.NoError(t, err)

	assert.False(t, outcome.Success)
	require.NotNil(t, outcome.Result)
	assert.Equal(t, "error", outcome.Result.Status)
}

func TestInvokerRun_Timeout(t *testing.T) {
	script := writeScript(t, `sleep 30`)
	iv := testInvoker(script, 200*time.Millisecond)

	start := time.Now()
	outcome, err := iv.Run(context.Background(), "cust_abc", "pw")
	require.NoError(t, err)

	assert.True(t, outcome.TimedOut)
	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Log, "timed out")
	assert.Less(t, time.Since(start), 15*time.Second, "subprocess must not be awaited to completion")
}

func TestInvokerRun_MissingScript(t *testing.T) {
	iv := testInvoker(filepath.Join(t.TempDir(), "nope.sh"), 5*time.Second)

	// bash itself starts fine and exits non-zero complaining about the file,
	// so a missing script surfaces as a failed outcome rather than an error.
	outcome, err := iv.Run(context.Background(), "cust_abc", "pw")
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Log, "nope.sh")
}

func TestInvokerRun_EnvironmentIsExplicit(t *testing.T) {
	script := writeScript(t, `
echo "token=$HETZNER_API_TOKEN key=$SSH_KEY_ID fw=$FIREWALL_ID home=$HOME leak=$LEAKY_VAR"
echo '{"status": "success", "server_id": 1, "server_ip": "192.0.2.1"}'
`)
	t.Setenv("LEAKY_VAR", "should-not-appear")
	iv := testInvoker(script, 30*time.Second)

	outcome, err := iv.Run(context.Background(), "cust_abc", "pw")
	require.NoError(t, err)
	require.True(t, outcome.Success)

	assert.Contains(t, outcome.Log, "token=token-123 key=42 fw=7 home=/root leak=")
	assert.NotContains(t, outcome.Log, "should-not-appear")
}

func TestInvokerRun_ArgumentsPassed(t *testing.T) {
	script := writeScript(t, `echo "{\"status\": \"success\", \"server_name\": \"$1-$2\"}"`)
	iv := testInvoker(script, 30*time.Second)

	outcome, err := iv.Run(context.Background(), "cust_42", "secretpw")
	require.NoError(t, err)
	require.True(t, outcome.Success)
	assert.Equal(t, "cust_42-secretpw", outcome.Result.ServerName)
}
