package provision

import (
	"encoding/json"
	"strings"
)

// ScriptResultSuccess is the status value the provisioning script must emit
// for a run to count as successful.
const ScriptResultSuccess = "success"

// ScriptResult is the terminal JSON object the provisioning script prints on
// its last JSON stdout line.
type ScriptResult struct {
	Status        string `json:"status"`
	ServerID      int64  `json:"server_id"`
	ServerIP      string `json:"server_ip"`
	ServerName    string `json:"server_name"`
	SetupPassword string `json:"setup_password"`
}

// ParseScriptResult scans captured stdout line by line and returns the last
// line that starts with "{" and parses as a JSON object. Earlier JSON-looking
// progress lines are superseded; malformed candidates are skipped, not fatal.
// Returns nil when no line qualifies.
func ParseScriptResult(stdout string) *ScriptResult {
	var result *ScriptResult
	for _, line := range strings.Split(strings.TrimSpace(stdout), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "{") {
			continue
		}
		var r ScriptResult
		if err := json.Unmarshal([]byte(line), &r); err != nil {
			continue
		}
		result = &r
	}
	return result
}
