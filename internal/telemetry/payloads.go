package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// PersistRequestPayload writes the serialized completion request to
// .ayyy/payloads/<turnID>-req.json when payload persistence is enabled.
//
// Tool schemas are static per session and dominate payload size, so they are
// stripped and replaced with a count before writing.
func PersistRequestPayload(turnID string, body []byte) {
	if !PersistPayloadsEnabled() || turnID == "" {
		return
	}

	out := string(body)
	if tools := gjson.GetBytes(body, "tools"); tools.Exists() {
		n := int(tools.Get("#").Int())
		if s, err := sjson.Delete(out, "tools"); err == nil {
			out = s
		}
		if s, err := sjson.Set(out, "tools_omitted", n); err == nil {
			out = s
		}
	}

	dir := filepath.Join(stateDir, "payloads")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: mkdir %s: %v\n", dir, err)
		return
	}
	path := filepath.Join(dir, turnID+"-req.json")
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: write %s: %v\n", path, err)
	}
}
