package journal

import (
	"bytes"
	"encoding/json"
	"errors"
)

// ModuleUnknown is reported when a payload names no producing module.
const ModuleUnknown = "unknown"

// resultView is the subset of an orchestration result payload the
// builder and the replay engine look at. Everything else stays opaque.
type resultView struct {
	Invocation *struct {
		ModuleName string `json:"module_name"`
	} `json:"invocation"`
	AnsibleModule string            `json:"_ansible_module_name"`
	Action        string            `json:"action"`
	Changed       *bool             `json:"changed"`
	Facts         json.RawMessage   `json:"ansible_facts"`
	Results       []json.RawMessage `json:"results"`
}

// viewOf decodes raw into a resultView. Payloads that are not JSON objects
// yield an empty view.
func viewOf(raw json.RawMessage) resultView {
	var v resultView
	if len(raw) == 0 {
		return v
	}
	_ = json.Unmarshal(raw, &v)
	return v
}

// ModuleName returns the producing module of a result payload
func ModuleName(raw json.RawMessage) string {
	v := viewOf(raw)
	switch {
	case v.Invocation != nil && v.Invocation.ModuleName != "":
		return v.Invocation.ModuleName
	case v.AnsibleModule != "":
		return v.AnsibleModule
	case v.Action != "":
		return v.Action
	default:
		return ModuleUnknown
	}
}

// Changed returns the payload's changed flag when present
func Changed(raw json.RawMessage) (changed bool, ok bool) {
	v := viewOf(raw)
	if v.Changed == nil {
		return false, false
	}
	return *v.Changed, true
}

// IsFactsGathering reports whether the payload comes from a facts-gathering task
func IsFactsGathering(raw json.RawMessage) bool {
	switch ModuleName(raw) {
	case "setup", "gather_facts":
		return true
	}
	v := viewOf(raw)
	return len(v.Facts) > 0 && v.Facts[0] == '{'
}

// FactsEnvironment extracts the environment mapping from a facts payload:
// ansible_facts.ansible_env when present, the whole facts object otherwise.
func FactsEnvironment(raw json.RawMessage) (json.RawMessage, bool) {
	v := viewOf(raw)
	if len(v.Facts) == 0 || v.Facts[0] != '{' {
		return nil, false
	}
	var facts struct {
		Env json.RawMessage `json:"ansible_env"`
	}
	if err := json.Unmarshal(v.Facts, &facts); err == nil && len(facts.Env) > 0 && facts.Env[0] == '{' {
		return facts.Env, true
	}
	return v.Facts, true
}

// ResultLines returns the string items of the payload's results array
func ResultLines(raw json.RawMessage) []string {
	v := viewOf(raw)
	lines := make([]string, 0, len(v.Results))
	for _, item := range v.Results {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			lines = append(lines, s)
		}
	}
	return lines
}

var errEmptyPayload = errors.New("empty result payload")

// normalizeRaw returns the canonical stored form of a payload: the same
// JSON with insignificant whitespace removed and no character escaped, which
// survives an encode/decode cycle byte for byte. Payloads that are not valid
// JSON are preserved as a JSON string.
func normalizeRaw(raw []byte) (json.RawMessage, error) {
	if len(raw) == 0 {
		return json.RawMessage(`{}`), errEmptyPayload
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err == nil {
		return buf.Bytes(), nil
	}
	quoted, err := Marshal(string(raw))
	if err != nil {
		return json.RawMessage(`{}`), err
	}
	return quoted, errors.New("result payload is not valid JSON")
}
