package state

import (
	"encoding/json"
	"fmt"
)

// Report is the outcome of validating a raw payload before
// deserialization.
//
// NeedsMigration flags a deployment-version mismatch: the payload was
// written by a different release and is a migration signal rather than
// proof of corruption. Callers doing a plain load treat both cases the
// same way (quarantine the key, report no data); a migration path may
// instead attempt to convert it.
type Report struct {
	Valid          bool
	NeedsMigration bool
	Issues         []string
}

// Guard validates loaded payloads against the expected schema and the
// deployment-version marker.
//
// Demo payloads are exempt from version-mismatch quarantine: demo content
// is always regenerable, so keeping it available beats discarding it.
// The demo classifier is injected because demo recognition is heuristic
// and owned by the demo package.
type Guard struct {
	version   string
	looksDemo func(raw []byte) bool
}

// NewGuard creates a guard bound to the current deployment version.
// looksDemo may be nil, in which case only the payload's own isDemoMode
// flag marks it as demo.
func NewGuard(version string, looksDemo func(raw []byte) bool) *Guard {
	return &Guard{version: version, looksDemo: looksDemo}
}

// Validate structurally checks a raw payload and compares the stored
// deployment-version marker against the guard's version. It never returns
// an error: every problem becomes an issue in the report.
func (g *Guard) Validate(raw []byte, storedVersion string) Report {
	r := Report{}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		r.Issues = append(r.Issues, fmt.Sprintf("payload is not a JSON object: %v", err))
		return r
	}

	for _, field := range MandatoryFields {
		if _, ok := payload[field]; !ok {
			r.Issues = append(r.Issues, fmt.Sprintf("missing mandatory field %q", field))
		}
	}

	if authRaw, ok := payload["authentication"]; ok {
		r.Issues = append(r.Issues, validateAuthFlags(authRaw)...)
	}

	if len(r.Issues) > 0 {
		return r
	}

	if storedVersion != g.version && !g.isDemoPayload(raw) {
		r.NeedsMigration = true
		r.Issues = append(r.Issues, fmt.Sprintf("deployment version mismatch: stored %q, current %q", storedVersion, g.version))
		return r
	}

	r.Valid = true
	return r
}

func (g *Guard) isDemoPayload(raw []byte) bool {
	var probe struct {
		Auth struct {
			IsDemoMode bool `json:"isDemoMode"`
		} `json:"authentication"`
	}
	if err := json.Unmarshal(raw, &probe); err == nil && probe.Auth.IsDemoMode {
		return true
	}
	if g.looksDemo != nil {
		return g.looksDemo(raw)
	}
	return false
}

// validateAuthFlags requires authentication.isAuthenticated and
// authentication.isDemoMode to be present booleans: these two flags drive
// namespace derivation and must never be guessed from a zero value.
func validateAuthFlags(raw json.RawMessage) []string {
	var auth map[string]json.RawMessage
	if err := json.Unmarshal(raw, &auth); err != nil {
		return []string{fmt.Sprintf("authentication block is not an object: %v", err)}
	}

	var issues []string
	for _, flag := range []string{"isAuthenticated", "isDemoMode"} {
		v, ok := auth[flag]
		if !ok {
			issues = append(issues, fmt.Sprintf("authentication.%s is missing", flag))
			continue
		}
		var b bool
		if err := json.Unmarshal(v, &b); err != nil {
			issues = append(issues, fmt.Sprintf("authentication.%s is not a boolean", flag))
		}
	}
	return issues
}
