package model

// SecurityCheck is one pass/fail assertion from the startup permission
// audit. Critical marks checks whose failure the caller should treat as
// grounds to refuse startup; the flag itself is advisory.
type SecurityCheck struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Detail   string `json:"detail"`
	Critical bool   `json:"critical,omitempty"`
}
