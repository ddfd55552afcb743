package types

import "encoding/json"

type Verdict string

const (
	VerdictAnswer   Verdict = "ANSWER"
	VerdictEscalate Verdict = "ESCALATE"
	VerdictDeny     Verdict = "DENY"
)

// DecisionRequest is the body of POST /api/tenants/{tenant_id}/decision.
// Fields is omitted entirely when empty.
type DecisionRequest struct {
	Question string         `json:"question"`
	Fields   map[string]any `json:"fields,omitempty"`
}

type ActionResult struct {
	Name  string          `json:"name"`
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

type DecisionResult struct {
	Decision      Verdict        `json:"decision"`
	RuleID        *string        `json:"rule_id"`
	Confidence    float64        `json:"confidence"`
	Answer        string         `json:"answer"`
	Actions       []string       `json:"actions"`
	ActionResults []ActionResult `json:"action_results,omitempty"`
	Data          map[string]any `json:"data,omitempty"`
	TenantID      string         `json:"tenant_id"`
	OrgType       string         `json:"org_type"`
	RequestedBy   string         `json:"requested_by"`

	// Raw holds the response body exactly as received.
	Raw json.RawMessage `json:"-"`
}

// FailedActions returns the action results that reported ok=false.
func (r DecisionResult) FailedActions() []ActionResult {
	out := []ActionResult{}
	for _, res := range r.ActionResults {
		if !res.OK {
			out = append(out, res)
		}
	}
	return out
}
