package mockapi

import (
	"strings"

	"github.com/davidahmann/agent-platform/pkg/types"
)

// DecideFunc produces the verdict for one query. The mock is not a rules
// engine; the default returns a fixed answer that echoes the request.
type DecideFunc func(tenant Tenant, question string, fields map[string]any) types.DecisionResult

const (
	CannedRuleID     = "MOCK-ECHO-01"
	CannedConfidence = 0.9
)

func CannedDecision(tenant Tenant, question string, fields map[string]any) types.DecisionResult {
	rule := CannedRuleID
	data := map[string]any{}
	for k, v := range fields {
		data[k] = v
	}
	return types.DecisionResult{
		Decision:   types.VerdictAnswer,
		RuleID:     &rule,
		Confidence: CannedConfidence,
		Answer:     "Mock answer (" + tenant.OrgType + "): " + strings.TrimSpace(question),
		Actions:    []string{"echo_fields"},
		ActionResults: []types.ActionResult{
			{Name: "echo_fields", OK: true},
		},
		Data: data,
	}
}
