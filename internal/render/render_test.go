package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/davidahmann/agent-platform/internal/opstate"
	"github.com/davidahmann/agent-platform/internal/preset"
	"github.com/davidahmann/agent-platform/pkg/types"
)

func TestTones(t *testing.T) {
	assert.Equal(t, ToneGreen, VerdictTone(types.VerdictAnswer))
	assert.Equal(t, ToneOrange, VerdictTone(types.VerdictEscalate))
	assert.Equal(t, ToneRed, VerdictTone(types.VerdictDeny))
	assert.Equal(t, ToneGray, VerdictTone("MAYBE"))

	assert.Equal(t, ToneGood, ConfidenceTone(0.8))
	assert.Equal(t, ToneBad, ConfidenceTone(0.79))
}

func TestPercent(t *testing.T) {
	r := New(&bytes.Buffer{}, false)
	assert.Equal(t, "92%", r.Percent(0.92))
	assert.Equal(t, "0%", r.Percent(0))
	assert.Equal(t, "100%", r.Percent(1))
}

func TestDecisionCard(t *testing.T) {
	body := []byte(`{"decision":"ANSWER","rule_id":"R-ABS-01","confidence":0.92,"answer":"Ο μαθητής έχει 3 απουσίες.","actions":["lookup_absences","notify_parent"],"action_results":[{"name":"lookup_absences","ok":true},{"name":"notify_parent","ok":false,"error":"smtp down"}],"data":{"absences":3},"tenant_id":"t-1","org_type":"school","requested_by":"admin@example.com"}`)
	var res types.DecisionResult
	if err := json.Unmarshal(body, &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	res.Raw = body

	var buf bytes.Buffer
	New(&buf, false).Decision(opstate.Succeeded(res), true)
	out := buf.String()

	assert.Contains(t, out, "[ANSWER]  rule: R-ABS-01  confidence: 92%")
	assert.Contains(t, out, "Ο μαθητής έχει 3 απουσίες.")
	assert.Contains(t, out, "  - notify_parent")
	assert.Contains(t, out, "ok    lookup_absences")
	assert.Contains(t, out, "error notify_parent: smtp down")
	assert.Contains(t, out, "absences: 3")
	assert.Contains(t, out, "Raw:\n{\n  \"decision\": \"ANSWER\",")
	assert.NotContains(t, out, "\x1b[")
}

func TestDecisionCardColorAndNullRule(t *testing.T) {
	res := types.DecisionResult{Decision: types.VerdictDeny, Confidence: 0.4}

	var buf bytes.Buffer
	New(&buf, true).Decision(opstate.Succeeded(res), false)
	out := buf.String()

	assert.Contains(t, out, "\x1b[31m[DENY]\x1b[0m")
	assert.Contains(t, out, "rule: none")
	assert.NotContains(t, out, "Raw:")
}

func TestDecisionStates(t *testing.T) {
	cases := []struct {
		state opstate.State[types.DecisionResult]
		want  string
	}{
		{opstate.Idle[types.DecisionResult](), "No decision yet."},
		{opstate.Loading[types.DecisionResult](), "Asking..."},
		{opstate.Failed[types.DecisionResult]("No tenant_id. Login first."), "Error: No tenant_id. Login first."},
	}
	for _, tc := range cases {
		var buf bytes.Buffer
		New(&buf, false).Decision(tc.state, true)
		assert.Equal(t, tc.want+"\n", buf.String())
	}
}

func TestSession(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, false)
	r.Session(opstate.Succeeded(types.SessionContext{UserID: "u1", Email: "admin@example.com", TenantID: "t1", OrgType: "school"}))
	assert.Contains(t, buf.String(), "tenant_id: t1")

	buf.Reset()
	r.Session(opstate.Failed[types.SessionContext]("Not authenticated"))
	assert.Equal(t, "Error: Not authenticated\n", buf.String())
}

func TestPreviewWarnsOnInvalidFields(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, false).Preview(preset.Preview{JSON: `{"question":"q"}`, FieldsErr: errors.New("Fields JSON error: bad")})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{"Warning: Fields JSON error: bad", `{"question":"q"}`}, lines)
}

func TestIndentFallsBackToText(t *testing.T) {
	assert.Equal(t, "<html>", Indent([]byte(" <html>\n")))
}

func TestTextNormalizesToNFC(t *testing.T) {
	decomposed := "\u03b5\u0301"
	assert.Equal(t, "\u03ad", text(decomposed))
}
