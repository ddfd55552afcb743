package decision

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/davidahmann/agent-platform/pkg/types"
)

// BuildRequest assembles the payload: the trimmed question, plus fields
// only when there is at least one key.
func BuildRequest(question string, fields map[string]any) types.DecisionRequest {
	req := types.DecisionRequest{Question: strings.TrimSpace(question)}
	if len(fields) > 0 {
		req.Fields = fields
	}
	return req
}

// EncodeRequest renders req as JSON; a non-empty indent pretty-prints it.
func EncodeRequest(req types.DecisionRequest, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(req); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func Path(tenantID string) string {
	return "/api/tenants/" + url.PathEscape(tenantID) + "/decision"
}
