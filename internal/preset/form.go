package preset

import (
	"bytes"
	"encoding/json"
	"sync"
	"time"

	"github.com/davidahmann/agent-platform/internal/decision"
	"github.com/davidahmann/agent-platform/pkg/types"
)

// Form holds the editable question and fields buffers.
type Form struct {
	mu       sync.Mutex
	catalog  Catalog
	now      func() time.Time
	presetID string
	question string
	fields   string
}

// NewForm starts with the first preset applied.
func NewForm(catalog Catalog, now func() time.Time) *Form {
	if now == nil {
		now = time.Now
	}
	f := &Form{catalog: catalog, now: now}
	if len(catalog.Presets) > 0 {
		f.ApplyPreset(catalog.Presets[0].ID)
	}
	return f
}

// ApplyPreset overwrites both buffers from the preset. Unknown ids fall back
// to the first catalog entry.
func (f *Form) ApplyPreset(id string) Definition {
	p := f.catalog.Resolve(id)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.presetID = p.ID
	f.question = p.Question
	f.fields = FormatFields(p.ResolvedFields(f.now()))
	return p
}

func (f *Form) SetQuestion(question string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.question = question
}

func (f *Form) SetFields(raw string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fields = raw
}

func (f *Form) PresetID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.presetID
}

func (f *Form) Question() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.question
}

func (f *Form) Fields() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fields
}

func (f *Form) Catalog() Catalog {
	return f.catalog
}

// Preview is the payload Ask would send for the current buffers.
type Preview struct {
	Request   types.DecisionRequest
	JSON      string
	FieldsErr error
}

func (p Preview) Valid() bool {
	return p.FieldsErr == nil
}

// Preview recomputes the payload. Invalid fields are reported and left out
// of the payload.
func (f *Form) Preview() Preview {
	question, raw := f.Question(), f.Fields()

	fields, err := decision.ParseFields(raw)
	req := decision.BuildRequest(question, fields)
	out := Preview{Request: req, FieldsErr: err}
	if body, encErr := decision.EncodeRequest(req, "  "); encErr == nil {
		out.JSON = string(body)
	}
	return out
}

// FormatFields pretty-prints fields with two-space indentation.
func FormatFields(fields map[string]any) string {
	if len(fields) == 0 {
		return "{}"
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(fields); err != nil {
		return "{}"
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n"))
}
