package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
	"golang.org/x/text/unicode/norm"

	"github.com/davidahmann/agent-platform/internal/opstate"
	"github.com/davidahmann/agent-platform/internal/preset"
	"github.com/davidahmann/agent-platform/pkg/types"
)

type Tone string

const (
	ToneGreen  Tone = "green"
	ToneOrange Tone = "orange"
	ToneRed    Tone = "red"
	ToneGray   Tone = "gray"

	ToneGood Tone = "good"
	ToneBad  Tone = "bad"
)

// GoodConfidence is the threshold at and above which confidence renders as good.
const GoodConfidence = 0.8

var ansi = map[Tone]string{
	ToneGreen:  "\x1b[32m",
	ToneOrange: "\x1b[33m",
	ToneRed:    "\x1b[31m",
	ToneGray:   "\x1b[90m",
	ToneGood:   "\x1b[32m",
	ToneBad:    "\x1b[31m",
}

const ansiReset = "\x1b[0m"

func VerdictTone(v types.Verdict) Tone {
	switch v {
	case types.VerdictAnswer:
		return ToneGreen
	case types.VerdictEscalate:
		return ToneOrange
	case types.VerdictDeny:
		return ToneRed
	default:
		return ToneGray
	}
}

func ConfidenceTone(c float64) Tone {
	if c >= GoodConfidence {
		return ToneGood
	}
	return ToneBad
}

// Renderer writes human-readable views of session and decision state.
type Renderer struct {
	out   io.Writer
	color bool
	p     *message.Printer
}

func New(out io.Writer, color bool) *Renderer {
	return &Renderer{out: out, color: color, p: message.NewPrinter(language.English)}
}

// Percent formats a [0,1] confidence as a whole percentage, e.g. "92%".
func (r *Renderer) Percent(v float64) string {
	return r.p.Sprint(number.Percent(v, number.MaxFractionDigits(0)))
}

func (r *Renderer) paint(t Tone, s string) string {
	if !r.color {
		return s
	}
	return ansi[t] + s + ansiReset
}

func (r *Renderer) Session(st opstate.State[types.SessionContext]) {
	switch st.Status() {
	case opstate.StatusLoading:
		fmt.Fprintln(r.out, "Loading session...")
	case opstate.StatusFailed:
		fmt.Fprintln(r.out, "Error: "+text(st.Err()))
	case opstate.StatusSucceeded:
		me, _ := st.Value()
		fmt.Fprintf(r.out, "user_id:   %s\n", me.UserID)
		fmt.Fprintf(r.out, "email:     %s\n", me.Email)
		fmt.Fprintf(r.out, "tenant_id: %s\n", me.TenantID)
		fmt.Fprintf(r.out, "org_type:  %s\n", me.OrgType)
	default:
		fmt.Fprintln(r.out, "No session loaded.")
	}
}

// Decision prints the verdict card. Raw appends the response body as
// received, pretty-printed.
func (r *Renderer) Decision(st opstate.State[types.DecisionResult], raw bool) {
	switch st.Status() {
	case opstate.StatusLoading:
		fmt.Fprintln(r.out, "Asking...")
		return
	case opstate.StatusFailed:
		fmt.Fprintln(r.out, "Error: "+text(st.Err()))
		return
	case opstate.StatusIdle:
		fmt.Fprintln(r.out, "No decision yet.")
		return
	}

	res, _ := st.Value()
	verdict := string(res.Decision)
	if verdict == "" {
		verdict = "UNKNOWN"
	}
	rule := "none"
	if res.RuleID != nil {
		rule = *res.RuleID
	}
	fmt.Fprintf(r.out, "%s  rule: %s  confidence: %s\n",
		r.paint(VerdictTone(res.Decision), "["+verdict+"]"),
		rule,
		r.paint(ConfidenceTone(res.Confidence), r.Percent(res.Confidence)))
	fmt.Fprintf(r.out, "tenant: %s (%s)  requested_by: %s\n", res.TenantID, res.OrgType, res.RequestedBy)

	if res.Answer != "" {
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, text(res.Answer))
	}

	if len(res.Actions) > 0 {
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, "Actions:")
		for _, a := range res.Actions {
			fmt.Fprintf(r.out, "  - %s\n", a)
		}
	}

	if len(res.ActionResults) > 0 {
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, "Action results:")
		for _, ar := range res.ActionResults {
			if ar.OK {
				fmt.Fprintf(r.out, "  %s %s\n", r.paint(ToneGood, "ok   "), ar.Name)
				continue
			}
			msg := ar.Error
			if msg == "" {
				msg = "failed"
			}
			fmt.Fprintf(r.out, "  %s %s: %s\n", r.paint(ToneBad, "error"), ar.Name, text(msg))
		}
	}

	if len(res.Data) > 0 {
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, "Data:")
		keys := make([]string, 0, len(res.Data))
		for k := range res.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b, _ := json.Marshal(res.Data[k])
			fmt.Fprintf(r.out, "  %s: %s\n", k, b)
		}
	}

	if raw && len(res.Raw) > 0 {
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, "Raw:")
		fmt.Fprintln(r.out, Indent(res.Raw))
	}
}

func (r *Renderer) Preview(p preset.Preview) {
	if p.FieldsErr != nil {
		fmt.Fprintln(r.out, "Warning: "+p.FieldsErr.Error())
	}
	fmt.Fprintln(r.out, p.JSON)
}

func (r *Renderer) Presets(c preset.Catalog) {
	for _, p := range c.Presets {
		fmt.Fprintf(r.out, "%-20s %s\n", p.ID, text(p.Label))
	}
}

// Notice prints a one-line informational message.
func (r *Renderer) Notice(msg string) {
	fmt.Fprintln(r.out, text(msg))
}

// Indent pretty-prints JSON with two spaces; non-JSON is returned as-is.
func Indent(raw []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return strings.TrimSpace(string(raw))
	}
	return buf.String()
}

// text normalizes server-provided text to NFC so composed and decomposed
// Greek accents print the same.
func text(s string) string {
	return norm.NFC.String(s)
}
