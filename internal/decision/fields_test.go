package decision

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestParseFieldsBlankIsEmptyObject(t *testing.T) {
	for _, raw := range []string{"", "   ", "\n\t "} {
		fields, err := ParseFields(raw)
		if err != nil {
			t.Fatalf("raw %q: unexpected error %v", raw, err)
		}
		if fields == nil || len(fields) != 0 {
			t.Fatalf("raw %q: expected empty object, got %v", raw, fields)
		}
	}
}

func TestParseFieldsObject(t *testing.T) {
	fields, err := ParseFields(`  {"student_id":"STU-002","count":3,"nested":{"ok":true}}  `)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if fields["student_id"] != "STU-002" {
		t.Fatalf("unexpected student_id: %v", fields["student_id"])
	}
	if fields["count"] != json.Number("3") {
		t.Fatalf("numbers should be preserved as json.Number, got %#v", fields["count"])
	}
}

func TestParseFieldsRejectsNonObjects(t *testing.T) {
	cases := map[string]string{
		`[1,2]`:    "array",
		`42`:       "number",
		`"text"`:   "string",
		`null`:     "null",
		`true`:     "boolean",
		`{"a":1`:   "",
		`{a:1}`:    "",
		`{} {}`:    "unexpected data",
		`{"a":1}x`: "",
	}

	for raw, kind := range cases {
		_, err := ParseFields(raw)
		var fieldsErr *FieldsError
		if !errors.As(err, &fieldsErr) {
			t.Fatalf("raw %q: expected FieldsError, got %v", raw, err)
		}
		if !strings.HasPrefix(err.Error(), "Fields JSON error: ") {
			t.Fatalf("raw %q: unexpected message %q", raw, err.Error())
		}
		if kind != "" && !strings.Contains(err.Error(), kind) {
			t.Fatalf("raw %q: message %q should mention %q", raw, err.Error(), kind)
		}
	}
}

func TestBuildRequestOmitsEmptyFields(t *testing.T) {
	req := BuildRequest("  Θέλω ενημέρωση απουσιών \n", map[string]any{})
	body, err := EncodeRequest(req, "")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(body) != `{"question":"Θέλω ενημέρωση απουσιών"}` {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestBuildRequestKeepsFields(t *testing.T) {
	fields, err := ParseFields(`{"student_id":"STU-002"}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	body, err := EncodeRequest(BuildRequest("q", fields), "")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(body) != `{"question":"q","fields":{"student_id":"STU-002"}}` {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestEncodeRequestIndent(t *testing.T) {
	body, err := EncodeRequest(BuildRequest("q", nil), "  ")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := "{\n  \"question\": \"q\"\n}"
	if string(body) != want {
		t.Fatalf("unexpected body:\n%s\nwant:\n%s", body, want)
	}
}

func TestPathEscapesTenant(t *testing.T) {
	if got := Path("TEN-1"); got != "/api/tenants/TEN-1/decision" {
		t.Fatalf("unexpected path %s", got)
	}
	if got := Path("a/b"); got != "/api/tenants/a%2Fb/decision" {
		t.Fatalf("unexpected path %s", got)
	}
}
