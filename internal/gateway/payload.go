package gateway

import (
	"bytes"
	"encoding/json"
	"errors"
)

var ErrRawPayload = errors.New("response body is not JSON")

type PayloadKind int

const (
	KindDecoded PayloadKind = iota + 1
	KindRaw
)

// Payload is a normalized response body: either valid JSON (Decoded) or the
// raw text the server sent when it could not be decoded (Raw).
type Payload struct {
	kind PayloadKind
	json json.RawMessage
	text string
}

func Decoded(raw json.RawMessage) Payload {
	return Payload{kind: KindDecoded, json: raw}
}

func Raw(text string) Payload {
	return Payload{kind: KindRaw, text: text}
}

// Normalize classifies a response body. An empty body decodes to null.
func Normalize(body []byte) Payload {
	if len(bytes.TrimSpace(body)) == 0 {
		return Decoded(json.RawMessage("null"))
	}
	if json.Valid(body) {
		out := make([]byte, len(body))
		copy(out, body)
		return Decoded(out)
	}
	return Raw(string(body))
}

func (p Payload) Kind() PayloadKind {
	return p.kind
}

func (p Payload) IsRaw() bool {
	return p.kind == KindRaw
}

// JSON returns the decoded body. ok is false for raw payloads.
func (p Payload) JSON() (json.RawMessage, bool) {
	if p.kind != KindDecoded {
		return nil, false
	}
	return p.json, true
}

// IsNull reports a decoded JSON null, which is also what an empty body yields.
func (p Payload) IsNull() bool {
	return p.kind == KindDecoded && string(bytes.TrimSpace(p.json)) == "null"
}

// Text returns the body as the server sent it.
func (p Payload) Text() string {
	if p.kind == KindRaw {
		return p.text
	}
	return string(p.json)
}

// Decode unmarshals a decoded payload into v. Raw payloads fail with
// ErrRawPayload.
func (p Payload) Decode(v any) error {
	if p.kind != KindDecoded {
		return ErrRawPayload
	}
	return json.Unmarshal(p.json, v)
}
