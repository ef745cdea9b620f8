package journal

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Marshal encodes v as compact JSON without HTML escaping, so characters
// such as '<' and '&' in task payloads are written as received.
func Marshal(v any) ([]byte, error) {
	return MarshalIndent(v, "")
}

// MarshalIndent is Marshal with one indent level per nesting depth
func MarshalIndent(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// EncodePayload serializes a journal into the store envelope:
// base64 of the JSON document.
func EncodePayload(j *Journal) ([]byte, error) {
	doc, err := Marshal(j)
	if err != nil {
		return nil, fmt.Errorf("marshal journal: %w", err)
	}
	out := make([]byte, base64.StdEncoding.EncodedLen(len(doc)))
	base64.StdEncoding.Encode(out, doc)
	return out, nil
}

// DecodePayload reverses EncodePayload. Failures are *DecodeError with
// RecordID left for the caller to fill in.
func DecodePayload(payload []byte) (*Journal, error) {
	doc := make([]byte, base64.StdEncoding.DecodedLen(len(payload)))
	n, err := base64.StdEncoding.Decode(doc, payload)
	if err != nil {
		return nil, &DecodeError{Err: fmt.Errorf("base64: %w", err)}
	}
	j := &Journal{}
	if err := json.Unmarshal(doc[:n], j); err != nil {
		return nil, &DecodeError{Err: fmt.Errorf("json: %w", err)}
	}
	if j.Hosts == nil {
		j.Hosts = NewHostMap()
	}
	return j, nil
}

// Clone returns an independent deep copy of j
func Clone(j *Journal) (*Journal, error) {
	payload, err := EncodePayload(j)
	if err != nil {
		return nil, err
	}
	return DecodePayload(payload)
}
