// Package codec holds the JSON encoding shared by the snapshot files and the
// HTTP API. It replaces kratos' default "json" codec.
package codec

import (
	"bytes"
	"encoding/json"

	"github.com/go-kratos/kratos/v2/encoding"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

const Name = "json"

// Indent is the indentation of every document written to disk.
const Indent = "    "

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

var (
	marshalOpts = protojson.MarshalOptions{
		EmitUnpopulated: true,
	}
	unmarshalOpts = protojson.UnmarshalOptions{
		DiscardUnknown: true,
	}
)

type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	if msg, ok := v.(proto.Message); ok {
		return marshalOpts.Marshal(msg)
	}
	return encode(v, "")
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	msg, ok := v.(proto.Message)
	if !ok {
		return json.Unmarshal(data, v)
	}
	return unmarshalOpts.Unmarshal(data, msg)
}

func (jsonCodec) Name() string { return Name }

// MarshalIndent encodes v with four-space indentation. HTML characters and
// non-ASCII text are written as is.
func MarshalIndent(v any) ([]byte, error) {
	return encode(v, Indent)
}

func encode(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	// Encoder always appends a newline.
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// SemanticEqual reports whether a and b decode to the same JSON value,
// ignoring formatting and key order. Invalid JSON is never equal.
func SemanticEqual(a, b []byte) bool {
	var va, vb any
	if err := json.Unmarshal(a, &va); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &vb); err != nil {
		return false
	}
	ca, err := json.Marshal(va)
	if err != nil {
		return false
	}
	cb, err := json.Marshal(vb)
	if err != nil {
		return false
	}
	return bytes.Equal(ca, cb)
}
