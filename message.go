package sigkv

import (
	"fmt"
	"unicode/utf8"

	gjson "github.com/goccy/go-json"
)

// Event is the declared kind of an inbound Request.
type Event int

const (
	EventInvalid Event = iota
	EventGet
	EventPut
)

func (e Event) String() string {
	switch e {
	case EventGet:
		return "GET"
	case EventPut:
		return "PUT"
	}
	return "INVALID"
}

// ParseEvent is an exact, case-sensitive match. Anything
// other than "GET" or "PUT", including "", is EventInvalid.
func ParseEvent(s string) Event {
	switch s {
	case "GET":
		return EventGet
	case "PUT":
		return EventPut
	}
	return EventInvalid
}

// Request is one inbound client message.
//
// For GET, Identifier is the full derived storage key.
// For PUT, Identifier is the client chosen hash that
// gets combined with the signer prefix. PublicKey
// and Signature are hex on the wire.
type Request struct {
	Event      string  `json:"event"`
	Identifier *string `json:"identifier,omitempty"`
	Data       *string `json:"data,omitempty"`
	PublicKey  *string `json:"public_key,omitempty"`
	Signature  *string `json:"signature,omitempty"`
}

// Record is what we store, and what we return. Here
// PublicKey and Signature are base58 of the raw bytes,
// not the hex the client sent us.
type Record struct {
	Identifier string `json:"identifier"`
	Data       string `json:"data"`
	PublicKey  string `json:"public_key"`
	Signature  string `json:"signature"`
	Timestamp  uint64 `json:"timestamp"`
}

// Response carries exactly one of Data or Error.
type Response struct {
	Data  *Record `json:"data,omitempty"`
	Error *string `json:"error,omitempty"`
}

func errorResponse(msg string) *Response {
	return &Response{Error: &msg}
}

func dataResponse(rec *Record) *Response {
	return &Response{Data: rec}
}

// IsErr reports whether the response carries an error.
func (r *Response) IsErr() bool {
	return r != nil && r.Error != nil
}

// Err returns the error text, or "" if none.
func (r *Response) Err() string {
	if r == nil || r.Error == nil {
		return ""
	}
	return *r.Error
}

var ErrNotUTF8 = fmt.Errorf("payload is not valid utf-8")

// DecodeRequest parses one inbound payload. The payload
// must be valid utf-8, so that what a signature covers is
// exactly what gets stored and echoed back.
func DecodeRequest(by []byte) (req *Request, err error) {
	if !utf8.Valid(by) {
		return nil, fmt.Errorf("invalid request: %w", ErrNotUTF8)
	}
	req = &Request{}
	if err = gjson.Unmarshal(by, req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	return
}

// Bytes serializes the request for the wire.
func (r *Request) Bytes() ([]byte, error) {
	return gjson.Marshal(r)
}

// Bytes serializes the response for the wire.
func (r *Response) Bytes() ([]byte, error) {
	return gjson.Marshal(r)
}

// DecodeResponse is used by clients.
func DecodeResponse(by []byte) (resp *Response, err error) {
	resp = &Response{}
	if err = gjson.Unmarshal(by, resp); err != nil {
		return nil, fmt.Errorf("invalid response: %w", err)
	}
	return
}

// Bytes is the persisted form of a Record.
func (r *Record) Bytes() ([]byte, error) {
	return gjson.Marshal(r)
}

// DecodeRecord parses the persisted form.
func DecodeRecord(by []byte) (rec *Record, err error) {
	rec = &Record{}
	if err = gjson.Unmarshal(by, rec); err != nil {
		return nil, err
	}
	return
}

// Equal compares two records field by field.
func (r *Record) Equal(b *Record) bool {
	if r == b {
		return true
	}
	if r == nil || b == nil {
		return false
	}
	return r.Identifier == b.Identifier &&
		r.Data == b.Data &&
		r.PublicKey == b.PublicKey &&
		r.Signature == b.Signature &&
		r.Timestamp == b.Timestamp
}

func strPtr(s string) *string {
	return &s
}
