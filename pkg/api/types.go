package api

import (
	"encoding/json"

	"github.com/ssargent/flatrec/pkg/layout"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Bind        string
	Port        int
	APIKey      string // empty disables authentication
	MaxBodySize int64  // request body limit in bytes, 0 for none
}

// DecodeRequest carries the lines to decode. Lines are numbered from
// FirstLine, or from 1 when FirstLine is zero.
type DecodeRequest struct {
	Lines     []string `json:"lines"`
	FirstLine int      `json:"first_line,omitempty"`
}

// DecodedRecord is one decoded line
type DecodedRecord struct {
	Line   int         `json:"line"`
	Layout string      `json:"layout"`
	Record interface{} `json:"record"`
}

// DecodeResponse holds the records of the lines that decoded and the errors
// of the ones that did not
type DecodeResponse struct {
	Records []DecodedRecord `json:"records"`
	Errors  []LineError     `json:"errors,omitempty"`
}

// EncodeRequest carries the JSON records to encode
type EncodeRequest struct {
	Records []json.RawMessage `json:"records"`
}

// EncodedLine is one encoded record; Index is its position in the request
type EncodedLine struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// EncodeResponse holds the encoded lines and the errors of the records that
// could not be encoded
type EncodeResponse struct {
	Lines  []EncodedLine `json:"lines"`
	Errors []RecordError `json:"errors,omitempty"`
}

// LineError reports a line that failed to decode
type LineError struct {
	Line  int    `json:"line"`
	Error string `json:"error"`
}

// RecordError reports a record that failed to encode
type RecordError struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// LayoutInfo describes a compiled layout
type LayoutInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Match       string          `json:"match,omitempty"`
	Width       int             `json:"width"`
	Columns     []layout.Column `json:"columns,omitempty"`
}
