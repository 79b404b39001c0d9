// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.

package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"expenses/internal/form"
)

// Request limits
const (
	maxBodyBytes = 16 << 10

	HeaderSessionID = "X-Session-ID"
	QuerySessionID  = "session"
)

var errInvalidExpenseID = errors.New("invalid expense id")

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data; htmx sends the latter.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser reads at most maxBodyBytes of the request body.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if strings.HasPrefix(p.contentType, "application/json") || p.body[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a value from the parsed data with control characters removed.
// Surrounding whitespace is kept; the form decides what blank means.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// ExpenseValues extracts the entry form fields.
func (p *RequestBodyParser) ExpenseValues() form.Values {
	return form.Values{
		Amount:      p.Get(form.FieldAmount),
		Category:    p.Get(form.FieldCategory),
		Date:        p.Get(form.FieldDate),
		Description: p.Get(form.FieldDescription),
	}
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput removes control characters except tab, newline and
// carriage return.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// sessionIDFrom reads the session id set by the page: the htmx header, or
// the query parameter on plain links.
func sessionIDFrom(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(HeaderSessionID)); id != "" {
		return id
	}
	return strings.TrimSpace(r.URL.Query().Get(QuerySessionID))
}

// expenseIDFrom parses the {id} path segment.
func expenseIDFrom(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, errInvalidExpenseID
	}
	return id, nil
}
