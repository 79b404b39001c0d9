// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for constructing HTMX responses.
// It provides a fluent API for building HX-Trigger headers and consistent
// response formatting.

package http

import (
	"encoding/json"
	"html/template"
	"net/http"

	"expenses/internal/core"
)

// Client-side events raised through HX-Trigger.
const (
	EventShowNotification = "show-notification"
	EventExpensesChanged  = "expenses:changed"
	EventFormReset        = "form:reset"
)

// Toast durations in milliseconds.
const (
	notificationDuration      = 3000
	errorNotificationDuration = 5000
)

// HTMXResponseBuilder provides a fluent API for building HTMX responses.
type HTMXResponseBuilder struct {
	triggers   map[string]any
	statusCode int
	body       []byte
	headers    map[string]string
}

// NewHTMXResponse creates a new response builder with default 200 status.
func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		triggers:   make(map[string]any),
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.statusCode = code
	return b
}

// Trigger adds a named trigger with optional data to the HX-Trigger header.
func (b *HTMXResponseBuilder) Trigger(name string, data any) *HTMXResponseBuilder {
	b.triggers[name] = data
	return b
}

// TriggerExpensesChanged tells the list and report partials to refresh.
func (b *HTMXResponseBuilder) TriggerExpensesChanged(count int) *HTMXResponseBuilder {
	return b.Trigger(EventExpensesChanged, map[string]int{"count": count})
}

// TriggerFormReset adds the form:reset trigger.
func (b *HTMXResponseBuilder) TriggerFormReset() *HTMXResponseBuilder {
	return b.Trigger(EventFormReset, struct{}{})
}

type notificationPayload struct {
	Title    string `json:"title"`
	Message  string `json:"message"`
	Variant  string `json:"variant"`
	Duration int    `json:"duration"`
}

func payloadOf(n core.Notification) notificationPayload {
	d := notificationDuration
	if n.Variant == core.VariantDestructive {
		d = errorNotificationDuration
	}
	return notificationPayload{
		Title:    n.Title,
		Message:  n.Message,
		Variant:  string(n.Variant),
		Duration: d,
	}
}

// TriggerNotification adds a show-notification trigger for one toast.
func (b *HTMXResponseBuilder) TriggerNotification(n core.Notification) *HTMXResponseBuilder {
	return b.Trigger(EventShowNotification, payloadOf(n))
}

// TriggerNotifications adds the drained toasts in order. A single toast is
// sent as an object, several as a list.
func (b *HTMXResponseBuilder) TriggerNotifications(ns []core.Notification) *HTMXResponseBuilder {
	switch len(ns) {
	case 0:
		return b
	case 1:
		return b.TriggerNotification(ns[0])
	}
	list := make([]notificationPayload, 0, len(ns))
	for _, n := range ns {
		list = append(list, payloadOf(n))
	}
	return b.Trigger(EventShowNotification, list)
}

// TriggerErrorNotification shows a destructive toast with the given text.
func (b *HTMXResponseBuilder) TriggerErrorNotification(title, message string) *HTMXResponseBuilder {
	return b.TriggerNotification(core.Notification{Title: title, Message: message, Variant: core.VariantDestructive})
}

// Header adds a custom header to the response.
func (b *HTMXResponseBuilder) Header(name, value string) *HTMXResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the response body as bytes.
func (b *HTMXResponseBuilder) Body(content []byte) *HTMXResponseBuilder {
	b.body = content
	return b
}

// BodyHTML sets the response body as HTML content.
func (b *HTMXResponseBuilder) BodyHTML(html []byte) *HTMXResponseBuilder {
	b.headers["Content-Type"] = "text/html; charset=utf-8"
	b.body = html
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	if len(b.triggers) > 0 {
		triggerJSON, err := json.Marshal(b.triggers)
		if err == nil {
			w.Header().Set("HX-Trigger", string(triggerJSON))
		}
	}

	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// ErrorResponse creates a standard error response with HTML formatting.
// The message is HTML-escaped for safety.
func ErrorResponse(statusCode int, message string) *HTMXResponseBuilder {
	escapedMsg := template.HTMLEscapeString(message)
	return NewHTMXResponse().
		Status(statusCode).
		BodyHTML([]byte(`<div class="error" role="alert">` + escapedMsg + `</div>`))
}

func BadRequestError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func ConflictError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusConflict, message)
}

func InternalServerError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// SessionGoneError asks the page to reload into a fresh session.
func SessionGoneError() *HTMXResponseBuilder {
	return ErrorResponse(http.StatusGone, "Your session has expired. Reloading…").
		Header("HX-Refresh", "true")
}
