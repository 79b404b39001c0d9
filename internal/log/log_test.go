package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewJSONLoggerTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentSession, Output: &buf})
	l.Info("opened", FieldSessionID, "abc")
	l.Debug("hidden")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "opened", rec["msg"])
	assert.Equal(t, ComponentSession, rec[FieldComponent])
	assert.Equal(t, "abc", rec[FieldSessionID])
	assert.Equal(t, ComponentSession, l.Component())
}

func TestFieldsBuilder(t *testing.T) {
	f := NewFields().
		WithComponent(ComponentExpense).
		WithOperation(OpDelete).
		WithExpense("id-1", "", "").
		WithError(errors.New("boom")).
		WithError(nil)

	assert.Equal(t, "id-1", f[FieldExpenseID])
	assert.NotContains(t, f, FieldAmount)
	assert.Equal(t, "boom", f[FieldError])
	assert.Len(t, f.ToSlice(), 8)
}

func TestMiddlewareInjectsLogger(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Format: "json", Component: ComponentHTTP, Output: &buf})
	mw := Middleware(base, func(context.Context) string { return "req_1" })

	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).Info("inside")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ui/report", nil))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "req_1", rec[FieldRequestID])
	assert.Equal(t, "/ui/report", rec[FieldPath])
}

func TestFromContextFallsBack(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()).Logger)
}
