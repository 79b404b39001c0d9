package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenses/internal/form"
)

func TestRequestBodyParser_Form(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/expenses",
		strings.NewReader("amount=12.50&category=Food&date=2024-01-01&description=+lunch%00+"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	p := NewRequestBodyParser(httptest.NewRecorder(), req)
	require.NoError(t, p.Parse())
	assert.False(t, p.IsJSON())

	v := p.ExpenseValues()
	assert.Equal(t, form.Values{Amount: "12.50", Category: "Food", Date: "2024-01-01", Description: " lunch "}, v)
}

func TestRequestBodyParser_JSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/expenses",
		strings.NewReader(`{"amount": 12.5, "category": "Food", "date": "2024-01-01", "description": "lunch"}`))
	req.Header.Set("Content-Type", "application/json")

	p := NewRequestBodyParser(httptest.NewRecorder(), req)
	require.NoError(t, p.Parse())
	assert.True(t, p.IsJSON())
	assert.Equal(t, "12.5", p.Get(form.FieldAmount))
	assert.Equal(t, "", p.Get("missing"))
}

func TestRequestBodyParser_Errors(t *testing.T) {
	t.Run("malformed JSON", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/expenses", strings.NewReader(`{"amount":`))
		p := NewRequestBodyParser(httptest.NewRecorder(), req)
		assert.Error(t, p.Parse())
		assert.Error(t, p.Parse(), "the error is sticky")
	})

	t.Run("oversized body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/expenses",
			strings.NewReader("description="+strings.Repeat("a", maxBodyBytes+1)))
		p := NewRequestBodyParser(httptest.NewRecorder(), req)
		assert.Error(t, p.Parse())
	})

	t.Run("empty body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/expenses", nil)
		p := NewRequestBodyParser(httptest.NewRecorder(), req)
		require.NoError(t, p.Parse())
		assert.Equal(t, form.Values{}, p.ExpenseValues())
	})
}

func TestSessionIDFrom(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/export/report.xlsx?session=abc", nil)
	assert.Equal(t, "abc", sessionIDFrom(req))

	req.Header.Set(HeaderSessionID, " xyz ")
	assert.Equal(t, "xyz", sessionIDFrom(req), "header wins over query")

	assert.Equal(t, "", sessionIDFrom(httptest.NewRequest(http.MethodGet, "/", nil)))
}

func TestExpenseIDFrom(t *testing.T) {
	id := uuid.New()
	req := httptest.NewRequest(http.MethodDelete, "/expenses/"+id.String(), nil)
	req.SetPathValue("id", id.String())
	got, err := expenseIDFrom(req)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	req.SetPathValue("id", "nope")
	_, err = expenseIDFrom(req)
	assert.ErrorIs(t, err, errInvalidExpenseID)
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "a\tb\nc", sanitizeInput("a\tb\x07\nc\x00"))
}
