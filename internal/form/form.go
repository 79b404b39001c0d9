// Package form implements the expense entry form: field validation into a
// typed core.Entry and the submit/reset cycle around the store callback.
package form

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"expenses/internal/core"
)

// Field names as submitted by the page.
const (
	FieldAmount      = "amount"
	FieldCategory    = "category"
	FieldDate        = "date"
	FieldDescription = "description"
)

// Messages shown next to a failing field.
const (
	MsgAmountRequired      = "Amount is required"
	MsgAmountNotNumber     = "Amount must be a number"
	MsgAmountNotPositive   = "Amount must be greater than zero"
	MsgCategoryRequired    = "Category is required"
	MsgCategoryInvalid     = "Category is not valid"
	MsgDateRequired        = "Date is required"
	MsgDateInvalid         = "Date is not valid"
	MsgDateOutOfRange      = "Date must be between 1900-01-01 and today"
	MsgDescriptionRequired = "Description is required"
	MsgDescriptionTooLong  = "Description is too long"
)

// ErrSubmitInProgress rejects a submission while another one is running.
var ErrSubmitInProgress = errors.New("submission already in progress")

// Values are the raw field contents typed by the user.
type Values struct {
	Amount      string
	Category    string
	Date        string
	Description string
}

// FieldErrors maps a field name to its first failing rule.
type FieldErrors map[string]string

func (fe FieldErrors) Get(field string) string { return fe[field] }

func (fe FieldErrors) Has(field string) bool {
	_, ok := fe[field]
	return ok
}

// Fields returns the failing field names in a stable order.
func (fe FieldErrors) Fields() []string {
	out := make([]string, 0, len(fe))
	for k := range fe {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ValidationError carries the field errors of a blocked submission.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields.Fields() {
		parts = append(parts, f+": "+e.Fields[f])
	}
	return "invalid expense: " + strings.Join(parts, "; ")
}

// Validate checks every field and builds the entry. All fields are
// evaluated; each failing field reports only its first failing rule.
func Validate(v Values, today core.Date) (core.Entry, FieldErrors) {
	errs := FieldErrors{}
	var entry core.Entry

	switch amount, err := core.ParseAmount(v.Amount); {
	case strings.TrimSpace(v.Amount) == "":
		errs[FieldAmount] = MsgAmountRequired
	case errors.Is(err, core.ErrNonNumericAmount):
		errs[FieldAmount] = MsgAmountNotNumber
	case err != nil:
		errs[FieldAmount] = MsgAmountNotPositive
	default:
		entry.Amount = amount
	}

	switch category, err := core.ParseCategory(v.Category); {
	case errors.Is(err, core.ErrEmptyCategory):
		errs[FieldCategory] = MsgCategoryRequired
	case err != nil:
		errs[FieldCategory] = MsgCategoryInvalid
	default:
		entry.Category = category
	}

	switch date, err := core.ParseDate(v.Date); {
	case errors.Is(err, core.ErrEmptyDate):
		errs[FieldDate] = MsgDateRequired
	case err != nil:
		errs[FieldDate] = MsgDateInvalid
	case date.Validate(today) != nil:
		errs[FieldDate] = MsgDateOutOfRange
	default:
		entry.Date = date
	}

	switch {
	case strings.TrimSpace(v.Description) == "":
		errs[FieldDescription] = MsgDescriptionRequired
	case len([]rune(v.Description)) > core.MaxDescriptionLength:
		errs[FieldDescription] = MsgDescriptionTooLong
	default:
		entry.Description = v.Description
	}

	if len(errs) > 0 {
		return core.Entry{}, errs
	}
	return entry, nil
}

// Form holds the state of one session's entry form.
type Form struct {
	mu         sync.Mutex
	today      func() core.Date
	values     Values
	errors     FieldErrors
	submitting bool
}

func New(today func() core.Date) *Form {
	return &Form{today: today}
}

// View is a snapshot of the form for rendering.
type View struct {
	Values     Values
	Errors     FieldErrors
	Submitting bool
	Categories []core.Category
	MinDate    string
	MaxDate    string
}

func (f *Form) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	errs := FieldErrors{}
	for k, v := range f.errors {
		errs[k] = v
	}
	return View{
		Values:     f.values,
		Errors:     errs,
		Submitting: f.submitting,
		Categories: core.Categories,
		MinDate:    core.MinDate.String(),
		MaxDate:    f.today().String(),
	}
}

// Submitting reports whether a submission is in flight.
func (f *Form) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

// Submit validates v and, when valid, hands the entry to onSubmit. On
// success the form is cleared. On a validation failure the typed values and
// the field errors are kept and a *ValidationError is returned. A callback
// failure keeps the values and is returned as is; there is no retry.
func (f *Form) Submit(ctx context.Context, v Values, onSubmit func(context.Context, core.Entry) error) error {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return ErrSubmitInProgress
	}
	f.values = v
	entry, errs := Validate(v, f.today())
	if len(errs) > 0 {
		f.errors = errs
		f.mu.Unlock()
		return &ValidationError{Fields: errs}
	}
	f.errors = nil
	f.submitting = true
	f.mu.Unlock()

	err := onSubmit(ctx, entry)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitting = false
	if err != nil {
		return err
	}
	f.values = Values{}
	f.errors = nil
	return nil
}

// Reset clears values and errors.
func (f *Form) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values = Values{}
	f.errors = nil
}
