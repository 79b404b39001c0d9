package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/now"
	"github.com/shopspring/decimal"
)

const (
	Food           Category = "Food"
	Transportation Category = "Transportation"
	Housing        Category = "Housing"
	Utilities      Category = "Utilities"
	Entertainment  Category = "Entertainment"
	Healthcare     Category = "Healthcare"
	Shopping       Category = "Shopping"
	Other          Category = "Other"
)

// MaxDescriptionLength bounds the free-text label of an expense.
const MaxDescriptionLength = 200

// DateLayout is the wire format of dates in forms and exports.
const DateLayout = "2006-01-02"

type (
	Category string

	Date struct {
		time.Time
	}

	// Entry is a validated candidate expense produced by the entry form.
	// It has no identity yet.
	Entry struct {
		Amount      decimal.Decimal
		Category    Category
		Date        Date
		Description string
	}

	Expense struct {
		ID          uuid.UUID
		Amount      decimal.Decimal
		Category    Category
		Date        Date
		Description string
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrNonNumericAmount = errors.New("amount is not a number")
	ErrEmptyDescription = errors.New("empty description")
	ErrLongDescription  = fmt.Errorf("description too long (max %d characters)", MaxDescriptionLength)
	ErrEmptyCategory    = errors.New("empty category")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrEmptyDate        = errors.New("empty date")
	ErrInvalidDate      = errors.New("invalid date")
	ErrDateOutOfRange   = errors.New("date out of range")
	ErrMissingID        = errors.New("missing expense id")
)

// Categories lists the fixed category set in display order.
var Categories = []Category{
	Food,
	Transportation,
	Housing,
	Utilities,
	Entertainment,
	Healthcare,
	Shopping,
	Other,
}

// MinDate is the earliest date an expense may carry.
var MinDate = NewDate(1900, 1, 1)

func (c Category) String() string {
	return string(c)
}

// Valid reports whether c belongs to the fixed category set.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory resolves user input to a known category. Matching ignores
// surrounding whitespace and letter case.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyCategory
	}
	for _, known := range Categories {
		if strings.EqualFold(s, string(known)) {
			return known, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date t falls on in its own location.
func DateOf(t time.Time) Date {
	d := now.With(t).BeginningOfDay()
	return NewDate(d.Year(), int(d.Month()), d.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrEmptyDate
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Validate checks that d lies in [MinDate, today].
func (d Date) Validate(today Date) error {
	if d.IsZero() {
		return ErrEmptyDate
	}
	if d.Before(MinDate.Time) || d.After(today.Time) {
		return fmt.Errorf("%w: %s not in [%s, %s]", ErrDateOutOfRange, d, MinDate, today)
	}
	return nil
}

// ValidateAmount rejects zero and negative amounts.
func ValidateAmount(a decimal.Decimal) error {
	if !a.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

func validateDescription(desc string) error {
	if len(strings.TrimSpace(desc)) == 0 {
		return ErrEmptyDescription
	}
	if len([]rune(desc)) > MaxDescriptionLength {
		return ErrLongDescription
	}
	return nil
}

func (e Entry) Validate(today Date) error {
	if err := ValidateAmount(e.Amount); err != nil {
		return err
	}
	if !e.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, e.Category)
	}
	if err := e.Date.Validate(today); err != nil {
		return err
	}
	return validateDescription(e.Description)
}

// NewExpense assigns a fresh identifier to a validated entry.
func NewExpense(e Entry) Expense {
	return Expense{
		ID:          uuid.New(),
		Amount:      e.Amount,
		Category:    e.Category,
		Date:        e.Date,
		Description: e.Description,
	}
}

func (e Expense) Validate(today Date) error {
	if e.ID == uuid.Nil {
		return ErrMissingID
	}
	return Entry{
		Amount:      e.Amount,
		Category:    e.Category,
		Date:        e.Date,
		Description: e.Description,
	}.Validate(today)
}
