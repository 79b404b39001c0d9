package http

import (
	"context"
	"errors"
	"net/http"

	"expenses/internal/core"
	"expenses/internal/form"
	"expenses/internal/log"
	"expenses/internal/metrics"
	"expenses/internal/session"
)

type expenseJSON struct {
	ID          string `json:"id"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

func toExpenseJSON(e core.Expense) expenseJSON {
	return expenseJSON{
		ID:          e.ID.String(),
		Amount:      core.FormatAmount(e.Amount),
		Category:    string(e.Category),
		Date:        e.Date.String(),
		Description: e.Description,
	}
}

// handleCreateExpense submits the entry form. Invalid input re-renders the
// form with field errors and a 422; a submission racing an in-flight one
// gets a 409.
func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	ctx := r.Context()

	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Malformed expense submission", log.FieldError, err)
		BadRequestError("Invalid request format").Write(w)
		return
	}

	var created core.Expense
	err := sess.Form.Submit(ctx, p.ExpenseValues(), func(ctx context.Context, entry core.Entry) error {
		e, err := sess.Service.Add(ctx, entry)
		created = e
		return err
	})

	var verr *form.ValidationError
	switch {
	case errors.As(err, &verr):
		for _, f := range verr.Fields.Fields() {
			metrics.ValidationFailed(f)
		}
		log.FromContext(ctx).InfoContext(ctx, "Expense rejected",
			log.FieldOperation, log.OpValidate,
			log.FieldFields, verr.Fields.Fields())
		if p.IsJSON() {
			writeJSON(w, r, http.StatusUnprocessableEntity, map[string]any{"errors": verr.Fields})
			return
		}
		s.respond(w, r, NewHTMXResponse().Status(http.StatusUnprocessableEntity), "expense-form",
			pageData{SessionID: sess.ID, Form: sess.Form.View()})
		return

	case errors.Is(err, form.ErrSubmitInProgress):
		ConflictError("An expense is already being added. Please wait.").Write(w)
		return

	case err != nil:
		logRequestError(r, "Failed to add expense", err, log.OpCreate)
		InternalServerError("Could not add the expense. Please try again.").
			TriggerErrorNotification("Error", "Could not add the expense.").
			Write(w)
		return
	}

	b := NewHTMXResponse().
		TriggerNotifications(sess.Outbox.Drain()).
		TriggerExpensesChanged(s.count(ctx, sess)).
		TriggerFormReset()

	if p.IsJSON() {
		b.Status(http.StatusCreated).
			Header("Content-Type", "application/json; charset=utf-8").
			Body(mustJSON(ctx, toExpenseJSON(created))).
			Write(w)
		return
	}
	s.respond(w, r, b, "expense-form", pageData{SessionID: sess.ID, Form: sess.Form.View()})
}

// handleDeleteExpense removes one record. Deleting an id that is not in the
// collection still succeeds.
func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	ctx := r.Context()
	id, err := expenseIDFrom(r)
	if err != nil {
		BadRequestError("Invalid expense id").Write(w)
		return
	}

	if err := sess.Service.Remove(ctx, id); err != nil {
		logRequestError(r, "Failed to delete expense", err, log.OpDelete)
		InternalServerError("Could not delete the expense.").Write(w)
		return
	}

	NewHTMXResponse().
		TriggerNotifications(sess.Outbox.Drain()).
		TriggerExpensesChanged(s.count(ctx, sess)).
		Write(w)
}

// handleEditExpense answers the edit action. Editing is not available, so
// the collection is left as is and the user is told so.
func (s *Server) handleEditExpense(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	ctx := r.Context()
	id, err := expenseIDFrom(r)
	if err != nil {
		BadRequestError("Invalid expense id").Write(w)
		return
	}

	if err := sess.Service.Edit(ctx, id); err != nil {
		logRequestError(r, "Failed to handle edit", err, log.OpUpdate)
		InternalServerError("Could not edit the expense.").Write(w)
		return
	}

	NewHTMXResponse().
		TriggerNotifications(sess.Outbox.Drain()).
		Write(w)
}

// handleExpenseList renders the recent expenses table.
func (s *Server) handleExpenseList(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	data, err := s.pageData(r.Context(), sess)
	if err != nil {
		logRequestError(r, "Failed to list expenses", err, log.OpList)
		InternalServerError("Could not load your expenses.").Write(w)
		return
	}
	s.respond(w, r, NewHTMXResponse(), "expense-list", data)
}

func (s *Server) count(ctx context.Context, sess *session.Session) int {
	items, err := sess.Service.Expenses(ctx)
	if err != nil {
		return 0
	}
	return len(items)
}
