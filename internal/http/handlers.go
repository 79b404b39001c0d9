package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"expenses/internal/core"
	"expenses/internal/form"
	"expenses/internal/log"
	"expenses/internal/session"
)

// pageData feeds the app shell and its partials.
type pageData struct {
	SessionID   string
	LoadDelayMs int64
	Form        form.View
	Expenses    []core.Expense
	Report      core.Report
}

func (s *Server) pageData(ctx context.Context, sess *session.Session) (pageData, error) {
	items, err := sess.Service.Expenses(ctx)
	if err != nil {
		return pageData{}, err
	}
	return pageData{
		SessionID: sess.ID,
		Form:      sess.Form.View(),
		Expenses:  items,
		Report:    core.Summarize(items),
	}, nil
}

// handleIndex opens a fresh session and serves the page with its loader.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Open(r.Context(), s.detector.ExtractClientIP(r))
	w.Header().Set("Cache-Control", "no-store")
	s.respond(w, r, NewHTMXResponse(), "index.html", pageData{
		SessionID:   sess.ID,
		LoadDelayMs: s.loadDelay.Milliseconds(),
	})
}

// handleApp holds the loader for the configured delay, then renders the
// tabs. A request abandoned during the wait renders nothing.
func (s *Server) handleApp(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	ctx := r.Context()
	if s.loadDelay > 0 {
		timer := time.NewTimer(s.loadDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			log.FromContext(ctx).DebugContext(ctx, "Loader abandoned before the app rendered", log.FieldError, ctx.Err())
			return
		case <-timer.C:
		}
	}

	data, err := s.pageData(ctx, sess)
	if err != nil {
		logRequestError(r, "Failed to load expenses", err, log.OpList)
		InternalServerError("Could not load your expenses.").Write(w)
		return
	}
	s.respond(w, r, NewHTMXResponse(), "app.html", data)
}

// writeJSON answers 500 when v cannot be encoded.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		ctx := r.Context()
		log.FromContext(ctx).ErrorContext(ctx, "JSON encoding failed", log.FieldError, err)
		status = http.StatusInternalServerError
		body = []byte(`{"error":"internal error"}`)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}
