package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"expenses/internal/core"
	"expenses/internal/export"
	"expenses/internal/log"
	"expenses/internal/session"
)

type categoryJSON struct {
	Category string `json:"category"`
	Amount   string `json:"amount"`
}

type chartBarJSON struct {
	Category string `json:"category"`
	Amount   string `json:"amount"`
	Width    int    `json:"width"`
}

type reportJSON struct {
	Count         int            `json:"count"`
	Total         string         `json:"total"`
	Average       string         `json:"average"`
	CategoryCount int            `json:"category_count"`
	ByCategory    []categoryJSON `json:"by_category"`
	Chart         []chartBarJSON `json:"chart"`
}

func toReportJSON(r core.Report) reportJSON {
	out := reportJSON{
		Count:         r.Count,
		Total:         core.FormatAmount(r.Total),
		Average:       core.FormatAmount(r.Average),
		CategoryCount: r.CategoryCount,
		ByCategory:    make([]categoryJSON, 0, len(r.ByCategory)),
		Chart:         make([]chartBarJSON, 0, len(r.Chart)),
	}
	for _, ca := range r.ByCategory {
		out.ByCategory = append(out.ByCategory, categoryJSON{
			Category: string(ca.Category),
			Amount:   core.FormatAmount(ca.Amount),
		})
	}
	for _, b := range r.Chart {
		out.Chart = append(out.Chart, chartBarJSON{
			Category: string(b.Category),
			Amount:   core.FormatAmount(b.Amount),
			Width:    b.Width,
		})
	}
	return out
}

// handleReport renders the statistics cards and the category chart.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	data, err := s.pageData(r.Context(), sess)
	if err != nil {
		logRequestError(r, "Failed to build report", err, log.OpReport)
		InternalServerError("Could not build the report.").Write(w)
		return
	}
	s.respond(w, r, NewHTMXResponse(), "expense-report", data)
}

func (s *Server) handleReportJSON(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	report, err := sess.Service.Report(r.Context())
	if err != nil {
		logRequestError(r, "Failed to build report", err, log.OpReport)
		writeJSON(w, r, http.StatusInternalServerError, map[string]string{"error": "could not build report"})
		return
	}
	writeJSON(w, r, http.StatusOK, toReportJSON(report))
}

// handleExportXLSX streams the session's expenses and report as a workbook.
func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	ctx := r.Context()
	items, err := sess.Service.Expenses(ctx)
	if err != nil {
		logRequestError(r, "Failed to list expenses for export", err, log.OpExport)
		InternalServerError("Could not export your expenses.").Write(w)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, items, core.Summarize(items)); err != nil {
		logRequestError(r, "Failed to write workbook", err, log.OpExport)
		InternalServerError("Could not export your expenses.").Write(w)
		return
	}

	filename := "expenses-" + core.DateOf(time.Now()).String() + ".xlsx"
	log.FromContext(ctx).InfoContext(ctx, "Expenses exported",
		log.FieldOperation, log.OpExport,
		"count", len(items),
		"bytes", buf.Len())

	NewHTMXResponse().
		Header("Content-Type", export.ContentType).
		Header("Content-Disposition", `attachment; filename="`+filename+`"`).
		Header("Cache-Control", "no-store").
		Body(buf.Bytes()).
		Write(w)
}

// mustJSON marshals v, logging and returning an empty object on failure.
func mustJSON(ctx context.Context, v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "JSON encoding failed", log.FieldError, err)
		return []byte(`{}`)
	}
	return b
}
