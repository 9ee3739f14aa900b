package export

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/ledgerly/internal/access"
	"github.com/MrJamesThe3rd/ledgerly/internal/http/respond"
	"github.com/MrJamesThe3rd/ledgerly/internal/period"
)

type Exporter interface {
	MonthLedger(ctx context.Context, actor access.Actor, month, year int, w io.Writer) error
	Summary(ctx context.Context, actor access.Actor, month, year int, w io.Writer) error
}

type Handler struct {
	svc Exporter
	now func() time.Time
}

func NewHandler(svc Exporter) *Handler {
	return &Handler{svc: svc, now: time.Now}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.ledger)
	r.Get("/summary", h.summary)
	r.Get("/download", h.download)
}

type renderFunc func(ctx context.Context, actor access.Actor, month, year int, w io.Writer) error

// render buffers the output so a failure can still be reported as JSON.
func (h *Handler) render(r *http.Request, fn renderFunc) (period.Month, *bytes.Buffer, error) {
	m, err := respond.RequiredPeriod(r, h.now())
	if err != nil {
		return m, nil, err
	}

	var buf bytes.Buffer
	if err := fn(r.Context(), respond.Actor(r), m.Month, m.Year, &buf); err != nil {
		return m, nil, err
	}

	return m, &buf, nil
}

func filename(m period.Month, kind, ext string) string {
	return fmt.Sprintf("%s_%04d%02d.%s", kind, m.Year, m.Month, ext)
}

func (h *Handler) ledger(w http.ResponseWriter, r *http.Request) {
	m, buf, err := h.render(r, h.svc.MonthLedger)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename(m, "ledger", "csv")))

	if _, err := io.Copy(w, buf); err != nil {
		slog.ErrorContext(r.Context(), "failed to write export", "error", err)
	}
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	_, buf, err := h.render(r, h.svc.Summary)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if _, err := io.Copy(w, buf); err != nil {
		slog.ErrorContext(r.Context(), "failed to write export", "error", err)
	}
}

// download bundles the ledger CSV and the summary into one zip archive.
func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	m, ledgerCSV, err := h.render(r, h.svc.MonthLedger)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	_, summary, err := h.render(r, h.svc.Summary)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename(m, "export", "zip")))

	zipWriter := zip.NewWriter(w)
	defer zipWriter.Close()

	files := []struct {
		name string
		body *bytes.Buffer
	}{
		{name: filename(m, "ledger", "csv"), body: ledgerCSV},
		{name: filename(m, "summary", "txt"), body: summary},
	}

	for _, f := range files {
		zf, err := zipWriter.Create(f.name)
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to create zip", "error", err)
			return
		}

		if _, err := io.Copy(zf, f.body); err != nil {
			slog.ErrorContext(r.Context(), "failed to create zip", "error", err)
			return
		}
	}
}
