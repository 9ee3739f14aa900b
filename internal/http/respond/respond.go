// Package respond holds the request decoding and envelope writing shared by
// the HTTP handlers.
package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledgerly/internal/access"
	"github.com/MrJamesThe3rd/ledgerly/internal/apperror"
	"github.com/MrJamesThe3rd/ledgerly/internal/ledger"
	"github.com/MrJamesThe3rd/ledgerly/internal/period"
)

// Status maps an error kind onto the HTTP status it is reported with.
func Status(kind apperror.Kind) int {
	switch kind {
	case apperror.KindInvalidArgument:
		return http.StatusBadRequest
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindForbidden:
		return http.StatusForbidden
	}

	return http.StatusInternalServerError
}

func write(w http.ResponseWriter, status int, env apperror.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(env); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// JSON writes data in a success envelope.
func JSON(w http.ResponseWriter, status int, data any) {
	write(w, status, apperror.OK(data))
}

// Error writes err in a failure envelope. Store failures are logged and
// reported without their details.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperror.KindOf(err)

	if kind == apperror.KindStore {
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		write(w, http.StatusInternalServerError, apperror.Envelope{Error: "internal error", Kind: kind})

		return
	}

	write(w, Status(kind), apperror.Fail(err))
}

// Unauthorized rejects a request without valid credentials.
func Unauthorized(w http.ResponseWriter, msg string) {
	write(w, http.StatusUnauthorized, apperror.Envelope{Error: msg, Kind: apperror.KindForbidden})
}

func Decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperror.InvalidArgument("invalid request body: %s", err)
	}

	return nil
}

// Actor returns the authenticated actor. A request that bypassed the auth
// middleware gets the zero actor, which fails every access check.
func Actor(r *http.Request) access.Actor {
	a, _ := access.FromContext(r.Context())
	return a
}

// ID parses the named URL parameter as an id.
func ID(r *http.Request, name string) (uuid.UUID, error) {
	return ledger.ParseID(chi.URLParam(r, name))
}

func Date(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, apperror.InvalidArgument("invalid date %q, expected YYYY-MM-DD", s)
	}

	return t, nil
}

// OptionalDate parses s unless it is nil or blank.
func OptionalDate(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}

	t, err := Date(*s)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

// Period reads the month and year query parameters. Both or neither must
// be given.
func Period(r *http.Request) (*period.Month, error) {
	q := r.URL.Query()
	ms, ys := q.Get("month"), q.Get("year")

	if ms == "" && ys == "" {
		return nil, nil
	}

	if ms == "" || ys == "" {
		return nil, apperror.InvalidArgument("month and year must be given together")
	}

	month, err := strconv.Atoi(ms)
	if err != nil {
		return nil, apperror.InvalidArgument("invalid month %q", ms)
	}

	year, err := strconv.Atoi(ys)
	if err != nil {
		return nil, apperror.InvalidArgument("invalid year %q", ys)
	}

	m, err := period.New(month, year)
	if err != nil {
		return nil, err
	}

	return &m, nil
}

// RequiredPeriod is Period with a default of the current UTC month.
func RequiredPeriod(r *http.Request, now time.Time) (period.Month, error) {
	m, err := Period(r)
	if err != nil {
		return period.Month{}, err
	}

	if m == nil {
		return period.Of(now), nil
	}

	return *m, nil
}
