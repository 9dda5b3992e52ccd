package http

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"networth/internal/core"
	"networth/internal/export"
	"networth/internal/log"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if s.store == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("store not configured"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// timestampLayout is RFC 3339 with millisecond precision.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// healthBody answers GET /api/health.
type healthBody struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

func (s *Server) handleAPIHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(healthBody{
		Status:    "ok",
		Timestamp: s.now().UTC().Format(timestampLayout),
	}).Write(w)
}

func (s *Server) handleCreateCalculation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	doc, err := decodeObject(w, r)
	if err != nil {
		var ve core.ValidationErrors
		errors.As(err, &ve)
		logger.DebugContext(ctx, "Rejected malformed payload", log.FieldError, err)
		ValidationErrorResponse(ve).Write(w)
		return
	}

	payload, err := core.ParseNewCalculation(doc)
	if err != nil {
		var ve core.ValidationErrors
		if errors.As(err, &ve) {
			logger.DebugContext(ctx, "Rejected invalid payload",
				log.FieldErrorType, log.ErrorTypeValidation,
				"violations", len(ve))
			ValidationErrorResponse(ve).Write(w)
			return
		}
		logger.ErrorContext(ctx, "Payload parse failed", log.FieldError, err)
		InternalError().Write(w)
		return
	}

	rec, err := s.store.Save(ctx, payload)
	if err != nil {
		var ve core.ValidationErrors
		if errors.As(err, &ve) {
			ValidationErrorResponse(ve).Write(w)
			return
		}
		logger.ErrorContext(ctx, "Calculation save failed",
			log.NewFields().
				WithError(err).
				WithErrorType(log.ErrorTypeInternal).
				WithOperation(log.OpCreate).
				ToSlice()...)
		InternalError().Write(w)
		return
	}

	NewJSONResponse().Body(rec).Write(w)
}

func (s *Server) handleGetCalculation(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookup(w, r)
	if !ok {
		return
	}
	NewJSONResponse().Body(rec).Write(w)
}

func (s *Server) handleCalculationReport(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookup(w, r)
	if !ok {
		return
	}
	page, err := export.HTML(reportSnapshot(rec), rec.CreatedAt)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Report rendering failed",
			log.FieldCalculationID, rec.ID,
			log.FieldOperation, log.OpExport,
			log.FieldError, err)
		InternalError().Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}

func (s *Server) handleListUserCalculations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := pathValue(mux.Vars(r), "userId")

	recs, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "List calculations failed",
			log.FieldUserID, userID,
			log.FieldOperation, log.OpList,
			log.FieldError, err)
		InternalError().Write(w)
		return
	}
	if recs == nil {
		recs = []core.NetWorthCalculation{}
	}
	NewJSONResponse().Body(recs).Write(w)
}

// lookup resolves {id} and writes the 404 or 500 itself.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (core.NetWorthCalculation, bool) {
	ctx := r.Context()
	id := pathValue(mux.Vars(r), "id")

	rec, err := s.store.Get(ctx, id)
	switch {
	case errors.Is(err, core.ErrNotFound):
		NotFoundError().Write(w)
		return rec, false
	case err != nil:
		log.FromContext(ctx).ErrorContext(ctx, "Calculation lookup failed",
			log.FieldCalculationID, id,
			log.FieldOperation, log.OpRead,
			log.FieldError, err)
		InternalError().Write(w)
		return rec, false
	}
	return rec, true
}

// reportSnapshot adapts a stored record for the report renderer. Category
// breakdowns come from the records; the headline totals are the stored
// ones. Monthly figures are not part of a stored record.
func reportSnapshot(rec core.NetWorthCalculation) export.Snapshot {
	snap := export.NewSnapshot(rec.Assets, rec.Liabilities, core.DefaultMonthly(), rec.Currency)
	snap.Calculations.TotalAssets = rec.TotalAssets
	snap.Calculations.TotalLiabilities = rec.TotalLiabilities
	snap.Calculations.NetWorth = rec.NetWorth
	snap.Calculations.DebtToAssetRatio = rec.DebtToAssetRatio()
	return snap
}
