package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/quantumlife/lifedesk/internal/core"
)

// defaultBillDays is the bill look-ahead when ?days is absent.
const defaultBillDays = 7

// handleGetSummary totals expenses and income over from/to, defaulting to
// the visible calendar range.
func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	defFrom, defTo := s.session.Snapshot().State.VisibleRange()
	from, to, err := s.rangeParams(r, defFrom, defTo)
	if err != nil {
		s.respondErr(w, err)
		return
	}

	summary, err := s.finance.Summary(r.Context(), from, to)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handleGetBills(w http.ResponseWriter, r *http.Request) {
	days := defaultBillDays
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.respondErr(w, fmt.Errorf("%w: days %q", core.ErrInvalidInput, v))
			return
		}
		days = n
	}

	bills, err := s.finance.Bills(r.Context(), s.now(), days)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, bills)
}
