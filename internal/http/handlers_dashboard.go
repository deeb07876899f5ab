package http

import (
	"net/http"
	"time"

	"finagent/internal/core"
	"finagent/internal/log"
)

type dashboardData struct {
	UserID     int
	Loading    bool
	Refreshing bool
	Failed     bool
	Empty      bool
	Hide       bool
	LoadedAt   time.Time

	Stats        core.Stats
	Goals        []core.Goal
	Recent       []core.Transaction
	Transactions []core.Transaction
	Categories   []categoryRow
	Inflow       float64
	Outflow      float64

	ExportEnabled bool
}

// handleDashboard renders the dashboard of the session's user. The first
// render of a user loads visibly; ?refresh=1 reloads silently, keeping the
// previous numbers on failure. ?hide=1|0 toggles the masked stat cards.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.get(w, r)
	userID := sess.ctrl.UserID()

	switch r.URL.Query().Get("hide") {
	case "1":
		sess.setHidden(true)
	case "0":
		sess.setHidden(false)
	}

	loader := s.deps.Dashboards.Loader(userID)
	state := loader.State()
	stale := state.UserID != userID || state.LoadedAt.IsZero()
	if stale || r.URL.Query().Get("refresh") == "1" {
		silent := !stale
		if err := loader.Load(r.Context(), userID, silent); err != nil {
			s.requestLogger(r).WarnContext(r.Context(), "Dashboard load failed",
				log.FieldUserID, userID,
				log.FieldSilent, silent,
				log.FieldError, err)
		}
		state = loader.State()
	}

	snap := state.Snapshot
	in, out := core.Totals(snap.Transactions)
	data := dashboardData{
		UserID:        userID,
		Loading:       state.Loading,
		Refreshing:    state.Refreshing,
		Failed:        state.Err != nil,
		Empty:         snap.IsEmpty(),
		Hide:          sess.hidden(),
		LoadedAt:      state.LoadedAt,
		Stats:         snap.Stats,
		Goals:         snap.Goals,
		Recent:        snap.RecentTransactions,
		Transactions:  snap.Transactions,
		Categories:    categoryRows(snap.Categories),
		Inflow:        in,
		Outflow:       out,
		ExportEnabled: s.deps.Export.Enabled(),
	}

	body, err := s.render("dashboard.html", data)
	if err != nil {
		s.requestLogger(r).ErrorContext(r.Context(), "Dashboard template execution failed",
			log.FieldTemplate, "dashboard.html",
			log.FieldError, err)
		InternalServerError("Error rendering dashboard").Write(w)
		return
	}
	sess.drain(NewHTMXResponse().BodyHTML(body)).Write(w)
}
