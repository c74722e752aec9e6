package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lorett/groundlink/internal/pass"
	"github.com/lorett/groundlink/internal/storage"
)

type errorResponse struct {
	Error string `json:"error"`
}

type stationReport struct {
	Station    string               `json:"station"`
	Satellites []pass.SatelliteStat `json:"satellites"`
	Rollup     pass.Rollup          `json:"rollup"`
	Commercial []pass.SatelliteStat `json:"commercial,omitempty"`
}

type reportResponse struct {
	Date     string          `json:"date"`
	Stations []stationReport `json:"stations"`
	Overall  pass.Rollup     `json:"overall"`
}

type passesResponse struct {
	Station string              `json:"station"`
	From    string              `json:"from"`
	To      string              `json:"to"`
	Passes  []storage.StoredPass `json:"passes"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, format string, args ...any) {
	s.writeJSON(w, status, errorResponse{Error: fmt.Sprintf(format, args...)})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStations(w http.ResponseWriter, r *http.Request) {
	stations, err := s.store.Stations(r.Context())
	if err != nil {
		s.logger.Error("listing stations", "error", err)
		s.writeError(w, http.StatusInternalServerError, "listing stations")
		return
	}
	if stations == nil {
		stations = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"stations": stations})
}

// handleReport recomputes the daily report for one date from stored
// passes.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	date, err := time.ParseInLocation(time.DateOnly, chi.URLParam(r, "date"), time.UTC)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		return
	}
	window := pass.Day(date)

	iter, err := s.store.Passes(r.Context(), storage.WithDateWindow(window))
	if err != nil {
		s.logger.Error("querying passes", "error", err)
		s.writeError(w, http.StatusInternalServerError, "querying passes")
		return
	}
	defer iter.Close()

	byStation := make(map[string][]pass.Pass)
	for iter.Next() {
		sp := iter.Current()
		byStation[sp.Station] = append(byStation[sp.Station], sp.Pass())
	}
	if err := iter.Error(); err != nil {
		s.logger.Error("iterating passes", "error", err)
		s.writeError(w, http.StatusInternalServerError, "querying passes")
		return
	}

	all := pass.NewAggregator(nil)
	commercial := pass.NewAggregator(s.commercial)

	resp := reportResponse{Date: date.Format(time.DateOnly), Stations: []stationReport{}}
	var overall pass.Rollup

	stations := make([]string, 0, len(byStation))
	for station := range byStation {
		stations = append(stations, station)
	}
	sort.Strings(stations)

	for _, station := range stations {
		passes := byStation[station]
		sats, rollup := all.Aggregate(passes, window)

		st := stationReport{Station: station, Satellites: sats, Rollup: rollup}
		if len(s.commercial) > 0 {
			st.Commercial, _ = commercial.Aggregate(passes, window)
		}
		resp.Stations = append(resp.Stations, st)

		overall.TotalPasses += rollup.TotalPasses
		overall.EmptyPasses += rollup.EmptyPasses
	}
	if overall.TotalPasses > 0 {
		overall.EmptyRatio = float64(overall.EmptyPasses) / float64(overall.TotalPasses)
	}
	resp.Overall = overall

	s.writeJSON(w, http.StatusOK, resp)
}

// handleStationPasses lists a station's stored passes inside an
// inclusive from/to date range. Missing bounds default to the last
// seven days.
func (s *Server) handleStationPasses(w http.ResponseWriter, r *http.Request) {
	station := chi.URLParam(r, "station")

	to := pass.DateOf(time.Now().UTC())
	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := time.ParseInLocation(time.DateOnly, v, time.UTC)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid to date, want YYYY-MM-DD")
			return
		}
		to = parsed
	}
	from := to.AddDate(0, 0, -6)
	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := time.ParseInLocation(time.DateOnly, v, time.UTC)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid from date, want YYYY-MM-DD")
			return
		}
		from = parsed
	}

	window, err := pass.Between(from, to)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid range: %v", err)
		return
	}

	iter, err := s.store.Passes(r.Context(), storage.WithStation(station), storage.WithDateWindow(window))
	if err != nil {
		s.logger.Error("querying passes", "error", err)
		s.writeError(w, http.StatusInternalServerError, "querying passes")
		return
	}
	defer iter.Close()

	resp := passesResponse{
		Station: station,
		From:    window.Start.Format(time.DateOnly),
		To:      window.End.Format(time.DateOnly),
		Passes:  []storage.StoredPass{},
	}
	for iter.Next() {
		resp.Passes = append(resp.Passes, iter.Current())
	}
	if err := iter.Error(); err != nil {
		s.logger.Error("iterating passes", "error", err)
		s.writeError(w, http.StatusInternalServerError, "querying passes")
		return
	}

	s.writeJSON(w, http.StatusOK, resp)
}
