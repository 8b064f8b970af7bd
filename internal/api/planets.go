package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/stellar-data/lightcurve.report/internal/catalog"
	"github.com/stellar-data/lightcurve.report/internal/httputil"
)

func floatParam(r *http.Request, name string) (*float64, error) {
	q := r.URL.Query().Get(name)
	if q == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(q, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid '%s' parameter", name)
	}
	return &v, nil
}

func intParam(r *http.Request, name string) (int, error) {
	q := r.URL.Query().Get(name)
	if q == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(q)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid '%s' parameter", name)
	}
	return v, nil
}

func (s *Server) searchPlanets(w http.ResponseWriter, r *http.Request) {
	filter := catalog.PlanetFilter{Mission: r.URL.Query().Get("mission")}

	var err error
	if filter.MinPeriod, err = floatParam(r, "min_period"); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if filter.MaxPeriod, err = floatParam(r, "max_period"); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if filter.MinRadius, err = floatParam(r, "min_radius"); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if filter.MaxRadius, err = floatParam(r, "max_radius"); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if filter.Limit, err = intParam(r, "limit"); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if filter.Offset, err = intParam(r, "offset"); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	page, err := s.catalog.SearchPlanets(r.Context(), filter)
	if err != nil {
		httputil.BadGateway(w, fmt.Sprintf("archive search failed: %v", err))
		return
	}
	httputil.WriteJSONOK(w, page)
}

func (s *Server) listMissions(w http.ResponseWriter, r *http.Request) {
	missions, err := s.catalog.Missions(r.Context())
	if err != nil {
		httputil.BadGateway(w, fmt.Sprintf("archive query failed: %v", err))
		return
	}
	httputil.WriteJSONOK(w, map[string]interface{}{"missions": missions})
}

func (s *Server) showStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.catalog.Statistics(r.Context())
	if err != nil {
		httputil.BadGateway(w, fmt.Sprintf("archive query failed: %v", err))
		return
	}
	httputil.WriteJSONOK(w, stats)
}
