package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/stellar-data/lightcurve.report/internal/httputil"
	"github.com/stellar-data/lightcurve.report/internal/monitoring"
)

const planetColumns = "pl_name,hostname,pl_orbper,pl_rade,pl_masse,pl_eqt,discoverymethod,disc_year,disc_facility"

// Client talks to the archive's TAP sync endpoint.
type Client struct {
	baseURL string
	http    httputil.HTTPClient
	cache   *gocache.Cache
}

// NewClient creates an archive client. Responses are cached for ttl.
func NewClient(baseURL string, hc httputil.HTTPClient, ttl time.Duration) *Client {
	if hc == nil {
		hc = httputil.NewStandardClient(&http.Client{Timeout: 30 * time.Second})
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
		cache:   gocache.New(ttl, 2*ttl),
	}
}

// archiveRow mirrors the TAP JSON column names. Every column can be null.
type archiveRow struct {
	PlName          *string  `json:"pl_name"`
	Hostname        *string  `json:"hostname"`
	PlOrbper        *float64 `json:"pl_orbper"`
	PlRade          *float64 `json:"pl_rade"`
	PlMasse         *float64 `json:"pl_masse"`
	PlEqt           *float64 `json:"pl_eqt"`
	DiscoveryMethod *string  `json:"discoverymethod"`
	DiscYear        *int     `json:"disc_year"`
	DiscFacility    *string  `json:"disc_facility"`
}

func (c *Client) query(ctx context.Context, adql string) ([]archiveRow, error) {
	if cached, ok := c.cache.Get(adql); ok {
		monitoring.Logf("catalog: cache hit for archive query")
		return cached.([]archiveRow), nil
	}

	q := url.Values{}
	q.Set("query", adql)
	q.Set("format", "json")
	reqURL := c.baseURL + "/sync?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("archive query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("archive query returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var rows []archiveRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode archive response: %w", err)
	}

	c.cache.SetDefault(adql, rows)
	monitoring.Logf("catalog: retrieved %d rows from archive", len(rows))
	return rows, nil
}

// SearchPlanets queries confirmed planets matching the filter. Paging is
// applied after the fetch so the whole result set is cached once.
func (c *Client) SearchPlanets(ctx context.Context, f PlanetFilter) (PlanetPage, error) {
	conditions := []string{"pl_name IS NOT NULL", "default_flag = 1"}
	if f.Mission != "" {
		if facility := facilityForMission(f.Mission); facility != "" {
			conditions = append(conditions, fmt.Sprintf("disc_facility LIKE '%%%s%%'", facility))
		}
	}
	if f.MinPeriod != nil {
		conditions = append(conditions, fmt.Sprintf("pl_orbper >= %g", *f.MinPeriod))
	}
	if f.MaxPeriod != nil {
		conditions = append(conditions, fmt.Sprintf("pl_orbper <= %g", *f.MaxPeriod))
	}
	if f.MinRadius != nil {
		conditions = append(conditions, fmt.Sprintf("pl_rade >= %g", *f.MinRadius))
	}
	if f.MaxRadius != nil {
		conditions = append(conditions, fmt.Sprintf("pl_rade <= %g", *f.MaxRadius))
	}

	adql := fmt.Sprintf("SELECT %s FROM ps WHERE %s", planetColumns, strings.Join(conditions, " AND "))
	rows, err := c.query(ctx, adql)
	if err != nil {
		return PlanetPage{}, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	total := len(rows)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	page := PlanetPage{Total: total, Page: offset/limit + 1, PerPage: limit, Planets: []Planet{}}
	for _, row := range rows[offset:end] {
		page.Planets = append(page.Planets, planetFromRow(row))
	}
	return page, nil
}

// Missions returns the top discovery facilities by planet count.
func (c *Client) Missions(ctx context.Context) ([]Mission, error) {
	adql := "SELECT disc_facility FROM ps WHERE disc_facility IS NOT NULL AND default_flag = 1"
	rows, err := c.query(ctx, adql)
	if err != nil {
		return nil, err
	}

	counts := map[string]int{}
	for _, row := range rows {
		if row.DiscFacility != nil {
			counts[*row.DiscFacility]++
		}
	}

	facilities := make([]string, 0, len(counts))
	for f := range counts {
		facilities = append(facilities, f)
	}
	sort.Slice(facilities, func(i, j int) bool {
		if counts[facilities[i]] != counts[facilities[j]] {
			return counts[facilities[i]] > counts[facilities[j]]
		}
		return facilities[i] < facilities[j]
	})
	if len(facilities) > 10 {
		facilities = facilities[:10]
	}

	missions := make([]Mission, 0, len(facilities))
	for _, facility := range facilities {
		name := missionForFacility(facility)
		m := Mission{
			Name:         name,
			Facility:     facility,
			TotalObjects: counts[facility],
			Description:  fmt.Sprintf("%s exoplanet survey", facility),
		}
		if info, ok := missionInfo[name]; ok {
			m.Description = info.Description
			m.LaunchDate = info.LaunchDate
			m.Active = info.Active
		}
		missions = append(missions, m)
	}
	return missions, nil
}

// Statistics aggregates the confirmed-planet table by mission, discovery
// method, and discovery year.
func (c *Client) Statistics(ctx context.Context) (Statistics, error) {
	adql := "SELECT pl_name,discoverymethod,disc_year,disc_facility FROM ps WHERE default_flag = 1 AND pl_name IS NOT NULL"
	rows, err := c.query(ctx, adql)
	if err != nil {
		return Statistics{}, err
	}

	stats := Statistics{
		Total:     len(rows),
		ByMission: map[string]int{},
		ByMethod:  map[string]int{},
		ByYear:    map[string]int{},
	}
	for _, row := range rows {
		if row.DiscFacility != nil {
			stats.ByMission[missionForFacility(*row.DiscFacility)]++
		}
		if row.DiscoveryMethod != nil {
			stats.ByMethod[*row.DiscoveryMethod]++
		}
		if row.DiscYear != nil {
			stats.ByYear[fmt.Sprintf("%d", *row.DiscYear)]++
		}
	}
	return stats, nil
}

func planetFromRow(row archiveRow) Planet {
	p := Planet{
		Disposition:   "CONFIRMED",
		Period:        row.PlOrbper,
		Radius:        row.PlRade,
		Mass:          row.PlMasse,
		Temperature:   row.PlEqt,
		DiscoveryYear: row.DiscYear,
	}
	if row.PlName != nil {
		p.ID = *row.PlName
		p.Name = *row.PlName
	}
	if row.Hostname != nil {
		p.HostStar = *row.Hostname
	}
	if row.DiscoveryMethod != nil {
		p.DiscoveryMethod = *row.DiscoveryMethod
	}
	if row.DiscFacility != nil {
		p.Mission = missionForFacility(*row.DiscFacility)
	}
	return p
}

// missionForFacility maps a discovery facility name onto the short
// mission name used throughout the UI and storage.
func missionForFacility(facility string) string {
	if facility == "" {
		return "Unknown"
	}
	lower := strings.ToLower(facility)
	switch {
	case strings.Contains(lower, "kepler"):
		return "Kepler"
	case strings.Contains(lower, "tess"):
		return "TESS"
	case strings.Contains(lower, "k2"):
		return "K2"
	case strings.Contains(lower, "corot"):
		return "CoRoT"
	case strings.Contains(lower, "hat"):
		return "HAT"
	case strings.Contains(lower, "wasp"):
		return "WASP"
	case strings.Contains(lower, "kelt"):
		return "KELT"
	}
	if len(facility) > 20 {
		return facility[:20]
	}
	return facility
}

func facilityForMission(mission string) string {
	switch strings.ToLower(mission) {
	case "kepler":
		return "Kepler"
	case "tess":
		return "TESS"
	case "k2":
		return "K2"
	case "corot":
		return "CoRoT"
	}
	return ""
}
