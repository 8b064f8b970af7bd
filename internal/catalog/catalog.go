// Package catalog queries the NASA Exoplanet Archive TAP service for
// confirmed-planet and mission metadata, with TTL caching so repeated
// browsing does not hammer the archive.
package catalog

// Planet is one confirmed-planet row from the archive.
type Planet struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	HostStar        string   `json:"host_star"`
	Disposition     string   `json:"disposition"`
	Period          *float64 `json:"period"`
	Radius          *float64 `json:"radius"`
	Mass            *float64 `json:"mass"`
	Temperature     *float64 `json:"temperature"`
	DiscoveryMethod string   `json:"discovery_method,omitempty"`
	DiscoveryYear   *int     `json:"discovery_year"`
	Mission         string   `json:"mission"`
}

// PlanetFilter narrows a planet search. Zero values mean unfiltered.
type PlanetFilter struct {
	Mission   string
	MinPeriod *float64
	MaxPeriod *float64
	MinRadius *float64
	MaxRadius *float64
	Limit     int
	Offset    int
}

// PlanetPage is one page of search results.
type PlanetPage struct {
	Planets []Planet `json:"planets"`
	Total   int      `json:"total"`
	Page    int      `json:"page"`
	PerPage int      `json:"per_page"`
}

// Mission summarises one discovery facility.
type Mission struct {
	Name         string `json:"name"`
	Facility     string `json:"facility"`
	TotalObjects int    `json:"total_objects"`
	Description  string `json:"description"`
	Active       bool   `json:"active"`
	LaunchDate   string `json:"launch_date,omitempty"`
}

// Statistics aggregates the confirmed-planet table.
type Statistics struct {
	Total     int            `json:"total"`
	ByMission map[string]int `json:"by_mission"`
	ByMethod  map[string]int `json:"by_method"`
	ByYear    map[string]int `json:"by_year"`
}

var missionInfo = map[string]struct {
	Description string
	LaunchDate  string
	Active      bool
}{
	"Kepler": {"NASA's first planet-hunting mission, operational 2009-2013", "2009-03-07", false},
	"TESS":   {"Transiting Exoplanet Survey Satellite, launched 2018", "2018-04-18", true},
	"K2":     {"Extended Kepler mission, operational 2014-2018", "2014-05-30", false},
}
