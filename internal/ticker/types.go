package ticker

import (
	"encoding/json"
	"strings"
	"time"
)

// Display modes understood by the server. Legacy values are migrated by
// NormalizeMode; anything unrecognized falls back to ModeSports.
const (
	ModeSports        = "sports"
	ModeLive          = "live"
	ModeMyTeams       = "my_teams"
	ModeStocks        = "stocks"
	ModeWeather       = "weather"
	ModeClock         = "clock"
	ModeMusic         = "music"
	ModeFlights       = "flights"
	ModeFlightTracker = "flight_tracker"
)

var validModes = map[string]bool{
	ModeSports:        true,
	ModeLive:          true,
	ModeMyTeams:       true,
	ModeStocks:        true,
	ModeWeather:       true,
	ModeClock:         true,
	ModeMusic:         true,
	ModeFlights:       true,
	ModeFlightTracker: true,
}

var modeMigrations = map[string]string{
	"all":     ModeSports,
	"flight2": ModeFlightTracker,
}

// NormalizeMode maps legacy mode names to their current equivalents and
// collapses anything unknown to ModeSports.
func NormalizeMode(mode string) string {
	mode = strings.TrimSpace(mode)
	if migrated, ok := modeMigrations[mode]; ok {
		mode = migrated
	}
	if !validModes[mode] {
		return ModeSports
	}
	return mode
}

// Settings is the shared configuration object synced between the server
// and every client. Field names mirror the server's JSON keys.
type Settings struct {
	Mode             string          `json:"mode"`
	ActiveCategories map[string]bool `json:"active_sports"`
	MyTeams          []string        `json:"my_teams"`
	ScrollSpeed      int             `json:"scroll_speed"`
	ScrollSeamless   bool            `json:"scroll_seamless"`
	DebugMode        bool            `json:"debug_mode"`
	CustomDate       string          `json:"custom_date,omitempty"`

	WeatherCity string  `json:"weather_city"`
	WeatherLat  float64 `json:"weather_lat"`
	WeatherLon  float64 `json:"weather_lon"`

	TrackFlightID  string `json:"track_flight_id"`
	TrackGuestName string `json:"track_guest_name,omitempty"`
	AirportIATA    string `json:"airport_code_iata"`
	AirportICAO    string `json:"airport_code_icao"`
	AirportName    string `json:"airport_name"`

	TargetDeviceID string `json:"ticker_id,omitempty"`
}

// DefaultSettings returns the safe per-field defaults used whenever a
// snapshot omits or mangles a field.
func DefaultSettings() Settings {
	return Settings{
		Mode:             ModeSports,
		ActiveCategories: map[string]bool{},
		MyTeams:          []string{},
		ScrollSpeed:      5,
		WeatherCity:      "New York",
		WeatherLat:       40.7128,
		WeatherLon:       -74.0060,
		AirportIATA:      "EWR",
		AirportICAO:      "KEWR",
		AirportName:      "Newark",
	}
}

// FlightView reports which flight surface the current mode selects.
func (s Settings) FlightView() string {
	if s.Mode == ModeFlightTracker {
		return "track"
	}
	return "airport"
}

// Clone returns a deep copy so a caller can hand settings across
// goroutines without sharing the map or slice.
func (s Settings) Clone() Settings {
	dup := s
	dup.ActiveCategories = make(map[string]bool, len(s.ActiveCategories))
	for k, v := range s.ActiveCategories {
		dup.ActiveCategories[k] = v
	}
	dup.MyTeams = make([]string, len(s.MyTeams))
	copy(dup.MyTeams, s.MyTeams)
	return dup
}

// HasTeam reports whether id is in the MyTeams set.
func (s Settings) HasTeam(id string) bool {
	for _, t := range s.MyTeams {
		if t == id {
			return true
		}
	}
	return false
}

// ToggleTeam adds id to MyTeams when absent and removes it when present.
func (s *Settings) ToggleTeam(id string) {
	for i, t := range s.MyTeams {
		if t == id {
			s.MyTeams = append(s.MyTeams[:i], s.MyTeams[i+1:]...)
			return
		}
	}
	s.MyTeams = append(s.MyTeams, id)
}

// Device is one paired physical ticker as reported by /tickers.
type Device struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Settings DeviceSettings `json:"settings"`
	LastSeen int64          `json:"last_seen,omitempty"`
}

// LastSeenTime converts the heartbeat epoch to a time.Time; the zero
// value means the server never saw a heartbeat.
func (d Device) LastSeenTime() time.Time {
	if d.LastSeen <= 0 {
		return time.Time{}
	}
	return time.Unix(d.LastSeen, 0)
}

// DeviceSettings are the per-unit hardware preferences.
type DeviceSettings struct {
	Brightness       int     `json:"brightness"`
	ScrollSpeed      float64 `json:"scroll_speed"`
	ScrollSeamless   bool    `json:"scroll_seamless"`
	Inverted         bool    `json:"inverted"`
	LiveDelayMode    bool    `json:"live_delay_mode"`
	LiveDelaySeconds int     `json:"live_delay_seconds"`
}

// DevicePatch carries only the per-device keys being changed; nil fields
// are omitted from the request body.
type DevicePatch struct {
	Brightness       *int     `json:"brightness,omitempty"`
	ScrollSpeed      *float64 `json:"scroll_speed,omitempty"`
	ScrollSeamless   *bool    `json:"scroll_seamless,omitempty"`
	Inverted         *bool    `json:"inverted,omitempty"`
	LiveDelayMode    *bool    `json:"live_delay_mode,omitempty"`
	LiveDelaySeconds *int     `json:"live_delay_seconds,omitempty"`
}

// IsZero reports whether the patch carries no changes.
func (p DevicePatch) IsZero() bool {
	return p.Brightness == nil && p.ScrollSpeed == nil && p.ScrollSeamless == nil &&
		p.Inverted == nil && p.LiveDelayMode == nil && p.LiveDelaySeconds == nil
}

// Apply copies the patched fields onto a settings value.
func (p DevicePatch) Apply(s *DeviceSettings) {
	if p.Brightness != nil {
		s.Brightness = *p.Brightness
	}
	if p.ScrollSpeed != nil {
		s.ScrollSpeed = *p.ScrollSpeed
	}
	if p.ScrollSeamless != nil {
		s.ScrollSeamless = *p.ScrollSeamless
	}
	if p.Inverted != nil {
		s.Inverted = *p.Inverted
	}
	if p.LiveDelayMode != nil {
		s.LiveDelayMode = *p.LiveDelayMode
	}
	if p.LiveDelaySeconds != nil {
		s.LiveDelaySeconds = *p.LiveDelaySeconds
	}
}

// FeedItem is the slice of a state response the sync engine cares
// about: enough to count items and show a one-line summary. Rendering
// lives elsewhere.
type FeedItem struct {
	ID        string     `json:"id"`
	Sport     string     `json:"sport"`
	Status    string     `json:"status"`
	State     string     `json:"state"`
	HomeAbbr  string     `json:"home_abbr"`
	AwayAbbr  string     `json:"away_abbr"`
	HomeScore flexString `json:"home_score"`
	AwayScore flexString `json:"away_score"`
	IsShown   bool       `json:"is_shown"`
}

// Live reports whether the item is in progress.
func (f FeedItem) Live() bool {
	switch f.State {
	case "in", "half", "crit":
		return true
	}
	return false
}

// flexString decodes a JSON string or number into a string. The server
// emits scores and ids in either form depending on the upstream feed.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexString(n.String())
		return nil
	}
	*f = ""
	return nil
}

// Category mirrors one entry of the /leagues directory.
type Category struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Type    string `json:"type"`
	Enabled bool   `json:"enabled"`
}

// TeamEntry is one team in the /api/teams directory.
type TeamEntry struct {
	Abbr string `json:"abbr"`
	Logo string `json:"logo,omitempty"`
}

// PairResult mirrors the response of /pair and /pair/id.
type PairResult struct {
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	DeviceID string `json:"ticker_id,omitempty"`
}
