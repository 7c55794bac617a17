package ticker

import (
	"encoding/json"
	"strconv"
	"strings"
)

// DecodeState parses a /api/state response body. The envelope must be a
// JSON object or a *DecodeError is returned; inside the envelope every
// settings field decodes independently, falling back to its default on
// absence or type mismatch so a partial payload never aborts the sync
// cycle.
func DecodeState(data []byte) (Settings, []FeedItem, error) {
	var envelope struct {
		Settings json.RawMessage `json:"settings"`
		Games    json.RawMessage `json:"games"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return DefaultSettings(), nil, &DecodeError{Endpoint: "/api/state", Err: err}
	}
	return decodeSettings(envelope.Settings), decodeFeed(envelope.Games), nil
}

func decodeSettings(raw json.RawMessage) Settings {
	s := DefaultSettings()
	var fields map[string]json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &fields) != nil {
		return s
	}

	s.Mode = NormalizeMode(stringField(fields, "mode", s.Mode))
	s.ActiveCategories = boolMapField(fields, "active_sports", s.ActiveCategories)
	s.MyTeams = stringSetField(fields, "my_teams", s.MyTeams)
	s.ScrollSpeed = intField(fields, "scroll_speed", s.ScrollSpeed)
	s.ScrollSeamless = boolField(fields, "scroll_seamless", s.ScrollSeamless)
	s.DebugMode = boolField(fields, "debug_mode", s.DebugMode)
	s.CustomDate = stringField(fields, "custom_date", s.CustomDate)
	s.WeatherCity = stringField(fields, "weather_city", s.WeatherCity)
	s.WeatherLat = floatField(fields, "weather_lat", s.WeatherLat)
	s.WeatherLon = floatField(fields, "weather_lon", s.WeatherLon)
	s.TrackFlightID = stringField(fields, "track_flight_id", s.TrackFlightID)
	s.TrackGuestName = stringField(fields, "track_guest_name", s.TrackGuestName)
	s.AirportIATA = stringField(fields, "airport_code_iata", s.AirportIATA)
	s.AirportICAO = stringField(fields, "airport_code_icao", s.AirportICAO)
	s.AirportName = stringField(fields, "airport_name", s.AirportName)
	s.TargetDeviceID = stringField(fields, "ticker_id", s.TargetDeviceID)
	return s
}

func decodeFeed(raw json.RawMessage) []FeedItem {
	var entries []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &entries) != nil {
		return nil
	}
	items := make([]FeedItem, 0, len(entries))
	for _, entry := range entries {
		var item FeedItem
		if err := json.Unmarshal(entry, &item); err != nil {
			continue
		}
		items = append(items, item)
	}
	return items
}

// Per-field fallback combinators. Each one answers "this key, decoded as
// this type, or the default" so the defaulting policy stays in one
// auditable place.

func stringField(fields map[string]json.RawMessage, key, def string) string {
	raw, ok := fields[key]
	if !ok {
		return def
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return def
	}
	return s
}

func boolField(fields map[string]json.RawMessage, key string, def bool) bool {
	raw, ok := fields[key]
	if !ok {
		return def
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return def
	}
	return b
}

func intField(fields map[string]json.RawMessage, key string, def int) int {
	return int(floatField(fields, key, float64(def)))
}

func floatField(fields map[string]json.RawMessage, key string, def float64) float64 {
	raw, ok := fields[key]
	if !ok {
		return def
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	// Some feeds quote their numbers.
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f
		}
	}
	return def
}

func boolMapField(fields map[string]json.RawMessage, key string, def map[string]bool) map[string]bool {
	raw, ok := fields[key]
	if !ok {
		return def
	}
	var m map[string]bool
	if err := json.Unmarshal(raw, &m); err != nil || m == nil {
		return def
	}
	return m
}

// stringSetField decodes a string list and drops duplicates while
// keeping first-seen order.
func stringSetField(fields map[string]json.RawMessage, key string, def []string) []string {
	raw, ok := fields[key]
	if !ok {
		return def
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return def
	}
	seen := make(map[string]bool, len(list))
	out := make([]string, 0, len(list))
	for _, v := range list {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
