package httpapi

// Response shapes for presentation collaborators. Times are rendered twice:
// as HH:MM strings at the longitude's mean-time offset (what a clock-facing
// UI wants) and as RFC3339 UTC instants (what a machine wants).

type timingsResponse struct {
	Date    string  `json:"date"`
	Meta    meta    `json:"meta"`
	Timings timings `json:"timings"`
	Instant instant `json:"instants"`
	// HighLatitude is true when any time came from the proportional-night
	// approximation instead of solar geometry.
	HighLatitude bool `json:"high_latitude"`
}

type timings struct {
	Imsak    string `json:"imsak"`
	Fajr     string `json:"fajr"`
	Sunrise  string `json:"sunrise"`
	Dhuhr    string `json:"dhuhr"`
	Asr      string `json:"asr"`
	Maghrib  string `json:"maghrib"`
	Isha     string `json:"isha"`
	Midnight string `json:"midnight"`
	// LastThird marks the final third of the night.
	LastThird string `json:"last_third"`
}

type instant struct {
	Imsak     string `json:"imsak"`
	Fajr      string `json:"fajr"`
	Sunrise   string `json:"sunrise"`
	Dhuhr     string `json:"dhuhr"`
	Asr       string `json:"asr"`
	Maghrib   string `json:"maghrib"`
	Isha      string `json:"isha"`
	Midnight  string `json:"midnight"`
	LastThird string `json:"last_third"`
}

type meta struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Label     string  `json:"label,omitempty"`
	Method    string  `json:"method"`
	// OffsetMinutes is the mean-time offset (longitude/15h) used for the
	// HH:MM renderings.
	OffsetMinutes int `json:"offset_minutes"`
}

type calendarResponse struct {
	Start string            `json:"start"`
	Days  int               `json:"days"`
	Meta  meta              `json:"meta"`
	Items []timingsResponse `json:"items"`
}

type nextResponse struct {
	Kind      string `json:"kind"`
	At        string `json:"at"`       // RFC3339 UTC
	AtClock   string `json:"at_clock"` // HH:MM at mean offset
	Remaining struct {
		Hours   int64 `json:"hours"`
		Minutes int64 `json:"minutes"`
		Seconds int64 `json:"seconds"`
		Total   int64 `json:"total_seconds"`
	} `json:"remaining"`
}

type eventRecord struct {
	Kind      string `json:"kind"`
	At        string `json:"at"`
	FiredAt   string `json:"fired_at"`
	Delivered bool   `json:"delivered"`
	Error     string `json:"error,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}
