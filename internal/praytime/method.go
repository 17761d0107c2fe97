package praytime

import (
	"fmt"
	"strings"
	"time"
)

// HighLatRule selects the proportional-night substitution used when an
// angle-based time is geometrically unsolvable at high latitudes.
type HighLatRule int

const (
	// HighLatNone applies no adjustment while times are solvable. When a
	// time is unsolvable anyway, MiddleOfNight is substituted so Compute
	// never fails on polar geometry.
	HighLatNone HighLatRule = iota
	HighLatMiddleOfNight
	HighLatSeventhOfNight
	HighLatTwilightAngle
)

func (r HighLatRule) String() string {
	switch r {
	case HighLatNone:
		return "none"
	case HighLatMiddleOfNight:
		return "middle_of_night"
	case HighLatSeventhOfNight:
		return "seventh_of_night"
	case HighLatTwilightAngle:
		return "twilight_angle"
	default:
		return fmt.Sprintf("high_lat_rule(%d)", int(r))
	}
}

// ParseHighLatRule accepts the string forms used in configs.
func ParseHighLatRule(s string) (HighLatRule, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return HighLatNone, nil
	case "middle_of_night", "middle":
		return HighLatMiddleOfNight, nil
	case "seventh_of_night", "seventh":
		return HighLatSeventhOfNight, nil
	case "twilight_angle", "angle":
		return HighLatTwilightAngle, nil
	default:
		return HighLatNone, fmt.Errorf("unknown high latitude rule %q", s)
	}
}

// Method is an immutable calculation policy. Methods are data: adding one
// is a matter of another value, never another code path.
type Method struct {
	Name string

	FajrAngle float64 // solar depression for Fajr, degrees
	IshaAngle float64 // solar depression for Isha, degrees

	// IshaInterval, when > 0, replaces the Isha angle with a fixed offset
	// after Maghrib (used by Umm al-Qura style methods).
	IshaInterval time.Duration

	// AsrShadow is the shadow-length factor: 1 (standard) or 2 (Hanafi).
	AsrShadow float64

	HighLatRule HighLatRule
}

// key is the cache identity of the policy; two methods with equal
// parameters are interchangeable.
func (m Method) key() string {
	return fmt.Sprintf("%g/%g/%s/%g/%s", m.FajrAngle, m.IshaAngle, m.IshaInterval, m.AsrShadow, m.HighLatRule)
}

// MWL is the Muslim World League method: Fajr 18°, Isha 17°, standard
// shadow factor. This is the default policy.
func MWL() Method {
	return Method{Name: "mwl", FajrAngle: 18, IshaAngle: 17, AsrShadow: 1, HighLatRule: HighLatMiddleOfNight}
}

var presets = map[string]Method{
	"mwl":         MWL(),
	"isna":        {Name: "isna", FajrAngle: 15, IshaAngle: 15, AsrShadow: 1, HighLatRule: HighLatMiddleOfNight},
	"egypt":       {Name: "egypt", FajrAngle: 19.5, IshaAngle: 17.5, AsrShadow: 1, HighLatRule: HighLatMiddleOfNight},
	"karachi":     {Name: "karachi", FajrAngle: 18, IshaAngle: 18, AsrShadow: 1, HighLatRule: HighLatMiddleOfNight},
	"umm_al_qura": {Name: "umm_al_qura", FajrAngle: 18.5, IshaInterval: 90 * time.Minute, AsrShadow: 1, HighLatRule: HighLatMiddleOfNight},
}

// MethodByName looks up a named preset.
func MethodByName(name string) (Method, bool) {
	m, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	return m, ok
}

// MethodNames lists the available presets (unordered).
func MethodNames() []string {
	out := make([]string, 0, len(presets))
	for k := range presets {
		out = append(out, k)
	}
	return out
}

func (m Method) validate() error {
	if m.FajrAngle <= 0 || m.FajrAngle >= 48 {
		return fmt.Errorf("method %q: fajr angle %g out of (0,48)", m.Name, m.FajrAngle)
	}
	if m.IshaInterval < 0 {
		return fmt.Errorf("method %q: negative isha interval", m.Name)
	}
	if m.IshaInterval == 0 && (m.IshaAngle <= 0 || m.IshaAngle >= 48) {
		return fmt.Errorf("method %q: isha angle %g out of (0,48)", m.Name, m.IshaAngle)
	}
	if m.AsrShadow != 1 && m.AsrShadow != 2 {
		return fmt.Errorf("method %q: asr shadow factor must be 1 or 2", m.Name)
	}
	return nil
}
