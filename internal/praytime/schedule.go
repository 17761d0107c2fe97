// Package praytime derives the canonical daily prayer schedule from the
// solar ephemeris in internal/astro, under a configurable calculation
// method. All computation is pure; concurrent use needs no locking.
package praytime

import (
	"time"

	"prayerd/internal/astro"
)

// ImsakOffset is the fixed buffer before Fajr marking the end of the
// pre-dawn meal. It is conventional, not astronomically derived.
const ImsakOffset = 10 * time.Minute

// Schedule holds the six canonical prayer instants plus Imsak and the two
// nocturnal sunnah markers, all UTC.
type Schedule struct {
	Date  astro.CivilDate
	Coord astro.Coordinate

	Fajr    time.Time
	Sunrise time.Time
	Dhuhr   time.Time
	Asr     time.Time
	Maghrib time.Time
	Isha    time.Time

	Imsak time.Time // Fajr - ImsakOffset, always

	// Midnight and LastThird divide the night interval from today's
	// sunset to tomorrow's sunrise.
	Midnight  time.Time
	LastThird time.Time

	// HighLatApplied reports that at least one time came from the
	// proportional-night substitution rather than solar geometry. It is
	// set whenever an angle is unsolvable at this latitude/date, and
	// always when the date has no sunrise/sunset at all.
	HighLatApplied bool
}

// Compute derives the schedule for date at coord under method m.
//
// It never fails on polar geometry: unsolvable times fall back per
// m.HighLatRule. The only error is an out-of-range coordinate (or an
// invalid method policy).
func Compute(date astro.CivilDate, coord astro.Coordinate, m Method) (Schedule, error) {
	if err := m.validate(); err != nil {
		return Schedule{}, err
	}
	today, err := astro.Compute(date, coord)
	if err != nil {
		return Schedule{}, err
	}
	// Tomorrow's sunrise bounds tonight. Coordinate is already validated.
	tomorrow, err := astro.Compute(date.Next(), coord)
	if err != nil {
		return Schedule{}, err
	}

	sunrise, sunset := baseDay(today)
	nextSunrise, _ := baseDay(tomorrow)
	night := nextSunrise.Sub(sunset)

	s := Schedule{
		Date:    date,
		Coord:   coord,
		Sunrise: sunrise,
		Dhuhr:   today.Transit,
		Maghrib: sunset,

		Midnight:  sunset.Add(night / 2),
		LastThird: sunset.Add(2 * night / 3),

		HighLatApplied: today.PolarDayOrNight,
	}

	// Fajr. When the date has no real sunrise the whole day is synthetic
	// and every angle time must come from the proportional rule, or the
	// ordering invariant collapses.
	if ha, ok := today.HourAngle(-m.FajrAngle); ok && !today.PolarDayOrNight {
		s.Fajr = today.Transit.Add(-ha)
	} else {
		s.Fajr = sunrise.Add(-portionOf(m.HighLatRule, m.FajrAngle, night))
		s.HighLatApplied = true
	}
	s.Imsak = s.Fajr.Add(-ImsakOffset)

	// Isha: fixed interval methods are always solvable.
	switch {
	case m.IshaInterval > 0:
		s.Isha = s.Maghrib.Add(m.IshaInterval)
	default:
		if ha, ok := today.HourAngle(-m.IshaAngle); ok && !today.PolarDayOrNight {
			s.Isha = today.Transit.Add(ha)
		} else {
			s.Isha = sunset.Add(portionOf(m.HighLatRule, m.IshaAngle, night))
			s.HighLatApplied = true
		}
	}

	// Asr. The shadow-rule altitude can be out of reach at extreme
	// latitudes, and on a synthetic day its real hour angle can land past
	// the synthetic sunset; both cases take the afternoon midpoint as the
	// deterministic substitute.
	if ha, ok := today.HourAngle(today.AsrAltitude(m.AsrShadow)); ok && !today.PolarDayOrNight {
		s.Asr = today.Transit.Add(ha)
	} else {
		s.Asr = today.Transit.Add(sunset.Sub(today.Transit) / 2)
		s.HighLatApplied = true
	}

	return s, nil
}

// baseDay returns the sunrise/sunset pair the rest of the computation
// hangs off. On polar days/nights the day is split evenly around transit,
// giving the proportional rules a deterministic synthetic night.
func baseDay(d astro.SolarDay) (sunrise, sunset time.Time) {
	if d.PolarDayOrNight {
		return d.Transit.Add(-6 * time.Hour), d.Transit.Add(6 * time.Hour)
	}
	return d.Sunrise, d.Sunset
}

// portionOf converts a high-latitude rule into the share of the night
// allocated to the missing twilight interval.
func portionOf(rule HighLatRule, angleDeg float64, night time.Duration) time.Duration {
	var p float64
	switch rule {
	case HighLatSeventhOfNight:
		p = 1.0 / 7.0
	case HighLatTwilightAngle:
		p = angleDeg / 60.0
	default:
		// MiddleOfNight, and the last-resort substitution for None.
		p = 1.0 / 2.0
	}
	return time.Duration(p * float64(night))
}
