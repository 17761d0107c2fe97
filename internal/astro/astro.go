// Package astro computes low-precision solar ephemeris values: declination,
// equation of time, solar transit and horizon crossings for a calendar day
// at a geographic coordinate.
//
// All instants are UTC and purely longitude-based (mean solar time); no IANA
// timezone is consulted anywhere. Everything here is a pure function and safe
// for concurrent use.
package astro

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidCoordinate reports a latitude outside [-90,90] or a longitude
// outside [-180,180]. It is a caller contract violation, fatal to the single
// call only.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Coordinate is an immutable geographic position. No elevation modeling.
type Coordinate struct {
	Latitude  float64 // degrees, north positive
	Longitude float64 // degrees, east positive
}

func (c Coordinate) Validate() error {
	if math.IsNaN(c.Latitude) || c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v out of [-90,90]", ErrInvalidCoordinate, c.Latitude)
	}
	if math.IsNaN(c.Longitude) || c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v out of [-180,180]", ErrInvalidCoordinate, c.Longitude)
	}
	return nil
}

// MeanOffset is the longitude-based mean time offset from UTC (lon/15 hours).
func (c Coordinate) MeanOffset() time.Duration {
	return time.Duration(c.Longitude / 15.0 * float64(time.Hour))
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.4f,%.4f", c.Latitude, c.Longitude)
}

// CivilDate is a calendar day with no time-of-day component.
type CivilDate struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf extracts the civil date of t as seen at the given mean-time offset.
func DateOf(t time.Time, offset time.Duration) CivilDate {
	y, m, d := t.UTC().Add(offset).Date()
	return CivilDate{Year: y, Month: m, Day: d}
}

// Next returns the following calendar day.
func (d CivilDate) Next() CivilDate {
	t := d.Midnight().AddDate(0, 0, 1)
	y, m, day := t.Date()
	return CivilDate{Year: y, Month: m, Day: day}
}

// Midnight returns 00:00 UTC of the day.
func (d CivilDate) Midnight() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d CivilDate) String() string {
	return d.Midnight().Format(time.DateOnly)
}

// ParseCivilDate parses "YYYY-MM-DD".
func ParseCivilDate(s string) (CivilDate, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return CivilDate{}, err
	}
	y, m, day := t.Date()
	return CivilDate{Year: y, Month: m, Day: day}, nil
}

// HorizonAltitude is the altitude (degrees) of the Sun's center when the
// apparent upper limb sits on the horizon under standard refraction:
// -0°50' ≈ -0.833°.
const HorizonAltitude = -0.833

// SolarDay holds the per-(date, coordinate) solar quantities. It is a pure
// function output and never mutated.
type SolarDay struct {
	Date  CivilDate
	Coord Coordinate

	DeclinationDeg    float64
	EquationOfTimeMin float64

	Transit time.Time // local solar noon, UTC

	// Sunrise/Sunset are the horizon crossings. When PolarDayOrNight is
	// true the sun never crosses the horizon on this date and both are the
	// zero time. This is an outcome, not an error.
	Sunrise         time.Time
	Sunset          time.Time
	PolarDayOrNight bool
}

// Compute derives the SolarDay for date at coord.
//
// The ephemeris is evaluated once, anchored at the estimated local solar
// noon of the date. That keeps the result deterministic per (date, coord)
// with accuracy well under a minute for prayer-time purposes.
func Compute(date CivilDate, coord Coordinate) (SolarDay, error) {
	if err := coord.Validate(); err != nil {
		return SolarDay{}, err
	}

	jd := julianDay(date.Year, int(date.Month), date.Day)
	// Anchor at the local solar noon estimate for this longitude.
	jdNoon := jd + 0.5 - coord.Longitude/360.0

	decl, eqt := sunPosition(jdNoon)

	transitHours := 12.0 - coord.Longitude/15.0 - eqt/60.0
	day := SolarDay{
		Date:              date,
		Coord:             coord,
		DeclinationDeg:    decl,
		EquationOfTimeMin: eqt,
		Transit:           date.Midnight().Add(hours(transitHours)),
	}

	if ha, ok := day.HourAngle(HorizonAltitude); ok {
		day.Sunrise = day.Transit.Add(-ha)
		day.Sunset = day.Transit.Add(ha)
	} else {
		day.PolarDayOrNight = true
	}
	return day, nil
}

// HourAngle converts a solar altitude (degrees, negative below the horizon)
// into the time offset from transit at which the sun reaches it. ok is false
// when the sun never reaches altDeg on this date (the acos argument leaves
// [-1,1]).
func (d SolarDay) HourAngle(altDeg float64) (time.Duration, bool) {
	lat := radians(d.Coord.Latitude)
	dec := radians(d.DeclinationDeg)
	cosH := (math.Sin(radians(altDeg)) - math.Sin(lat)*math.Sin(dec)) / (math.Cos(lat) * math.Cos(dec))
	if cosH < -1 || cosH > 1 {
		return 0, false
	}
	h := degrees(math.Acos(cosH)) // degrees of arc, 15°/hour
	return hours(h / 15.0), true
}

// AsrAltitude is the solar altitude at which an object's shadow equals
// shadowFactor times its height plus the noon shadow: cot(alt) =
// factor + tan(|lat - decl|).
func (d SolarDay) AsrAltitude(shadowFactor float64) float64 {
	return degrees(math.Atan(1.0 / (shadowFactor + math.Tan(radians(math.Abs(d.Coord.Latitude-d.DeclinationDeg))))))
}

// julianDay returns the Julian Day at 0h UT for the given calendar date.
func julianDay(year, month, day int) float64 {
	if month <= 2 {
		year--
		month += 12
	}
	a := math.Floor(float64(year) / 100)
	b := 2 - a + math.Floor(a/4)
	return math.Floor(365.25*float64(year+4716)) + math.Floor(30.6001*float64(month+1)) + float64(day) + b - 1524.5
}

// sunPosition evaluates the standard low-precision solar position at jd and
// returns declination (degrees) and equation of time (minutes).
func sunPosition(jd float64) (declDeg, eqtMin float64) {
	t := (jd - 2451545.0) / 36525.0 // Julian centuries since J2000.0

	// Geometric mean longitude and anomaly of the sun.
	l0 := math.Mod(280.46646+t*(36000.76983+0.0003032*t), 360)
	m := 357.52911 + t*(35999.05029-0.0001537*t)
	// Eccentricity of Earth's orbit.
	e := 0.016708634 - t*(0.000042037+0.0000001267*t)
	// Equation of center.
	c := math.Sin(radians(m))*(1.914602-t*(0.004817+0.000014*t)) +
		math.Sin(radians(2*m))*(0.019993-0.000101*t) +
		math.Sin(radians(3*m))*0.000289
	trueLong := l0 + c

	// Apparent longitude, corrected for nutation and aberration.
	omega := 125.04 - 1934.136*t
	lambda := trueLong - 0.00569 - 0.00478*math.Sin(radians(omega))

	// Obliquity of the ecliptic.
	eps0 := 23 + (26+(21.448-t*(46.815+t*(0.00059-t*0.001813)))/60)/60
	eps := eps0 + 0.00256*math.Cos(radians(omega))

	declDeg = degrees(math.Asin(math.Sin(radians(eps)) * math.Sin(radians(lambda))))

	y := math.Tan(radians(eps / 2))
	y *= y
	eqtMin = 4 * degrees(y*math.Sin(2*radians(l0))-
		2*e*math.Sin(radians(m))+
		4*e*y*math.Sin(radians(m))*math.Cos(2*radians(l0))-
		0.5*y*y*math.Sin(4*radians(l0))-
		1.25*e*e*math.Sin(2*radians(m)))
	return declDeg, eqtMin
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
func degrees(rad float64) float64 { return rad * 180 / math.Pi }

func hours(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}
