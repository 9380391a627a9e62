package domain

import (
	"fmt"
	"time"

	"github.com/nathan-osman/go-sunrise"
)

// SunTimes holds sunrise and sunset as Unix seconds; nil when unknown.
type SunTimes struct {
	Sunrise *int64
	Sunset  *int64
}

// ComputeSunTimes returns sunrise and sunset at the given point on day's civil date.
func ComputeSunTimes(lat, lon float64, day time.Time) (SunTimes, error) {
	d := day.In(civil)
	rise, set := sunrise.SunriseSunset(lat, lon, d.Year(), d.Month(), d.Day())
	if rise.IsZero() || set.IsZero() {
		return SunTimes{}, fmt.Errorf("%w at (%v, %v) on %s", ErrNoSunEvent, lat, lon, d.Format(civilDateLayout))
	}
	r, s := rise.Unix(), set.Unix()
	return SunTimes{Sunrise: &r, Sunset: &s}, nil
}
