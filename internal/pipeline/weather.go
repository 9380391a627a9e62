package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/campus-feed-etl-service/internal/domain"
)

// WeatherJob replaces the weather document with the station's latest readings.
type WeatherJob struct {
	source   WeatherStemSource
	store    Store
	lat, lon float64
	logger   *slog.Logger
}

// NewWeatherJob creates the weather job. Sunrise and sunset are computed for (lat, lon).
func NewWeatherJob(source WeatherStemSource, store Store, lat, lon float64, logger *slog.Logger) *WeatherJob {
	return &WeatherJob{source: source, store: store, lat: lat, lon: lon, logger: logger}
}

func (j *WeatherJob) Name() string { return JobWeather }

func (j *WeatherJob) Run(ctx context.Context) (domain.WriteReport, error) {
	report := domain.WriteReport{Path: domain.PathWeather}

	station, err := j.source.FetchStation(ctx)
	if err != nil {
		return report, fmt.Errorf("fetch weather station: %w", err)
	}

	now := domain.Now()
	sun, err := domain.ComputeSunTimes(j.lat, j.lon, now)
	if err != nil {
		j.logger.Warn("sunrise/sunset unavailable", "job", j.Name(), "error", err)
		sun = domain.SunTimes{}
	}

	weather, err := domain.NormalizeWeather(station, now, sun)
	if err != nil {
		return report, err
	}

	if err := j.store.Set(ctx, domain.PathWeather, weather); err != nil {
		return report, fmt.Errorf("write weather: %w", err)
	}
	report.Written = 1
	return report, nil
}
