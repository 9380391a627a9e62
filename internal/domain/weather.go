package domain

import (
	"fmt"
	"math"
	"time"
)

// WeatherStem sensor names.
const (
	SensorThermometer = "Thermometer"
	SensorWindChill   = "Wind Chill"
	SensorHeatIndex   = "Heat Index"
	SensorAnemometer  = "Anemometer"
	SensorHygrometer  = "Hygrometer"
	SensorWindGust    = "10 Minute Wind Gust"
	SensorWindVane    = "Wind Vane"
	SensorUV          = "UV Radiation Sensor"
	SensorRainRate    = "Rain Rate"
	SensorRainGauge   = "Rain Gauge"
	SensorSolar       = "Solar Radiation Sensor"

	cloudCamera = "Cloud Camera"
)

// WeatherStemStation is the raw station record.
type WeatherStemStation struct {
	Record struct {
		Readings LenientList[WeatherStemReading] `json:"readings"`
	} `json:"record"`
	Station Lenient[WeatherStemInfo] `json:"station"`
}

// WeatherStemInfo is the optional station description block.
type WeatherStemInfo struct {
	Cameras LenientList[WeatherStemCamera] `json:"cameras"`
}

type WeatherStemReading struct {
	SensorType string     `json:"sensor_type"`
	Value      FlexNumber `json:"value"`
}

type WeatherStemCamera struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

// Readings indexes sensor values by sensor type. Later readings of the same
// sensor replace earlier ones.
type Readings map[string]FlexNumber

// Readings flattens the station's sensor list.
func (s WeatherStemStation) Readings() Readings {
	r := make(Readings, len(s.Record.Readings))
	for _, reading := range s.Record.Readings {
		r[reading.SensorType] = reading.Value
	}
	return r
}

// CameraURL returns the cloud camera image, or "" when the station has none.
func (s WeatherStemStation) CameraURL() string {
	for _, c := range s.Station.V.Cameras {
		if c.Name == cloudCamera {
			return c.Image
		}
	}
	return ""
}

// Float returns the sensor's value, or def when absent or unparseable.
func (r Readings) Float(sensor string, def float64) float64 {
	return r[sensor].FloatOr(def)
}

// Int returns the sensor's value truncated toward zero.
func (r Readings) Int(sensor string) int {
	return int(r.Float(sensor, 0))
}

// Weather is the stored weather snapshot.
type Weather struct {
	Temperature    int    `json:"temperature"`
	FeelsLike      int    `json:"feelsLike"`
	Humidity       int    `json:"humidity"`
	Wind           Wind   `json:"wind"`
	UVIndex        int    `json:"uvIndex"`
	Rain           Rain   `json:"rain"`
	SolarRadiation int    `json:"solarRadiation"`
	Sunrise        *int64 `json:"sunrise"`
	Sunset         *int64 `json:"sunset"`
	ImageURL       string `json:"imageUrl,omitempty"`
	LastUpdated    string `json:"lastUpdated"`
}

type Wind struct {
	Speed     int    `json:"speed"`
	Gust      int    `json:"gust"`
	Direction string `json:"direction"`
	Degrees   int    `json:"degrees"`
}

type Rain struct {
	Rate  float64 `json:"rate"`
	Total float64 `json:"total"`
}

var compass = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// WindLabel converts a bearing in degrees to a 16-point compass label.
func WindLabel(degrees float64) string {
	i := int(math.RoundToEven(degrees/22.5)) % 16
	if i < 0 {
		i += 16
	}
	return compass[i]
}

// FeelsLike picks wind chill in cold wind, heat index in humid heat, and the
// air temperature otherwise, rounded to a whole degree.
func FeelsLike(temperature, windChill, heatIndex, windSpeed, humidity float64) int {
	switch {
	case temperature <= 50 && windSpeed > 3:
		return int(math.RoundToEven(windChill))
	case temperature >= 80 && humidity > 40:
		return int(math.RoundToEven(heatIndex))
	default:
		return int(math.RoundToEven(temperature))
	}
}

// NormalizeWeather builds the weather snapshot from a station record. It
// returns ErrMissingRequired when the station reports no temperature.
func NormalizeWeather(station WeatherStemStation, now time.Time, sun SunTimes) (Weather, error) {
	r := station.Readings()
	temperature, ok := r[SensorThermometer].Float()
	if !ok {
		return Weather{}, fmt.Errorf("%w: %s reading", ErrMissingRequired, SensorThermometer)
	}

	vane := r.Float(SensorWindVane, 0)
	return Weather{
		Temperature: int(math.RoundToEven(temperature)),
		FeelsLike: FeelsLike(
			temperature,
			r.Float(SensorWindChill, temperature),
			r.Float(SensorHeatIndex, temperature),
			r.Float(SensorAnemometer, 0),
			r.Float(SensorHygrometer, 0),
		),
		Humidity: r.Int(SensorHygrometer),
		Wind: Wind{
			Speed:     r.Int(SensorAnemometer),
			Gust:      r.Int(SensorWindGust),
			Direction: WindLabel(vane),
			Degrees:   int(vane),
		},
		UVIndex:        r.Int(SensorUV),
		Rain:           Rain{Rate: r.Float(SensorRainRate, 0), Total: r.Float(SensorRainGauge, 0)},
		SolarRadiation: r.Int(SensorSolar),
		Sunrise:        sun.Sunrise,
		Sunset:         sun.Sunset,
		ImageURL:       station.CameraURL(),
		LastUpdated:    FormatTimestamp(now),
	}, nil
}
