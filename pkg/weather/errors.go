package weather

import (
	"github.com/cockroachdb/errors"
)

// Failure kinds. Message converts each to the fixed text the tools return.
var (
	// ErrNoData marks any failed upstream request.
	ErrNoData = errors.New("weather: no data")
	// ErrAlertsUnavailable means the alerts request failed or carried no
	// features field.
	ErrAlertsUnavailable = errors.New("weather: alerts unavailable")
	// ErrNoGrid means the points lookup for the coordinates failed.
	ErrNoGrid = errors.New("weather: no forecast grid")
	// ErrNoForecastURL means the points document had no forecast link.
	ErrNoForecastURL = errors.New("weather: no forecast url")
	// ErrNoForecast means the forecast document request failed.
	ErrNoForecast = errors.New("weather: no forecast document")
	// ErrNoPeriods means the forecast document listed no periods.
	ErrNoPeriods = errors.New("weather: no forecast periods")
)

// Fixed texts returned to the caller.
const (
	MsgAlertsUnavailable = "Unable to fetch alerts or none available."
	MsgNoActiveAlerts    = "No active alerts."
	MsgNoGrid            = "No forecast data available for this location."
	MsgNoForecastURL     = "No forecast URL found in the data."
	MsgNoForecast        = "No detailed forecast available."
	MsgNoPeriods         = "No forecast available right now."
	MsgUnknown           = "Unable to fetch weather data."
)

// Message returns the fixed user-facing text for a weather failure.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrAlertsUnavailable):
		return MsgAlertsUnavailable
	case errors.Is(err, ErrNoGrid):
		return MsgNoGrid
	case errors.Is(err, ErrNoForecastURL):
		return MsgNoForecastURL
	case errors.Is(err, ErrNoForecast):
		return MsgNoForecast
	case errors.Is(err, ErrNoPeriods):
		return MsgNoPeriods
	default:
		return MsgUnknown
	}
}
