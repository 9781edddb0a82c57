package weather

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
)

const notAvailable = "N/A"

type pointsDocument struct {
	Properties struct {
		Forecast any `json:"forecast"`
	} `json:"properties"`
}

type forecastDocument struct {
	Properties struct {
		Periods []json.RawMessage `json:"periods"`
	} `json:"properties"`
}

// forecastPeriod holds the raw fields of one period. Fields are rendered one
// by one so a missing or off-type value only replaces itself.
type forecastPeriod map[string]any

func parsePeriod(raw json.RawMessage) forecastPeriod {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var p forecastPeriod
	if err := dec.Decode(&p); err != nil {
		return forecastPeriod{}
	}
	return p
}

// field renders a scalar value. Absent, null, object and array values yield
// def.
func (p forecastPeriod) field(key, def string) string {
	switch v := p[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return def
	}
}

func (p forecastPeriod) format() string {
	return fmt.Sprintf("%s:\nTemperature: %s°%s\nWind: %s %s\nForecast: %s",
		p.field("name", unknownField),
		p.field("temperature", notAvailable),
		p.field("temperatureUnit", ""),
		p.field("windSpeed", notAvailable),
		p.field("windDirection", notAvailable),
		p.field("detailedForecast", notAvailable),
	)
}

// fetchDocument fetches url and decodes it into dest. An empty body document
// (null or {}) counts as no data.
func (s *Service) fetchDocument(ctx context.Context, url string, dest any) error {
	var raw json.RawMessage
	if err := s.client.Fetch(ctx, url, &raw); err != nil {
		return err
	}

	var probe any
	if err := json.Unmarshal(raw, &probe); err != nil {
		return errors.Mark(errors.Wrap(err, "decode document"), ErrNoData)
	}
	if m, ok := probe.(map[string]any); probe == nil || (ok && len(m) == 0) {
		return errors.Mark(errors.Newf("empty document from %s", url), ErrNoData)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return errors.Mark(errors.Wrap(err, "decode document"), ErrNoData)
	}
	return nil
}

// Forecast resolves the forecast grid for the coordinates, fetches the
// forecast document and renders at most maxPeriods periods in upstream
// order. Each failed stage has its own error kind.
func (s *Service) Forecast(ctx context.Context, latitude, longitude float64) (string, error) {
	logger.ContextKV(ctx, xlog.DEBUG, "tool", "get_forecast", "lat", latitude, "lon", longitude)

	pointsURL := fmt.Sprintf("%s/points/%s,%s", s.baseURL, formatCoord(latitude), formatCoord(longitude))

	var points pointsDocument
	if err := s.fetchDocument(ctx, pointsURL, &points); err != nil {
		return "", errors.Mark(errors.Wrapf(err, "grid for (%v, %v)", latitude, longitude), ErrNoGrid)
	}

	forecastURL, _ := points.Properties.Forecast.(string)
	if forecastURL == "" {
		return "", errors.Wrapf(ErrNoForecastURL, "coordinates (%v, %v)", latitude, longitude)
	}

	var forecast forecastDocument
	if err := s.fetchDocument(ctx, forecastURL, &forecast); err != nil {
		return "", errors.Mark(errors.Wrapf(err, "forecast %s", forecastURL), ErrNoForecast)
	}

	periods := forecast.Properties.Periods
	if len(periods) == 0 {
		return "", errors.Wrapf(ErrNoPeriods, "forecast %s", forecastURL)
	}
	if len(periods) > s.maxPeriods {
		periods = periods[:s.maxPeriods]
	}

	blocks := make([]string, 0, len(periods))
	for _, raw := range periods {
		blocks = append(blocks, parsePeriod(raw).format())
	}

	return strings.Join(blocks, Separator), nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
