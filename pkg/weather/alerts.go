package weather

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
)

// Alert placeholders.
const (
	unknownField       = "Unknown"
	noDescription      = "No description available"
	noInstructions     = "No specific instructions provided"
	alertsPathTemplate = "%s/alerts/active/area/%s"
)

type alertCollection struct {
	// nil when the upstream document has no features field.
	Features *[]alertFeature `json:"features"`
}

type alertFeature struct {
	Properties alertProperties `json:"properties"`
}

type alertProperties struct {
	Event       *string `json:"event"`
	AreaDesc    *string `json:"areaDesc"`
	Severity    *string `json:"severity"`
	Description *string `json:"description"`
	Instruction *string `json:"instruction"`
}

// format renders the alert as five labeled lines. Each absent field gets its
// own placeholder.
func (p alertProperties) format() string {
	return fmt.Sprintf("Event: %s\nArea: %s\nSeverity: %s\nDescription: %s\nInstructions: %s",
		valueOr(p.Event, unknownField),
		valueOr(p.AreaDesc, unknownField),
		valueOr(p.Severity, unknownField),
		valueOr(p.Description, noDescription),
		valueOr(p.Instruction, noInstructions),
	)
}

// Alerts returns the active alerts for a two-letter state code. An empty
// alert list is a success and yields MsgNoActiveAlerts. A failed request or
// a document without features yields ErrAlertsUnavailable.
func (s *Service) Alerts(ctx context.Context, state string) (string, error) {
	logger.ContextKV(ctx, xlog.DEBUG, "tool", "get_alerts", "state", state)

	u := fmt.Sprintf(alertsPathTemplate, s.baseURL, url.PathEscape(state))

	var doc alertCollection
	if err := s.client.Fetch(ctx, u, &doc); err != nil {
		return "", errors.Mark(errors.Wrapf(err, "alerts for %q", state), ErrAlertsUnavailable)
	}
	if doc.Features == nil {
		return "", errors.Wrapf(ErrAlertsUnavailable, "missing features from %s", u)
	}

	features := *doc.Features
	if len(features) == 0 {
		logger.ContextKV(ctx, xlog.INFO, "status", "no_alerts", "state", state)
		return MsgNoActiveAlerts, nil
	}

	blocks := make([]string, 0, len(features))
	for _, f := range features {
		blocks = append(blocks, f.Properties.format())
	}

	return strings.Join(blocks, Separator), nil
}
