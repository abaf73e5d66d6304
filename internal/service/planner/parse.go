package planner

import (
	"encoding/json"
	"regexp"
	"strings"

	"querypilot/internal/domain"
	"querypilot/internal/sqlguard"
)

var langTag = regexp.MustCompile(`(?i)^\s*(json|sql)\s*`)

// StripCodeFences removes surrounding ``` fences and a leading json/sql
// language tag.
func StripCodeFences(text string) string {
	t := strings.TrimSpace(text)
	if strings.HasPrefix(t, "```") {
		t = strings.Trim(t, "`")
		t = langTag.ReplaceAllString(t, "")
	}
	return strings.TrimSpace(t)
}

// ParsePlan decodes a model response into a Plan. The response must be a
// JSON object carrying string "intent", "chart_type" and "sql" keys. The SQL
// is collapsed to one line and passed through the safety check, so an
// unsafe statement comes back as *domain.UnsafeSQLError.
func ParsePlan(text string) (*domain.Plan, error) {
	body := StripCodeFences(text)

	var raw map[string]any
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		obj, ok := extractObject(body)
		if !ok {
			return nil, domain.ErrPlan(err, "response is not a JSON object")
		}
		if err := json.Unmarshal([]byte(obj), &raw); err != nil {
			return nil, domain.ErrPlan(err, "response is not a JSON object")
		}
	}
	if raw == nil {
		return nil, domain.ErrPlan(nil, "response is not a JSON object")
	}

	fields := make(map[string]string, 3)
	for _, key := range []string{"intent", "chart_type", "sql"} {
		v, ok := raw[key]
		if !ok {
			return nil, domain.ErrPlan(nil, "missing key %q", key)
		}
		s, ok := v.(string)
		if !ok {
			return nil, domain.ErrPlan(nil, "key %q is not a string", key)
		}
		fields[key] = s
	}

	plan := &domain.Plan{
		Intent:    domain.IntentHistorical,
		ChartType: domain.ChartType(strings.ToLower(strings.TrimSpace(fields["chart_type"]))),
		SQL:       sqlguard.Normalize(fields["sql"]),
	}
	if strings.EqualFold(strings.TrimSpace(fields["intent"]), string(domain.IntentForecast)) {
		plan.Intent = domain.IntentForecast
	}
	if plan.SQL == "" {
		return nil, domain.ErrPlan(nil, "sql is empty")
	}
	if err := sqlguard.Check(plan.SQL); err != nil {
		return nil, err
	}
	return plan, nil
}

// extractObject returns the outermost {...} span of s.
func extractObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}
