package activity

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/issue-activity/backend/internal/models"
)

// keyField decodes the value of one JSON key into its destination.
type keyField struct {
	key    string
	decode func(raw json.RawMessage) error
}

func value[T any](key string, dst *T) keyField {
	return keyField{key: key, decode: func(raw json.RawMessage) error {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		*dst = v
		return nil
	}}
}

func present[T any](key string, dst *models.Optional[T]) keyField {
	return keyField{key: key, decode: func(raw json.RawMessage) error {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		*dst = models.Some(v)
		return nil
	}}
}

// rows accepts a list inline or JSON-encoded in a string.
func rows[T any](key string, dst *[]T) keyField {
	inline := value(key, dst)
	return keyField{key: key, decode: func(raw json.RawMessage) error {
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 || raw[0] != '"' {
			return inline.decode(raw)
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*dst = nil
			return nil
		}
		return inline.decode(json.RawMessage(s))
	}}
}

// decodeKeys decodes each listed key of a JSON object on its own. A key whose
// value does not fit keeps its zero value and is returned in skipped. Only a
// payload that is not a JSON object fails as a whole.
func decodeKeys(data []byte, fields []keyField) (skipped []string, err error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, err
	}
	for _, f := range fields {
		raw, ok := obj[f.key]
		if !ok {
			continue
		}
		if err := f.decode(raw); err != nil {
			skipped = append(skipped, f.key)
		}
	}
	return skipped, nil
}

func (s *IssueSnapshot) keys() []keyField {
	return []keyField{
		value("name", &s.Name),
		value("parent", &s.Parent),
		value("priority", &s.Priority),
		value("state", &s.State),
		value("description_html", &s.DescriptionHTML),
		value("target_date", &s.TargetDate),
		value("start_date", &s.StartDate),
		value("estimate_point", &s.EstimatePoint),
		value("labels", &s.Labels),
		value("assignees", &s.Assignees),
		value("blocked_issues", &s.BlockedIssues),
		value("blocker_issues", &s.BlockerIssues),
		rows("updated_cycle_issues", &s.UpdatedCycleIssues),
		rows("created_cycle_issues", &s.CreatedCycleIssues),
		rows("updated_module_issues", &s.UpdatedModuleIssues),
		rows("created_module_issues", &s.CreatedModuleIssues),
	}
}

func (u *IssueUpdate) keys() []keyField {
	return []keyField{
		present("name", &u.Name),
		present("parent", &u.Parent),
		present("priority", &u.Priority),
		present("state", &u.State),
		present("description_html", &u.DescriptionHTML),
		present("target_date", &u.TargetDate),
		present("start_date", &u.StartDate),
		present("estimate_point", &u.EstimatePoint),
		present("labels_list", &u.Labels),
		present("assignees_list", &u.Assignees),
		present("blocks_list", &u.Blocks),
		present("blockers_list", &u.Blockers),
		present("cycles_list", &u.Cycles),
		present("modules_list", &u.Modules),
	}
}
