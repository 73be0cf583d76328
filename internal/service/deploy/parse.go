package deploy

import (
	"strconv"

	"querydesk/internal/domain"
)

// The remote API is loosely typed and internally inconsistent: collections
// and fields appear under either of two names or casings, and numbers
// arrive as strings. Parsing here is total — a shape deviation yields a
// skip, never a panic or an error.

// automationSummary is one discovery-page item that yielded both a string
// id and a string name.
type automationSummary struct {
	ID         string
	Name       string
	StatusCode int
}

// pick returns the first present field among the given names.
func pick(doc map[string]interface{}, names ...string) (interface{}, bool) {
	for _, name := range names {
		if v, ok := doc[name]; ok {
			return v, true
		}
	}
	return nil, false
}

func asString(v interface{}) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// asInt coerces a JSON value to int, accepting numbers and numeric strings.
func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	case string:
		parsed, err := strconv.Atoi(n)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// parseAutomationPage extracts the item collection and the reported total
// from one discovery page. Items missing a string id or name are skipped.
func parseAutomationPage(doc domain.RawDocument) (items []automationSummary, total int) {
	if t, ok := pick(doc, "count", "totalCount"); ok {
		if n, ok := asInt(t); ok {
			total = n
		}
	}

	raw, ok := pick(doc, "items", "entry")
	if !ok {
		return nil, total
	}
	list, ok := raw.([]interface{})
	if !ok {
		return nil, total
	}

	for _, entry := range list {
		item, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		summary, ok := parseAutomationSummary(item)
		if !ok {
			continue
		}
		items = append(items, summary)
	}
	return items, total
}

func parseAutomationSummary(item map[string]interface{}) (automationSummary, bool) {
	idRaw, ok := pick(item, "id", "Id")
	if !ok {
		return automationSummary{}, false
	}
	id, ok := asString(idRaw)
	if !ok || id == "" {
		return automationSummary{}, false
	}

	nameRaw, ok := pick(item, "name", "Name")
	if !ok {
		return automationSummary{}, false
	}
	name, ok := asString(nameRaw)
	if !ok || name == "" {
		return automationSummary{}, false
	}

	status := statusUnset
	if raw, ok := pick(item, "status", "Status"); ok {
		if code, ok := asInt(raw); ok {
			status = code
		}
	}

	return automationSummary{ID: id, Name: name, StatusCode: status}, true
}

// parseAutomationDetail extracts the step/activity tree from a detail
// response. Malformed steps or activities are skipped individually.
func parseAutomationDetail(id string, doc domain.RawDocument) *domain.RemoteAutomation {
	auto := &domain.RemoteAutomation{ID: id, StatusCode: statusUnset}

	if raw, ok := pick(doc, "name", "Name"); ok {
		if name, ok := asString(raw); ok {
			auto.Name = name
		}
	}
	if raw, ok := pick(doc, "status", "Status"); ok {
		if code, ok := asInt(raw); ok {
			auto.StatusCode = code
		}
	}

	stepsRaw, ok := pick(doc, "steps", "Steps")
	if !ok {
		return auto
	}
	steps, ok := stepsRaw.([]interface{})
	if !ok {
		return auto
	}

	for _, stepEntry := range steps {
		stepDoc, ok := stepEntry.(map[string]interface{})
		if !ok {
			continue
		}
		step := domain.AutomationStep{}

		activitiesRaw, ok := pick(stepDoc, "activities", "Activities")
		if !ok {
			auto.Steps = append(auto.Steps, step)
			continue
		}
		activities, ok := activitiesRaw.([]interface{})
		if !ok {
			auto.Steps = append(auto.Steps, step)
			continue
		}

		for _, actEntry := range activities {
			actDoc, ok := actEntry.(map[string]interface{})
			if !ok {
				continue
			}
			activity := domain.AutomationActivity{}
			if raw, ok := pick(actDoc, "objectTypeId", "ObjectTypeId"); ok {
				if kind, ok := asInt(raw); ok {
					activity.ObjectTypeKindID = kind
				}
			}
			if raw, ok := pick(actDoc, "activityObjectId", "ActivityObjectId"); ok {
				if ref, ok := asString(raw); ok {
					activity.ReferencedObjectID = ref
				}
			}
			step.Activities = append(step.Activities, activity)
		}
		auto.Steps = append(auto.Steps, step)
	}
	return auto
}

// parseRemoteQueryText extracts the live SQL text from a remote query
// detail response. Absent or malformed text reads as empty.
func parseRemoteQueryText(doc domain.RawDocument) string {
	raw, ok := pick(doc, "queryText", "QueryText")
	if !ok {
		return ""
	}
	text, ok := asString(raw)
	if !ok {
		return ""
	}
	return text
}
