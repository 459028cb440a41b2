package intent

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/teemow/execassist/internal/meeting"
)

// fieldAliases maps alternative key names models tend to produce onto the
// canonical field names.
var fieldAliases = map[string]string{
	"duration":         "duration_minutes",
	"duration_mins":    "duration_minutes",
	"preferred_times":  "preferred_time_hints",
	"preferred_time":   "preferred_time_hints",
	"agenda":           "agenda_items",
	"type":             "meeting_type",
	"is_meeting":       "is_meeting_request",
	"meeting_request":  "is_meeting_request",
	"meeting_subject":  "subject",
	"meeting_location": "location",
}

var meetingTypeAliases = map[string]meeting.MeetingType{
	"in_person":  meeting.TypeInPerson,
	"inperson":   meeting.TypeInPerson,
	"onsite":     meeting.TypeInPerson,
	"on_site":    meeting.TypeInPerson,
	"virtual":    meeting.TypeVirtual,
	"video":      meeting.TypeVirtual,
	"video_call": meeting.TypeVirtual,
	"online":     meeting.TypeVirtual,
	"phone":      meeting.TypePhone,
	"phone_call": meeting.TypePhone,
	"call":       meeting.TypePhone,
}

// normalize rewrites a decoded model object in place so it can be checked
// against the intent schema: canonical keys, lower-case enums, integer
// durations, string lists, and no null values.
func normalize(obj map[string]interface{}) {
	for alias, canonical := range fieldAliases {
		if v, ok := obj[alias]; ok {
			if _, exists := obj[canonical]; !exists {
				obj[canonical] = v
			}
			delete(obj, alias)
		}
	}

	for k, v := range obj {
		if v == nil {
			delete(obj, k)
		}
	}

	if v, ok := obj["is_meeting_request"].(string); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			obj["is_meeting_request"] = b
		}
	}

	if v, ok := obj["duration_minutes"]; ok {
		if d, ok := coerceMinutes(v); ok {
			obj["duration_minutes"] = d
		}
	}

	if v, ok := obj["urgency"].(string); ok {
		if u := strings.ToLower(strings.TrimSpace(v)); u == "" {
			delete(obj, "urgency")
		} else {
			obj["urgency"] = u
		}
	}

	if v, ok := obj["meeting_type"].(string); ok {
		key := enumKey(v)
		if mt, known := meetingTypeAliases[key]; known {
			obj["meeting_type"] = string(mt)
		} else {
			// Unrecognised meeting types are treated as unspecified.
			delete(obj, "meeting_type")
		}
	}

	for _, k := range []string{"preferred_time_hints", "agenda_items", "attendees"} {
		if v, ok := obj[k]; ok {
			obj[k] = stringList(v)
		}
	}
}

// applyDefaults fills the documented defaults for missing fields.
func applyDefaults(obj map[string]interface{}) {
	if _, ok := obj["duration_minutes"]; !ok {
		obj["duration_minutes"] = float64(meeting.DefaultDurationMinutes)
	}
	if _, ok := obj["urgency"]; !ok {
		obj["urgency"] = string(meeting.UrgencyMedium)
	}
}

func enumKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsSpace(r) {
			return '_'
		}
		return r
	}, s)
}

// coerceMinutes accepts numbers and strings such as "45" or "45 minutes".
// Values are returned as float64 so they pass through the schema like any
// other decoded JSON number.
func coerceMinutes(v interface{}) (float64, bool) {
	switch d := v.(type) {
	case float64:
		return math.Round(d), true
	case string:
		fields := strings.Fields(d)
		if len(fields) == 0 {
			return 0, false
		}
		n, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return 0, false
		}
		if len(fields) > 1 && strings.HasPrefix(strings.ToLower(fields[1]), "hour") {
			n *= 60
		}
		return math.Round(n), true
	default:
		return 0, false
	}
}

// stringList turns a single string into a one element list and drops
// non-string items from lists.
func stringList(v interface{}) interface{} {
	switch l := v.(type) {
	case string:
		if strings.TrimSpace(l) == "" {
			return []interface{}{}
		}
		return []interface{}{l}
	case []interface{}:
		out := make([]interface{}, 0, len(l))
		for _, item := range l {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return v
	}
}
