package intent

import "github.com/teemow/execassist/internal/llm"

const intentSchemaSource = `{
  "type": "object",
  "required": ["is_meeting_request"],
  "properties": {
    "is_meeting_request": {"type": "boolean"},
    "subject": {"type": "string"},
    "duration_minutes": {"type": "integer", "minimum": 1, "maximum": 1440},
    "urgency": {"enum": ["high", "medium", "low"]},
    "preferred_time_hints": {"type": "array", "items": {"type": "string"}},
    "meeting_type": {"enum": ["in_person", "virtual", "phone"]},
    "agenda_items": {"type": "array", "items": {"type": "string"}},
    "attendees": {"type": "array", "items": {"type": "string"}},
    "location": {"type": "string"}
  }
}`

var intentSchema = llm.MustCompileSchema("meeting-intent", intentSchemaSource)
