package webhook

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/example/plotsync/internal/ports/secondary"
)

// messageSchema is the part of a message object the engine depends on.
const messageSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["id", "channel_id"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "channel_id": {"type": "string", "minLength": 1},
    "flags": {"type": "integer"},
    "components": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["type"],
        "properties": {
          "type": {"type": "integer"},
          "id": {"type": "integer", "minimum": 0, "maximum": 4294967295}
        }
      }
    },
    "attachments": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id"],
        "properties": {"id": {"type": "string"}, "filename": {"type": "string"}}
      }
    }
  }
}`

var compiledMessageSchema = jsonschema.MustCompileString("message.schema.json", messageSchema)

type messageRef struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
}

// decodeMessage validates a message response and extracts its identifiers.
// Any response missing them is a decode failure.
func decodeMessage(body []byte) (*messageRef, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", secondary.ErrDecode, err)
	}
	if err := compiledMessageSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", secondary.ErrDecode, err)
	}
	var ref messageRef
	if err := json.Unmarshal(body, &ref); err != nil {
		return nil, fmt.Errorf("%w: %v", secondary.ErrDecode, err)
	}
	return &ref, nil
}
