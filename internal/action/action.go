// Package action resolves structured action descriptors against the
// device controller. Dispatch always returns a Result; unknown actions,
// missing parameters, and device failures are reported in-band, never as
// errors that fail the enclosing request.
package action

import (
	"encoding/json"
	"fmt"
)

// Descriptor is a request to perform one device-control effect. Action
// selects the effect; Params carries action-specific values.
type Descriptor struct {
	Action string
	Params map[string]any
}

// Result is the outcome of one dispatched action.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// UnmarshalJSON accepts both the flat form {"action":"brightness",
// "level":80} and the nested form {"action":"brightness","params":
// {"level":80}}.
func (d *Descriptor) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	action, _ := raw["action"].(string)
	if action == "" {
		return fmt.Errorf("action descriptor missing action tag")
	}
	delete(raw, "action")

	if nested, ok := raw["params"].(map[string]any); ok {
		delete(raw, "params")
		for k, v := range nested {
			raw[k] = v
		}
	}

	d.Action = action
	d.Params = raw
	return nil
}

// MarshalJSON emits the flat form.
func (d Descriptor) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Params)+1)
	for k, v := range d.Params {
		out[k] = v
	}
	out["action"] = d.Action
	return json.Marshal(out)
}

// clamp restricts a level to the 0-100 percentage domain.
func clamp(level int) int {
	if level < 0 {
		return 0
	}
	if level > 100 {
		return 100
	}
	return level
}

// intParam extracts an integer parameter. JSON numbers arrive as
// float64.
func (d Descriptor) intParam(key string) (int, bool) {
	switch v := d.Params[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}

// boolParam extracts a boolean parameter, trying the given keys in
// order.
func (d Descriptor) boolParam(keys ...string) (bool, bool) {
	for _, key := range keys {
		if v, ok := d.Params[key].(bool); ok {
			return v, true
		}
	}
	return false, false
}

// stringParam extracts a non-empty string parameter.
func (d Descriptor) stringParam(key string) (string, bool) {
	v, ok := d.Params[key].(string)
	return v, ok && v != ""
}
