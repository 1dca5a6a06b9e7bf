// Package iojson reads scenario files and writes command output as JSON.
package iojson

import (
	"encoding/json"
	"fmt"
	"io"
)

// Error is the standard error format type that is returned when errors
// happen.
type Error struct {
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
}

func jsonError(msg string, jsonErr error) string {
	// Use json.Marshal to properly escape strings
	msgBytes, _ := json.Marshal(msg)
	errBytes, _ := json.Marshal(jsonErr.Error())
	return fmt.Sprintf(`{"message":%s,"data":{"json_error":%s}}`, msgBytes, errBytes)
}

// MarshalError renders msg and data as an Error. When data cannot be
// marshaled the result still carries msg, with the marshal failure under
// data.json_error.
func MarshalError(msg string, data map[string]any) string {
	resp := Error{Message: msg, Data: data}

	bits, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return jsonError(msg, err)
	}

	return string(bits)
}

// WriteError writes msg and data to w as an Error.
func WriteError(w io.Writer, msg string, data map[string]any) error {
	_, err := fmt.Fprintln(w, MarshalError(msg, data))
	return err
}

// WriteWith writes obj to w as indented JSON. Marshal failures are reported
// on ew.
func WriteWith(w io.Writer, ew io.Writer, obj any) error {
	bits, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		errStr := jsonError("error marshaling in iojson.Write", err)
		_, err = fmt.Fprintln(ew, errStr)
		return err
	}

	_, err = fmt.Fprintln(w, string(bits))
	return err
}
