package mcp

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// UnknownField represents an unknown field that was passed but not recognized
type UnknownField struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// CheckParams are the arguments of check_disposal
type CheckParams struct {
	Paths       []string `json:"paths,omitempty"`
	MinSeverity string   `json:"min_severity,omitempty"`
	Format      string   `json:"format,omitempty"`

	Warnings []UnknownField `json:"-"`
}

// UnmarshalJSON accepts a single "path" as well as "paths" and records
// unknown fields as warnings instead of failing
func (p *CheckParams) UnmarshalJSON(data []byte) error {
	type alias CheckParams
	raw, warnings, err := collectUnknownFields(data, "paths", "path", "min_severity", "format")
	if err != nil {
		return err
	}
	if path, ok := raw["path"]; ok {
		var single string
		if err := json.Unmarshal(path, &single); err != nil {
			return fmt.Errorf("path: %w", err)
		}
		delete(raw, "path")
		if _, both := raw["paths"]; !both && single != "" {
			raw["paths"], _ = json.Marshal([]string{single})
		}
	}
	normalized, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(normalized, (*alias)(p)); err != nil {
		return err
	}
	p.Warnings = warnings
	return nil
}

// AssignedValuesParams are the arguments of assigned_values
type AssignedValuesParams struct {
	Symbol string `json:"symbol"`
	At     string `json:"at,omitempty"`

	Warnings []UnknownField `json:"-"`
}

func (p *AssignedValuesParams) UnmarshalJSON(data []byte) error {
	type alias AssignedValuesParams
	_, warnings, err := collectUnknownFields(data, "symbol", "at")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, (*alias)(p)); err != nil {
		return err
	}
	p.Warnings = warnings
	return nil
}

// ReturnValuesParams are the arguments of return_values
type ReturnValuesParams struct {
	Method string `json:"method"`

	Warnings []UnknownField `json:"-"`
}

func (p *ReturnValuesParams) UnmarshalJSON(data []byte) error {
	type alias ReturnValuesParams
	_, warnings, err := collectUnknownFields(data, "method")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, (*alias)(p)); err != nil {
		return err
	}
	p.Warnings = warnings
	return nil
}

// collectUnknownFields parses raw JSON into a map and lists the fields that
// are not in known. Empty input is an empty object.
func collectUnknownFields(data []byte, known ...string) (map[string]json.RawMessage, []UnknownField, error) {
	raw := map[string]json.RawMessage{}
	if len(strings.TrimSpace(string(data))) > 0 && string(data) != "null" {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, nil, err
		}
	}

	var warnings []UnknownField
	for key, value := range raw {
		if slices.Contains(known, key) {
			continue
		}
		var decoded any
		if err := json.Unmarshal(value, &decoded); err != nil {
			decoded = string(value)
		}
		warnings = append(warnings, UnknownField{Name: key, Value: decoded})
	}
	slices.SortFunc(warnings, func(a, b UnknownField) int { return strings.Compare(a.Name, b.Name) })
	return raw, warnings, nil
}

func warningMessages(fields []UnknownField) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, fmt.Sprintf("unknown parameter %q ignored", f.Name))
	}
	return out
}
