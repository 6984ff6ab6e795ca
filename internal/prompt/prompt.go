// Package prompt renders sectioned model prompts and describes reply schemas
// from the json and prompt_* tags of Go types.
package prompt

import (
	"bytes"
	"fmt"
	"strings"
)

// NotSet replaces missing optional inputs so the rendered prompt never has
// an ambiguous empty slot.
const NotSet = "(not set)"

// Entry is one labelled input value.
type Entry struct {
	Key   string
	Value string
}

// Section is a titled block of caller input.
type Section struct {
	Title string
	Body  string
}

// Spec defines the sections for a structured prompt.
type Spec struct {
	Purpose    string
	Background string
	Inputs     []Section
	Rules      []string
	Schema     Schema
	Language   string
}

// Render produces the prompt text. It is pure: the same Spec always yields
// byte-identical output.
func Render(spec Spec) (string, error) {
	if strings.TrimSpace(spec.Purpose) == "" {
		return "", fmt.Errorf("prompt: purpose is empty")
	}
	if len(spec.Schema.Fields) == 0 {
		return "", fmt.Errorf("prompt: output fields are empty")
	}

	var buf bytes.Buffer
	writeSection(&buf, "PURPOSE", spec.Purpose)
	writeSection(&buf, "BACKGROUND", spec.Background)
	for _, in := range spec.Inputs {
		body := in.Body
		if strings.TrimSpace(body) == "" {
			body = NotSet
		}
		writeSection(&buf, strings.ToUpper(strings.TrimSpace(in.Title)), body)
	}
	writeSection(&buf, "RULES", formatList(spec.Rules))
	writeSection(&buf, "LANGUAGE", spec.Language)
	writeSection(&buf, "OUTPUT", formatFields(spec.Schema.Fields))
	writeSection(&buf, "OUTPUT_FORMAT", spec.Schema.Format)

	return strings.TrimSpace(buf.String()) + "\n", nil
}

// Value returns s trimmed, or NotSet when it is blank.
func Value(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return NotSet
	}
	return s
}

// FormatEntries renders "- key: value" lines with NotSet for blank values.
func FormatEntries(entries []Entry) string {
	var buf strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&buf, "- %s: %s\n", e.Key, Value(e.Value))
	}
	return strings.TrimRight(buf.String(), "\n")
}

func formatFields(fields []Field) string {
	if len(fields) == 0 {
		return ""
	}
	var buf strings.Builder
	for _, f := range fields {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			continue
		}
		req := "optional"
		if f.Required {
			req = "required"
		}
		if f.Description != "" {
			fmt.Fprintf(&buf, "- %s (%s, %s): %s\n", name, f.Type, req, f.Description)
		} else {
			fmt.Fprintf(&buf, "- %s (%s, %s)\n", name, f.Type, req)
		}
	}
	return strings.TrimRight(buf.String(), "\n")
}

func formatList(items []string) string {
	if len(items) == 0 {
		return ""
	}
	var buf strings.Builder
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		fmt.Fprintf(&buf, "- %s\n", item)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func writeSection(buf *bytes.Buffer, title, body string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	buf.WriteString("[")
	buf.WriteString(title)
	buf.WriteString("]\n")
	buf.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		buf.WriteString("\n")
	}
	buf.WriteString("\n")
}
