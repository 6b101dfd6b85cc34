package jbosscli

import (
	"encoding/json"
	"strings"
)

// FailureKind classifies why a command did not succeed.
type FailureKind string

const (
	FailureNone     FailureKind = ""
	FailureExit     FailureKind = "exit"
	FailureSpawn    FailureKind = "spawn"
	FailureTimeout  FailureKind = "timeout"
	FailureCanceled FailureKind = "canceled"
)

// Result is the outcome of one CLI invocation.
//
// On success Output holds the decoded JSON document (map[string]any, []any,
// ...) or, when stdout was not JSON, the trimmed text as a string. On
// failure Err carries the error payload (stderr or the failure text) and
// Output may still hold a decoded document when the tool printed one.
type Result struct {
	OK     bool
	Output any
	Raw    string
	Err    string
	Kind   FailureKind
}

// Object returns Output as a JSON object, if it is one.
func (r Result) Object() (map[string]any, bool) {
	m, ok := r.Output.(map[string]any)
	return m, ok
}

// Text returns Output as plain text, if it is text.
func (r Result) Text() (string, bool) {
	s, ok := r.Output.(string)
	return s, ok
}

// Outcome returns the management model "outcome" field, if any.
func (r Result) Outcome() string {
	obj, ok := r.Object()
	if !ok {
		return ""
	}
	s, _ := obj["outcome"].(string)
	return s
}

// Message is a human-readable summary used as an offline status message.
func (r Result) Message() string {
	if r.Err != "" {
		return r.Err
	}
	if r.Raw != "" {
		return r.Raw
	}
	return string(r.Kind)
}

// parseOutput decodes stdout as JSON, falling back to trimmed text.
func parseOutput(stdout string) any {
	trimmed := strings.TrimSpace(stdout)
	var doc any
	if err := json.Unmarshal([]byte(trimmed), &doc); err == nil {
		return doc
	}
	return trimmed
}

// Success builds a successful result from raw stdout.
func Success(stdout string) Result {
	return Result{OK: true, Output: parseOutput(stdout), Raw: strings.TrimSpace(stdout)}
}

// Failure builds a failed result.
func Failure(kind FailureKind, payload string) Result {
	payload = strings.TrimSpace(payload)
	return Result{OK: false, Output: parseOutput(payload), Raw: payload, Err: payload, Kind: kind}
}

// outcomeLabel maps a result to a metric label.
func outcomeLabel(r Result) string {
	if r.OK {
		return "success"
	}
	if r.Kind == FailureNone {
		return "failure"
	}
	return string(r.Kind)
}
