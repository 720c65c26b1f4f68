/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package validity evaluates the validity conditions attached to a data object.
//
// Conditions are evaluated in order and evaluation stops at the first violated one. Condition types this
// package does not know are ignored so that newer producers do not invalidate objects for older verifiers.
package validity

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
)

const (
	// TypeExpiration is violated once the evaluation time is after parameters.date.
	TypeExpiration = "expiration"
	// TypeVersion is violated when content.version sorts before parameters.min_version.
	TypeVersion = "version"

	defaultContentVersion = "0"
)

// dateLayouts accepted for expiration dates. Dates without a zone are UTC.
var dateLayouts = []string{ //nolint:gochecknoglobals
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// Condition is a single validity condition.
type Condition struct {
	Type        string                 `json:"type"`
	Parameters  map[string]interface{} `json:"parameters"`
	Description string                 `json:"description"`
}

// Expiration returns a condition that expires at date.
func Expiration(date time.Time, description string) Condition {
	return Condition{
		Type:        TypeExpiration,
		Parameters:  map[string]interface{}{"date": date.UTC().Format(time.RFC3339Nano)},
		Description: description,
	}
}

// MinVersion returns a condition requiring content.version to be at least minVersion.
func MinVersion(minVersion, description string) Condition {
	return Condition{
		Type:        TypeVersion,
		Parameters:  map[string]interface{}{"min_version": minVersion},
		Description: description,
	}
}

// Subject is evaluated against its conditions.
type Subject interface {
	Active() bool
	Content() map[string]interface{}
	ValidityConditions() []Condition
}

// Violation describes why a subject is not valid. Condition is nil when the subject is not active.
type Violation struct {
	Condition *Condition
	Reason    string
}

func (v *Violation) Error() string {
	if v.Condition == nil {
		return v.Reason
	}

	if v.Condition.Description != "" {
		return fmt.Sprintf("%s condition violated (%s): %s", v.Condition.Type, v.Condition.Description, v.Reason)
	}

	return fmt.Sprintf("%s condition violated: %s", v.Condition.Type, v.Reason)
}

// IsValid reports whether s is active and satisfies all of its conditions at now.
func IsValid(s Subject, now time.Time) bool {
	return Evaluate(s, now) == nil
}

// Evaluate returns the first violation of s at now, or nil.
func Evaluate(s Subject, now time.Time) *Violation {
	if !s.Active() {
		return &Violation{Reason: "data object is not active"}
	}

	for _, c := range s.ValidityConditions() {
		var reason string

		switch c.Type {
		case TypeExpiration:
			reason = checkExpiration(c, now)
		case TypeVersion:
			reason = checkVersion(c, s.Content())
		default:
			continue
		}

		if reason != "" {
			cond := c

			return &Violation{Condition: &cond, Reason: reason}
		}
	}

	return nil
}

type expirationParameters struct {
	Date string `json:"date"`
}

type versionParameters struct {
	MinVersion *string `json:"min_version"`
}

// checkExpiration is inclusive: the condition still holds at exactly the expiration date.
// A date that cannot be read is a violation.
func checkExpiration(c Condition, now time.Time) string {
	var p expirationParameters

	if err := decode(c.Parameters, &p); err != nil {
		return fmt.Sprintf("invalid parameters: %s", err)
	}

	date, err := ParseDate(p.Date)
	if err != nil {
		return err.Error()
	}

	if now.After(date) {
		return fmt.Sprintf("expired at %s", date.Format(time.RFC3339))
	}

	return ""
}

// checkVersion compares versions as plain strings, so "10" sorts before "9".
func checkVersion(c Condition, content map[string]interface{}) string {
	var p versionParameters

	if err := decode(c.Parameters, &p); err != nil {
		return fmt.Sprintf("invalid parameters: %s", err)
	}

	if p.MinVersion == nil {
		return ""
	}

	version := defaultContentVersion
	if v, ok := content["version"]; ok && v != nil {
		version = fmt.Sprint(v)
	}

	if version < *p.MinVersion {
		return fmt.Sprintf("version %q is below minimum %q", version, *p.MinVersion)
	}

	return ""
}

// ParseDate reads an ISO-8601 date or timestamp.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

func decode(params map[string]interface{}, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}

	return decoder.Decode(params)
}
