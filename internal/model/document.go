// Package model holds the documents persisted by the stores and returned by
// the public API. Field names and JSON keys follow the legacy Mongo schemas
// (English names, `_id`, camelCase timestamps) so existing clients keep working.
package model

import (
	"strings"
	"time"
)

// Meta carries the store-assigned identity and timestamps shared by every
// document. ID never changes once assigned.
type Meta struct {
	ID        string    `json:"_id" bson:"_id"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Base exposes the embedded Meta so generic code can stamp ids and times.
func (m *Meta) Base() *Meta { return m }

// Document is implemented by *Post, *Education and *Experience.
type Document interface {
	Base() *Meta
	// Normalize trims input and fills defaults before validation.
	Normalize()
	// Validate reports every violated rule, not just the first one.
	Validate() []FieldError
}

// FieldError names one violated field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func required(errs []FieldError, field, value string) []FieldError {
	if strings.TrimSpace(value) == "" {
		errs = append(errs, FieldError{Field: field, Message: field + " is required"})
	}
	return errs
}
