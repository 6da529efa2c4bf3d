// Package models defines the domain types for reportdesk.
package models

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Report is one row of the report table.
type Report struct {
	ID         string   `json:"id" yaml:"id"`
	Title      string   `json:"title" yaml:"title"`
	Date       Date     `json:"date" yaml:"date"`
	FileName   string   `json:"file_name" yaml:"file_name"`
	Topics     []string `json:"topics" yaml:"topics"`
	Categories []string `json:"categories" yaml:"categories"`
	Keywords   []string `json:"keywords" yaml:"keywords"`
}

// Validate checks the fields every loaded report must carry.
func (r Report) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, validation.Required),
		validation.Field(&r.Title, validation.Required),
		validation.Field(&r.Date, validation.By(func(any) error {
			if r.Date.IsZero() {
				return errors.New("cannot be blank")
			}
			return nil
		})),
	)
}

// Normalized returns a copy of r whose tag slices are non-nil and not
// shared with r.
func (r Report) Normalized() Report {
	r.Topics = cloneTags(r.Topics)
	r.Categories = cloneTags(r.Categories)
	r.Keywords = cloneTags(r.Keywords)
	return r
}

func cloneTags(tags []string) []string {
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}
