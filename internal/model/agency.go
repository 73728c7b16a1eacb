package model

import (
	"database/sql"
	"time"
)

// Agency represents a listed agency record as stored.
type Agency struct {
	ID        string
	Name      string
	URL       string
	Founded   sql.NullInt64
	LogoURL   sql.NullString
	LogoID    sql.NullString
	SizeID    sql.NullString
	Slug      string
	Visible   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Size is a lookup category describing an agency's scale.
type Size struct {
	ID    string
	Label string
	Slug  string
}

// Tag is a lookup label attachable to many agencies.
type Tag struct {
	ID   string
	Name string
	Slug string
}

// AgencyTag links an agency to a tag (many-to-many).
type AgencyTag struct {
	AgencyID string
	TagID    string
}

// AgencyView is the nested shape consumed by the listing and form pages:
// the agency row joined to its optional size and its tags, tags ordered
// by name.
type AgencyView struct {
	Agency
	Size *Size
	Tags []Tag
}

// TagIDs returns the ids of the view's tags in display order.
func (v *AgencyView) TagIDs() []string {
	ids := make([]string, len(v.Tags))
	for i, t := range v.Tags {
		ids[i] = t.ID
	}
	return ids
}

// HasTag reports whether the view carries the given tag id. Used by the
// edit form to pre-check tag boxes.
func (v *AgencyView) HasTag(id string) bool {
	for _, t := range v.Tags {
		if t.ID == id {
			return true
		}
	}
	return false
}

// AgencyInput carries the mutable fields of an agency as submitted by the
// admin forms. TagIDs is the complete set of tag associations; writes
// replace the stored set with it.
type AgencyInput struct {
	Name    string
	URL     string
	Founded sql.NullInt64
	LogoURL sql.NullString
	SizeID  sql.NullString
	TagIDs  []string
}
