// Package models defines the catalog records read from the portal and the
// rows and documents derived from them.
package models

import (
	"bytes"
	"encoding/json"
)

// NoneText is how an absent catalog value is rendered. It matches the
// portal schema's own convention for "no value".
const NoneText = "None"

// Text is a catalog field that may be absent, null, or carry a non-string
// JSON value. Non-string values keep their raw JSON text.
type Text struct {
	Value string
	Valid bool
}

// NewText returns a present Text.
func NewText(s string) Text {
	return Text{Value: s, Valid: true}
}

// String returns the value, or NoneText if absent.
func (t Text) String() string {
	if !t.Valid {
		return NoneText
	}

	return t.Value
}

// Empty reports whether the field is absent or the empty string.
func (t Text) Empty() bool {
	return !t.Valid || t.Value == ""
}

// Or returns the value, or fallback if the field is empty.
func (t Text) Or(fallback string) string {
	if t.Empty() {
		return fallback
	}

	return t.Value
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*t = Text{}

		return nil
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}

		*t = NewText(s)

		return nil
	}

	*t = NewText(string(trimmed))

	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Text) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return []byte("null"), nil
	}

	return json.Marshal(t.Value)
}

// Tag is a dataset keyword object. The catalog occasionally ships bare
// strings instead of objects; both decode.
type Tag struct {
	Name        Text `json:"name"`
	DisplayName Text `json:"display_name"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Tag) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var name Text
		if err := name.UnmarshalJSON(trimmed); err != nil {
			return err
		}

		*t = Tag{Name: name}

		return nil
	}

	type plain Tag

	var p plain
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return err
	}

	*t = Tag(p)

	return nil
}

// Tags decodes leniently: anything other than a JSON array yields no tags.
type Tags []Tag

// UnmarshalJSON implements json.Unmarshaler.
func (ts *Tags) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		*ts = nil

		// Malformed tag lists degrade to empty.
		return nil
	}

	out := make(Tags, 0, len(raw))

	for _, item := range raw {
		var tag Tag
		if err := tag.UnmarshalJSON(item); err != nil {
			continue
		}

		out = append(out, tag)
	}

	*ts = out

	return nil
}

// Group is a dataset group; its display name feeds the keyword string.
type Group struct {
	Name        Text `json:"name"`
	DisplayName Text `json:"display_name"`
	Description Text `json:"description"`
}

// Groups decodes leniently, like Tags.
type Groups []Group

// UnmarshalJSON implements json.Unmarshaler.
func (gs *Groups) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		*gs = nil

		return nil
	}

	out := make(Groups, 0, len(raw))

	for _, item := range raw {
		var g Group
		if err := json.Unmarshal(item, &g); err != nil {
			continue
		}

		out = append(out, g)
	}

	*gs = out

	return nil
}

// Resource is one downloadable distribution of a dataset.
type Resource struct {
	ID           Text `json:"id"`
	Name         Text `json:"name"`
	Filename     Text `json:"filename"`
	Format       Text `json:"format"`
	URL          Text `json:"url"`
	PackageID    Text `json:"package_id"`
	ResourceType Text `json:"resource_type"`
	Description  Text `json:"description"`
}

// Field returns a resource field by its catalog name.
func (r *Resource) Field(name string) Text {
	switch name {
	case "id":
		return r.ID
	case "name":
		return r.Name
	case "filename":
		return r.Filename
	case "format":
		return r.Format
	case "url":
		return r.URL
	case "package_id":
		return r.PackageID
	case "resource_type":
		return r.ResourceType
	case "description":
		return r.Description
	}

	return Text{}
}

// Dataset is one published catalog package. It is snapshot input and is
// never mutated by the pipeline.
type Dataset struct {
	ID               Text       `json:"id"`
	Name             Text       `json:"name"`
	Title            Text       `json:"title"`
	Notes            Text       `json:"notes"`
	Author           Text       `json:"author"`
	Maintainer       Text       `json:"maintainer"`
	MaintainerEmail  Text       `json:"maintainer_email"`
	MetadataCreated  Text       `json:"metadata_created"`
	MetadataModified Text       `json:"metadata_modified"`
	Tags             Tags       `json:"tags"`
	Groups           Groups     `json:"groups"`
	Resources        []Resource `json:"resources"`

	// Extras holds every other top-level field, e.g. portal-specific remarks.
	Extras map[string]Text `json:"-"`
}

var datasetFields = map[string]bool{
	"id": true, "name": true, "title": true, "notes": true, "author": true,
	"maintainer": true, "maintainer_email": true, "metadata_created": true,
	"metadata_modified": true, "tags": true, "groups": true, "resources": true,
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Dataset) UnmarshalJSON(data []byte) error {
	type plain Dataset

	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	p.Extras = make(map[string]Text, len(raw))

	for key, value := range raw {
		if datasetFields[key] {
			continue
		}

		var t Text
		if err := t.UnmarshalJSON(value); err != nil {
			continue
		}

		p.Extras[key] = t
	}

	*d = Dataset(p)

	return nil
}

// MarshalJSON implements json.Marshaler, flattening Extras back to the top level.
func (d Dataset) MarshalJSON() ([]byte, error) {
	type plain Dataset

	base, err := json.Marshal(plain(d))
	if err != nil || len(d.Extras) == 0 {
		return base, err
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}

	for key, value := range d.Extras {
		if _, exists := merged[key]; exists {
			continue
		}

		encoded, err := value.MarshalJSON()
		if err != nil {
			return nil, err
		}

		merged[key] = encoded
	}

	return json.Marshal(merged)
}

// Field returns a dataset field by its catalog name, falling back to Extras.
func (d *Dataset) Field(name string) Text {
	switch name {
	case "id":
		return d.ID
	case "name":
		return d.Name
	case "title":
		return d.Title
	case "notes":
		return d.Notes
	case "author":
		return d.Author
	case "maintainer":
		return d.Maintainer
	case "maintainer_email":
		return d.MaintainerEmail
	case "metadata_created":
		return d.MetadataCreated
	case "metadata_modified":
		return d.MetadataModified
	}

	return d.Extras[name]
}
