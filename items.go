package zoetrope

import "github.com/google/uuid"

// Item is one picture on the ring.
//
// The engine never looks past the identifier and the optional title:
// the ID is the stable identity key for fault isolation and animation
// continuity, the title feeds the default card. Renderers may
// type-assert to richer caller-owned types for everything else.
type Item interface {
	ID() string
	Title() string
}

// BasicItem is a ready-made Item for callers who don't carry their
// own item types. The Kind tag drives the default renderer's glyph
// dispatch; Body is free-form detail text shown on near cards.
type BasicItem struct {
	UID  string
	Name string
	Kind string
	Body string
}

func (b BasicItem) ID() string { return b.UID }

func (b BasicItem) Title() string { return b.Name }

// NewBasicItem builds a BasicItem with a generated unique ID.
func NewBasicItem(name, kind string) BasicItem {
	return BasicItem{UID: uuid.NewString(), Name: name, Kind: kind}
}

// WithBody returns a copy of the item carrying detail text.
func (b BasicItem) WithBody(body string) BasicItem {
	b.Body = body
	return b
}
