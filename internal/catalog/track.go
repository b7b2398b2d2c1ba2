package catalog

import "fmt"

// Track holds the cloud metadata for a single drawable track.
type Track struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Author string `json:"author,omitempty"`
	Image  string `json:"image,omitempty"`

	// SVGContent is the encrypted path data the cloud serves; consumers
	// that render progress decrypt it themselves.
	SVGContent string `json:"svg_content,omitempty"`

	// ReducedSVGContent is the segment count used to scale progress.
	ReducedSVGContent int `json:"reduced_svg_content_new,omitempty"`
}

// Placeholder returns the synthetic record used when a track id is not
// known locally or in the cloud. Missing tracks are expected (users delete
// uploads), so this is a value, not an error.
func Placeholder(id int) Track {
	return Track{ID: id, Name: fmt.Sprintf("Unknown Title (#%d)", id)}
}

// Catalog is a read-only track table keyed by id.
//
// It is constructed once (from the Store, or from a fixed slice in tests)
// and shared by reference; lookups are safe for concurrent use.
type Catalog struct {
	tracks map[int]Track
}

// New builds a Catalog from a track slice. Later duplicates win.
func New(tracks []Track) *Catalog {
	m := make(map[int]Track, len(tracks))
	for _, t := range tracks {
		m[t.ID] = t
	}
	return &Catalog{tracks: m}
}

// Track returns the catalog entry for id.
func (c *Catalog) Track(id int) (Track, bool) {
	if c == nil {
		return Track{}, false
	}
	t, ok := c.tracks[id]
	return t, ok
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.tracks)
}
