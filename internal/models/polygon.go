package models

import "github.com/twpayne/go-geom"

// Polygon is a pincode boundary. Identifier is the raw text of the source id
// and Geometry is usually a *geom.Polygon or *geom.MultiPolygon, but any kind
// may appear.
type Polygon struct {
	Identifier string         `json:"pincode"`
	Geometry   geom.T         `json:"-"`
	Properties map[string]any `json:"properties,omitempty"`
}
