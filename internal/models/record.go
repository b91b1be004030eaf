package models

// Record is one row of the location sheet. Identifier holds the raw pincode
// cell as read (nil when blank); Attributes holds every column of the row.
type Record struct {
	Row        int               `json:"row"`
	Identifier any               `json:"identifier"`
	Attributes map[string]string `json:"attributes"`
}

// MatchedRecord is a Record joined to a boundary polygon, placed at the
// centroid of that polygon.
type MatchedRecord struct {
	Record
	Pincode   string  `json:"pincode"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
