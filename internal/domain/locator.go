package domain

import "strings"

// Point is a WGS-84 latitude/longitude pair.
type Point struct {
	Lat float64
	Lon float64
}

// CentroidEntry is one row of a centroid lookup table.
type CentroidEntry struct {
	Country Country
	Key     string // postcode or administrative code
	Point   Point
}

// Locator resolves a postcode or administrative code of a country to the
// centroid of that area.
type Locator interface {
	Locate(country Country, key string) (Point, bool)
}

// CentroidIndex is an in-memory Locator built from a centroid table.
type CentroidIndex struct {
	points map[lookupKey]Point
}

// NewCentroidIndex indexes entries by country and key. Keys are trimmed; when
// a key appears more than once the last occurrence wins.
func NewCentroidIndex(entries []CentroidEntry) *CentroidIndex {
	idx := &CentroidIndex{points: make(map[lookupKey]Point, len(entries))}
	for _, e := range entries {
		key := strings.TrimSpace(e.Key)
		if key == "" {
			continue
		}
		idx.points[lookupKey{e.Country, key}] = e.Point
	}
	return idx
}

// Locate implements Locator.
func (c *CentroidIndex) Locate(country Country, key string) (Point, bool) {
	if c == nil {
		return Point{}, false
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return Point{}, false
	}
	p, ok := c.points[lookupKey{country, key}]
	return p, ok
}

// Len returns the number of distinct keys.
func (c *CentroidIndex) Len() int {
	if c == nil {
		return 0
	}
	return len(c.points)
}
