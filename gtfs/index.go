package gtfs

import (
	"context"
	"sort"
)

// Index stores GTFS static data in memory for fast lookups. It implements
// Store and is safe for concurrent reads once built.
type Index struct {
	Agencies      map[string]Agency
	Routes        map[string]Route
	Stops         map[string]Stop
	Trips         map[string]Trip
	Calendars     map[string]Calendar
	CalendarDates []CalendarDate
}

// NewIndex creates a new empty index
func NewIndex() *Index {
	return &Index{
		Agencies:  map[string]Agency{},
		Routes:    map[string]Route{},
		Stops:     map[string]Stop{},
		Trips:     map[string]Trip{},
		Calendars: map[string]Calendar{},
	}
}

func (g *Index) Route(_ context.Context, id string) (Route, error) {
	r, ok := g.Routes[id]
	if !ok {
		return Route{}, notFound("route", id)
	}
	return r, nil
}

func (g *Index) Stop(_ context.Context, id string) (Stop, error) {
	s, ok := g.Stops[id]
	if !ok {
		return Stop{}, notFound("stop", id)
	}
	return s, nil
}

func (g *Index) Trip(_ context.Context, id string) (Trip, error) {
	t, ok := g.Trips[id]
	if !ok {
		return Trip{}, notFound("trip", id)
	}
	return t, nil
}

// Import replaces the contents of g with idx.
func (g *Index) Import(_ context.Context, idx *Index) error {
	*g = *idx
	return nil
}

// Stats summarises the number of loaded entities.
type Stats struct {
	Agencies      int `json:"agencies"`
	Routes        int `json:"routes"`
	Stops         int `json:"stops"`
	Trips         int `json:"trips"`
	Calendars     int `json:"calendars"`
	CalendarDates int `json:"calendarDates"`
}

func (g *Index) Stats() Stats {
	return Stats{
		Agencies:      len(g.Agencies),
		Routes:        len(g.Routes),
		Stops:         len(g.Stops),
		Trips:         len(g.Trips),
		Calendars:     len(g.Calendars),
		CalendarDates: len(g.CalendarDates),
	}
}

// sortedKeys returns the keys of m in ascending order, for deterministic imports.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
