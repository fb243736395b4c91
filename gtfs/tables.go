package gtfs

import (
	"strings"
)

// importTable is the rows of one static table in column order.
type importTable struct {
	name    string
	columns []string
	rows    [][]any
}

// insertSQL builds an INSERT statement; placeholder renders the n-th (1-based)
// bind parameter in the target dialect.
func (t importTable) insertSQL(placeholder func(n int) string) string {
	ph := make([]string, len(t.columns))
	for i := range ph {
		ph[i] = placeholder(i + 1)
	}
	return "INSERT INTO " + t.name + " (" + strings.Join(t.columns, ", ") + ") VALUES (" + strings.Join(ph, ", ") + ")"
}

// importTables flattens idx into insertable rows, keyed tables in id order.
func importTables(idx *Index) []importTable {
	agencies := importTable{name: "agencies", columns: []string{"agency_id", "agency_name", "agency_url", "agency_timezone"}}
	for _, id := range sortedKeys(idx.Agencies) {
		a := idx.Agencies[id]
		agencies.rows = append(agencies.rows, []any{a.ID, a.Name, a.URL, a.Timezone})
	}

	routes := importTable{name: "routes", columns: []string{
		"route_id", "agency_id", "route_short_name", "route_long_name", "route_desc",
		"route_type", "route_url", "route_color", "route_text_color",
	}}
	for _, id := range sortedKeys(idx.Routes) {
		r := idx.Routes[id]
		routes.rows = append(routes.rows, []any{r.ID, r.AgencyID, r.ShortName, r.LongName, r.Desc, r.Type, r.URL, r.Color, r.TextColor})
	}

	stops := importTable{name: "stops", columns: []string{
		"stop_id", "stop_code", "stop_name", "stop_desc", "stop_lat", "stop_lon",
		"zone_id", "stop_url", "location_type", "parent_station", "platform_code",
	}}
	for _, id := range sortedKeys(idx.Stops) {
		s := idx.Stops[id]
		stops.rows = append(stops.rows, []any{s.ID, s.Code, s.Name, s.Desc, s.Lat, s.Lon, s.ZoneID, s.URL, s.LocationType, s.ParentStation, s.PlatformCode})
	}

	trips := importTable{name: "trips", columns: []string{
		"trip_id", "route_id", "service_id", "trip_headsign", "direction_id", "block_id", "shape_id",
	}}
	for _, id := range sortedKeys(idx.Trips) {
		t := idx.Trips[id]
		trips.rows = append(trips.rows, []any{t.ID, t.RouteID, t.ServiceID, t.Headsign, t.DirectionID, t.BlockID, t.ShapeID})
	}

	calendars := importTable{name: "calendars", columns: []string{
		"service_id", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday", "start_date", "end_date",
	}}
	for _, id := range sortedKeys(idx.Calendars) {
		c := idx.Calendars[id]
		calendars.rows = append(calendars.rows, []any{
			c.ServiceID, c.Monday, c.Tuesday, c.Wednesday, c.Thursday, c.Friday, c.Saturday, c.Sunday, c.StartDate, c.EndDate,
		})
	}

	// calendar_dates is keyed on (service_id, date); later rows win
	dates := importTable{name: "calendar_dates", columns: []string{"service_id", "date", "exception_type"}}
	seen := map[[2]string]int{}
	for _, cd := range idx.CalendarDates {
		key := [2]string{cd.ServiceID, cd.Date}
		if i, ok := seen[key]; ok {
			dates.rows[i][2] = cd.ExceptionType
			continue
		}
		seen[key] = len(dates.rows)
		dates.rows = append(dates.rows, []any{cd.ServiceID, cd.Date, cd.ExceptionType})
	}

	return []importTable{agencies, routes, stops, trips, calendars, dates}
}
