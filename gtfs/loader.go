package gtfs

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// NewIndexFromZip parses the GTFS zip file at path.
func NewIndexFromZip(path string) (*Index, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open GTFS zip %s: %w", path, err)
	}
	defer zr.Close()
	return newIndexFromZipReader(&zr.Reader)
}

// NewIndexFromBytes parses GTFS zip bytes.
func NewIndexFromBytes(data []byte) (*Index, error) {
	return NewIndexFromReader(bytes.NewReader(data), int64(len(data)))
}

// NewIndexFromReader parses a GTFS zip from r.
func NewIndexFromReader(r io.ReaderAt, size int64) (*Index, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to read GTFS zip: %w", err)
	}
	return newIndexFromZipReader(zr)
}

// FetchGTFSData downloads a GTFS zip.
func FetchGTFSData(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := (&http.Client{Timeout: 5 * time.Minute}).Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch GTFS data: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}
	return io.ReadAll(resp.Body)
}

func newIndexFromZipReader(zr *zip.Reader) (*Index, error) {
	g := NewIndex()
	for _, f := range zr.File {
		// feeds are sometimes zipped with a top-level directory
		name := strings.ToLower(f.Name[strings.LastIndex(f.Name, "/")+1:])
		switch name {
		case "agency.txt", "routes.txt", "stops.txt", "trips.txt", "calendar.txt", "calendar_dates.txt":
			if err := g.consumeCSV(f, name); err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
		}
	}
	return g, nil
}

// table is a parsed CSV file with a header lookup.
type table struct {
	head []string
	rows [][]string
}

func (t table) idx(col string) int {
	for i, h := range t.head {
		if strings.EqualFold(strings.TrimSpace(h), col) {
			return i
		}
	}
	return -1
}

// get returns the trimmed value of column i in row, or "".
func get(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func getInt(row []string, i int) int {
	n, _ := strconv.Atoi(get(row, i))
	return n
}

func getFloat(row []string, i int) float64 {
	f, _ := strconv.ParseFloat(get(row, i), 64)
	return f
}

func readTable(f *zip.File) (table, error) {
	r, err := f.Open()
	if err != nil {
		return table{}, err
	}
	defer r.Close()
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1
	csvr.LazyQuotes = true
	rec, err := csvr.ReadAll()
	if err != nil {
		return table{}, err
	}
	if len(rec) == 0 {
		return table{}, nil
	}
	// strip a UTF-8 BOM from the first header
	rec[0][0] = strings.TrimPrefix(rec[0][0], "\ufeff")
	return table{head: rec[0], rows: rec[1:]}, nil
}

func (g *Index) consumeCSV(f *zip.File, name string) error {
	t, err := readTable(f)
	if err != nil {
		return err
	}
	switch name {
	case "agency.txt":
		id, n, u, tz := t.idx("agency_id"), t.idx("agency_name"), t.idx("agency_url"), t.idx("agency_timezone")
		for _, row := range t.rows {
			a := Agency{ID: get(row, id), Name: get(row, n), URL: get(row, u), Timezone: get(row, tz)}
			g.Agencies[a.ID] = a
		}
	case "routes.txt":
		id := t.idx("route_id")
		if id < 0 {
			return fmt.Errorf("missing route_id column")
		}
		ag, sn, ln, desc, typ := t.idx("agency_id"), t.idx("route_short_name"), t.idx("route_long_name"), t.idx("route_desc"), t.idx("route_type")
		u, color, text := t.idx("route_url"), t.idx("route_color"), t.idx("route_text_color")
		for _, row := range t.rows {
			r := Route{
				ID:        get(row, id),
				AgencyID:  get(row, ag),
				ShortName: get(row, sn),
				LongName:  get(row, ln),
				Desc:      get(row, desc),
				Type:      getInt(row, typ),
				URL:       get(row, u),
				Color:     get(row, color),
				TextColor: get(row, text),
			}
			g.Routes[r.ID] = r
		}
	case "stops.txt":
		id := t.idx("stop_id")
		if id < 0 {
			return fmt.Errorf("missing stop_id column")
		}
		code, n, desc, lat, lon := t.idx("stop_code"), t.idx("stop_name"), t.idx("stop_desc"), t.idx("stop_lat"), t.idx("stop_lon")
		zone, u, lt, parent, plat := t.idx("zone_id"), t.idx("stop_url"), t.idx("location_type"), t.idx("parent_station"), t.idx("platform_code")
		for _, row := range t.rows {
			s := Stop{
				ID:            get(row, id),
				Code:          get(row, code),
				Name:          get(row, n),
				Desc:          get(row, desc),
				Lat:           getFloat(row, lat),
				Lon:           getFloat(row, lon),
				ZoneID:        get(row, zone),
				URL:           get(row, u),
				LocationType:  getInt(row, lt),
				ParentStation: get(row, parent),
				PlatformCode:  get(row, plat),
			}
			g.Stops[s.ID] = s
		}
	case "trips.txt":
		id := t.idx("trip_id")
		if id < 0 {
			return fmt.Errorf("missing trip_id column")
		}
		rid, sid, hs, dir, blk, sh := t.idx("route_id"), t.idx("service_id"), t.idx("trip_headsign"), t.idx("direction_id"), t.idx("block_id"), t.idx("shape_id")
		for _, row := range t.rows {
			tr := Trip{
				ID:          get(row, id),
				RouteID:     get(row, rid),
				ServiceID:   get(row, sid),
				Headsign:    get(row, hs),
				DirectionID: getInt(row, dir),
				BlockID:     get(row, blk),
				ShapeID:     get(row, sh),
			}
			g.Trips[tr.ID] = tr
		}
	case "calendar.txt":
		sid := t.idx("service_id")
		if sid < 0 {
			return fmt.Errorf("missing service_id column")
		}
		days := [7]int{t.idx("monday"), t.idx("tuesday"), t.idx("wednesday"), t.idx("thursday"), t.idx("friday"), t.idx("saturday"), t.idx("sunday")}
		start, end := t.idx("start_date"), t.idx("end_date")
		for _, row := range t.rows {
			c := Calendar{
				ServiceID: get(row, sid),
				Monday:    get(row, days[0]) == "1",
				Tuesday:   get(row, days[1]) == "1",
				Wednesday: get(row, days[2]) == "1",
				Thursday:  get(row, days[3]) == "1",
				Friday:    get(row, days[4]) == "1",
				Saturday:  get(row, days[5]) == "1",
				Sunday:    get(row, days[6]) == "1",
				StartDate: get(row, start),
				EndDate:   get(row, end),
			}
			g.Calendars[c.ServiceID] = c
		}
	case "calendar_dates.txt":
		sid, date, ex := t.idx("service_id"), t.idx("date"), t.idx("exception_type")
		if sid < 0 || date < 0 {
			return fmt.Errorf("missing service_id or date column")
		}
		for _, row := range t.rows {
			g.CalendarDates = append(g.CalendarDates, CalendarDate{
				ServiceID:     get(row, sid),
				Date:          get(row, date),
				ExceptionType: getInt(row, ex),
			})
		}
	}
	return nil
}
