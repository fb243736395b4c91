package gtfs

// Agency is a row of agency.txt
type Agency struct {
	ID       string `json:"agencyId"`
	Name     string `json:"agencyName"`
	URL      string `json:"agencyUrl,omitempty"`
	Timezone string `json:"agencyTimezone,omitempty"`
}

// Route is a row of routes.txt
type Route struct {
	ID        string `json:"routeId"`
	AgencyID  string `json:"agencyId,omitempty"`
	ShortName string `json:"routeShortName,omitempty"`
	LongName  string `json:"routeLongName,omitempty"`
	Desc      string `json:"routeDesc,omitempty"`
	Type      int    `json:"routeType"`
	URL       string `json:"routeUrl,omitempty"`
	Color     string `json:"routeColor,omitempty"`
	TextColor string `json:"routeTextColor,omitempty"`
}

// Stop is a row of stops.txt
type Stop struct {
	ID            string  `json:"stopId"`
	Code          string  `json:"stopCode,omitempty"`
	Name          string  `json:"stopName"`
	Desc          string  `json:"stopDesc,omitempty"`
	Lat           float64 `json:"stopLat"`
	Lon           float64 `json:"stopLon"`
	ZoneID        string  `json:"zoneId,omitempty"`
	URL           string  `json:"stopUrl,omitempty"`
	LocationType  int     `json:"locationType"`
	ParentStation string  `json:"parentStation,omitempty"`
	PlatformCode  string  `json:"platformCode,omitempty"`
}

// Trip is a row of trips.txt
type Trip struct {
	ID          string `json:"tripId"`
	RouteID     string `json:"routeId"`
	ServiceID   string `json:"serviceId"`
	Headsign    string `json:"tripHeadsign,omitempty"`
	DirectionID int    `json:"directionId"`
	BlockID     string `json:"blockId,omitempty"`
	ShapeID     string `json:"shapeId,omitempty"`
}

// Calendar is a row of calendar.txt. Dates are GTFS YYYYMMDD strings.
type Calendar struct {
	ServiceID string `json:"serviceId"`
	Monday    bool   `json:"monday"`
	Tuesday   bool   `json:"tuesday"`
	Wednesday bool   `json:"wednesday"`
	Thursday  bool   `json:"thursday"`
	Friday    bool   `json:"friday"`
	Saturday  bool   `json:"saturday"`
	Sunday    bool   `json:"sunday"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// Exception types of calendar_dates.txt
const (
	ServiceAdded   = 1
	ServiceRemoved = 2
)

// CalendarDate is a row of calendar_dates.txt
type CalendarDate struct {
	ServiceID     string `json:"serviceId"`
	Date          string `json:"date"`
	ExceptionType int    `json:"exceptionType"`
}
