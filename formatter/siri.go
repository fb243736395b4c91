package formatter

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strconv"
	"time"

	ttsiri "github.com/theoremus-urban-solutions/transit-types/siri"

	"github.com/theoremus-urban-solutions/gtfsrt-locator/gtfsrt"
	"github.com/theoremus-urban-solutions/gtfsrt-locator/locator"
	"github.com/theoremus-urban-solutions/gtfsrt-locator/utils"
)

// SiriResponse is the top-level SIRI response structure
type SiriResponse struct {
	Siri SiriServiceDelivery `json:"Siri"`
}

// SiriServiceDelivery wraps the ServiceDelivery element
type SiriServiceDelivery struct {
	XMLName         xml.Name        `json:"-" xml:"Siri"`
	Version         string          `json:"-" xml:"version,attr"`
	ServiceDelivery ServiceDelivery `json:"ServiceDelivery" xml:"ServiceDelivery"`
}

// ServiceDelivery carries one delivery per output kind. Estimated timetables
// are never produced and stay empty.
type ServiceDelivery struct {
	ResponseTimestamp          string                              `json:"ResponseTimestamp" xml:"ResponseTimestamp"`
	ProducerRef                string                              `json:"ProducerRef,omitempty" xml:"ProducerRef,omitempty"`
	VehicleMonitoringDelivery  []VehicleMonitoringDelivery         `json:"VehicleMonitoringDelivery" xml:"VehicleMonitoringDelivery,omitempty"`
	SituationExchangeDelivery  []SituationExchangeDelivery         `json:"SituationExchangeDelivery" xml:"SituationExchangeDelivery,omitempty"`
	EstimatedTimetableDelivery []ttsiri.EstimatedTimetableDelivery `json:"EstimatedTimetableDelivery" xml:"EstimatedTimetableDelivery,omitempty"`
}

// VehicleMonitoringDelivery holds the nearest vehicle as its only activity.
type VehicleMonitoringDelivery struct {
	ResponseTimestamp string            `json:"ResponseTimestamp" xml:"ResponseTimestamp"`
	ValidUntil        string            `json:"ValidUntil,omitempty" xml:"ValidUntil,omitempty"`
	VehicleActivity   []VehicleActivity `json:"VehicleActivity" xml:"VehicleActivity"`
}

type VehicleActivity struct {
	RecordedAtTime          string                  `json:"RecordedAtTime" xml:"RecordedAtTime"`
	MonitoredVehicleJourney MonitoredVehicleJourney `json:"MonitoredVehicleJourney" xml:"MonitoredVehicleJourney"`
	Extensions              *ActivityExtensions     `json:"Extensions,omitempty" xml:"Extensions,omitempty"`
}

// ActivityExtensions records where the vehicle was measured from.
type ActivityExtensions struct {
	DistanceKm         float64 `json:"DistanceKm" xml:"DistanceKm"`
	ReferenceLatitude  float64 `json:"ReferenceLatitude" xml:"ReferenceLatitude"`
	ReferenceLongitude float64 `json:"ReferenceLongitude" xml:"ReferenceLongitude"`
}

type MonitoredVehicleJourney struct {
	LineRef                 string                          `json:"LineRef" xml:"LineRef"`
	DirectionRef            string                          `json:"DirectionRef,omitempty" xml:"DirectionRef,omitempty"`
	FramedVehicleJourneyRef *ttsiri.FramedVehicleJourneyRef `json:"FramedVehicleJourneyRef,omitempty" xml:"FramedVehicleJourneyRef,omitempty"`
	PublishedLineName       string                          `json:"PublishedLineName,omitempty" xml:"PublishedLineName,omitempty"`
	DestinationName         string                          `json:"DestinationName,omitempty" xml:"DestinationName,omitempty"`
	Monitored               bool                            `json:"Monitored" xml:"Monitored"`
	DataSource              string                          `json:"DataSource" xml:"DataSource"`
	VehicleLocation         *VehicleLocation                `json:"VehicleLocation,omitempty" xml:"VehicleLocation,omitempty"`
	Bearing                 *float64                        `json:"Bearing,omitempty" xml:"Bearing,omitempty"`
	VehicleRef              string                          `json:"VehicleRef" xml:"VehicleRef"`
}

type VehicleLocation struct {
	Longitude float64 `json:"Longitude" xml:"Longitude"`
	Latitude  float64 `json:"Latitude" xml:"Latitude"`
}

// SituationExchangeDelivery holds one situation per GTFS-RT alert.
type SituationExchangeDelivery struct {
	ResponseTimestamp string               `json:"ResponseTimestamp" xml:"ResponseTimestamp"`
	Situations        []PtSituationElement `json:"Situations" xml:"Situations>PtSituationElement"`
}

type PtSituationElement struct {
	CreationTime    string                  `json:"CreationTime" xml:"CreationTime"`
	ParticipantRef  string                  `json:"ParticipantRef" xml:"ParticipantRef"`
	SituationNumber string                  `json:"SituationNumber" xml:"SituationNumber"`
	Progress        string                  `json:"Progress" xml:"Progress"`
	ValidityPeriod  []ValidityPeriod        `json:"ValidityPeriod" xml:"ValidityPeriod"`
	Severity        string                  `json:"Severity,omitempty" xml:"Severity,omitempty"`
	ReportType      string                  `json:"ReportType" xml:"ReportType"`
	Summary         []NaturalLanguageString `json:"Summary,omitempty" xml:"Summary,omitempty"`
	Description     []NaturalLanguageString `json:"Description,omitempty" xml:"Description,omitempty"`
	Affects         *Affects                `json:"Affects,omitempty" xml:"Affects,omitempty"`
	Consequences    *Consequences           `json:"Consequences,omitempty" xml:"Consequences,omitempty"`
}

type ValidityPeriod struct {
	StartTime string `json:"StartTime" xml:"StartTime"`
	EndTime   string `json:"EndTime,omitempty" xml:"EndTime,omitempty"`
}

type NaturalLanguageString struct {
	Lang string `json:"lang,omitempty" xml:"lang,attr,omitempty"`
	Text string `json:"text" xml:",chardata"`
}

type Affects struct {
	Networks        *AffectedNetworks        `json:"Networks,omitempty" xml:"Networks,omitempty"`
	StopPoints      *AffectedStopPoints      `json:"StopPoints,omitempty" xml:"StopPoints,omitempty"`
	VehicleJourneys *AffectedVehicleJourneys `json:"VehicleJourneys,omitempty" xml:"VehicleJourneys,omitempty"`
}

type AffectedNetworks struct {
	AffectedNetwork []AffectedNetwork `json:"AffectedNetwork" xml:"AffectedNetwork"`
}

type AffectedNetwork struct {
	NetworkRef   string         `json:"NetworkRef,omitempty" xml:"NetworkRef,omitempty"`
	AffectedLine []AffectedLine `json:"AffectedLine" xml:"AffectedLine"`
}

type AffectedLine struct {
	LineRef string `json:"LineRef" xml:"LineRef"`
}

type AffectedStopPoints struct {
	AffectedStopPoint []AffectedStopPoint `json:"AffectedStopPoint" xml:"AffectedStopPoint"`
}

type AffectedStopPoint struct {
	StopPointRef string `json:"StopPointRef" xml:"StopPointRef"`
}

type AffectedVehicleJourneys struct {
	AffectedVehicleJourney []AffectedVehicleJourney `json:"AffectedVehicleJourney" xml:"AffectedVehicleJourney"`
}

type AffectedVehicleJourney struct {
	FramedVehicleJourneyRef *ttsiri.FramedVehicleJourneyRef `json:"FramedVehicleJourneyRef,omitempty" xml:"FramedVehicleJourneyRef,omitempty"`
}

type Consequences struct {
	Consequence []Consequence `json:"Consequence" xml:"Consequence"`
}

type Consequence struct {
	Condition string `json:"Condition" xml:"Condition"`
}

// ToSiri maps a response onto a SIRI ServiceDelivery. A nearest-vehicle
// response becomes a VehicleMonitoringDelivery with at most one activity; an
// alerts response becomes a SituationExchangeDelivery.
func ToSiri(resp *Response) *SiriResponse {
	sd := ServiceDelivery{
		ResponseTimestamp:          resp.ResponseTimestamp,
		ProducerRef:                resp.ProducerRef,
		VehicleMonitoringDelivery:  []VehicleMonitoringDelivery{},
		SituationExchangeDelivery:  []SituationExchangeDelivery{},
		EstimatedTimetableDelivery: []ttsiri.EstimatedTimetableDelivery{},
	}
	if r := resp.NearestVehicle; r != nil {
		vm := VehicleMonitoringDelivery{
			ResponseTimestamp: resp.ResponseTimestamp,
			ValidUntil:        resp.ValidUntil,
			VehicleActivity:   []VehicleActivity{},
		}
		if r.Found && r.Vehicle != nil {
			vm.VehicleActivity = append(vm.VehicleActivity, vehicleActivity(resp, r))
		}
		sd.VehicleMonitoringDelivery = append(sd.VehicleMonitoringDelivery, vm)
	} else {
		sd.SituationExchangeDelivery = append(sd.SituationExchangeDelivery, situationExchange(resp))
	}
	return &SiriResponse{Siri: SiriServiceDelivery{Version: "2.0", ServiceDelivery: sd}}
}

func vehicleActivity(resp *Response, r *locator.Result) VehicleActivity {
	v := r.Vehicle
	recorded := resp.FeedTimestamp
	if v.Timestamp > 0 {
		recorded = utils.Iso8601FromUnixSeconds(v.Timestamp)
	}

	mvj := MonitoredVehicleJourney{
		LineRef:    v.RouteID,
		Monitored:  true,
		DataSource: resp.ProducerRef,
		VehicleRef: r.Key(),
	}
	if r.Route != nil {
		if mvj.LineRef == "" {
			mvj.LineRef = r.Route.ID
		}
		mvj.PublishedLineName = r.Route.ShortName
		if mvj.PublishedLineName == "" {
			mvj.PublishedLineName = r.Route.LongName
		}
	}
	if r.Trip != nil {
		mvj.DestinationName = r.Trip.Headsign
		mvj.DirectionRef = strconv.Itoa(r.Trip.DirectionID)
	}
	if v.TripID != "" {
		mvj.FramedVehicleJourneyRef = &ttsiri.FramedVehicleJourneyRef{
			DataFrameRef:           dataFrameRef(v.StartDate, resp.FeedTimestamp),
			DatedVehicleJourneyRef: v.TripID,
		}
	}
	if v.HasPosition {
		mvj.VehicleLocation = &VehicleLocation{Longitude: v.Longitude, Latitude: v.Latitude}
	}
	if v.Bearing != 0 {
		b := v.Bearing
		mvj.Bearing = &b
	}

	return VehicleActivity{
		RecordedAtTime:          recorded,
		MonitoredVehicleJourney: mvj,
		Extensions: &ActivityExtensions{
			DistanceKm:         r.DistanceKM,
			ReferenceLatitude:  r.Reference.Latitude,
			ReferenceLongitude: r.Reference.Longitude,
		},
	}
}

func situationExchange(resp *Response) SituationExchangeDelivery {
	codespace := resp.ProducerRef
	var now int64
	if t, err := time.Parse(time.RFC3339, resp.FeedTimestamp); err == nil {
		now = t.Unix()
	}

	out := make([]PtSituationElement, 0, len(resp.Alerts))
	for _, a := range resp.Alerts {
		el := PtSituationElement{
			CreationTime:    resp.FeedTimestamp,
			ParticipantRef:  codespace,
			SituationNumber: codespace + ":SituationNumber:" + a.ID,
			Progress:        "open",
			ValidityPeriod:  []ValidityPeriod{{StartTime: utils.Iso8601FromUnixSeconds(a.Start), EndTime: utils.Iso8601FromUnixSeconds(a.End)}},
			Severity:        effectSeverity(a.Effect),
			ReportType:      causeReportType(a.Cause),
		}
		if el.CreationTime == "" {
			el.CreationTime = resp.ResponseTimestamp
		}
		if a.Start == 0 {
			el.ValidityPeriod[0].StartTime = el.CreationTime
		}
		if a.End > 0 && now > 0 && a.End < now {
			el.Progress = "closed"
		}
		if a.Header != "" {
			el.Summary = []NaturalLanguageString{{Text: a.Header}}
		}
		if a.Description != "" {
			el.Description = []NaturalLanguageString{{Text: a.Description}}
		}
		el.Affects = affects(a, codespace, resp.FeedTimestamp)
		if cond := effectCondition(a.Effect); cond != "" {
			el.Consequences = &Consequences{Consequence: []Consequence{{Condition: cond}}}
		}
		out = append(out, el)
	}
	return SituationExchangeDelivery{ResponseTimestamp: resp.ResponseTimestamp, Situations: out}
}

func affects(a gtfsrt.AlertSummary, codespace, feedTimestamp string) *Affects {
	var af Affects
	if len(a.RouteIDs) > 0 {
		nw := AffectedNetwork{NetworkRef: codespace + ":Network:" + codespace}
		for _, id := range a.RouteIDs {
			nw.AffectedLine = append(nw.AffectedLine, AffectedLine{LineRef: id})
		}
		af.Networks = &AffectedNetworks{AffectedNetwork: []AffectedNetwork{nw}}
	}
	if len(a.StopIDs) > 0 {
		af.StopPoints = &AffectedStopPoints{}
		for _, id := range a.StopIDs {
			af.StopPoints.AffectedStopPoint = append(af.StopPoints.AffectedStopPoint, AffectedStopPoint{StopPointRef: id})
		}
	}
	if len(a.TripIDs) > 0 {
		af.VehicleJourneys = &AffectedVehicleJourneys{}
		for _, id := range a.TripIDs {
			af.VehicleJourneys.AffectedVehicleJourney = append(af.VehicleJourneys.AffectedVehicleJourney, AffectedVehicleJourney{
				FramedVehicleJourneyRef: &ttsiri.FramedVehicleJourneyRef{
					DataFrameRef:           dataFrameRef("", feedTimestamp),
					DatedVehicleJourneyRef: id,
				},
			})
		}
	}
	if af.Networks == nil && af.StopPoints == nil && af.VehicleJourneys == nil {
		return nil
	}
	return &af
}

// dataFrameRef formats a GTFS start date (YYYYMMDD) as YYYY-MM-DD, falling
// back to the date of the feed timestamp.
func dataFrameRef(startDate, feedTimestamp string) string {
	if t, err := time.Parse("20060102", startDate); err == nil {
		return t.Format("2006-01-02")
	}
	if len(feedTimestamp) >= len("2006-01-02") {
		return feedTimestamp[:len("2006-01-02")]
	}
	return ""
}

func effectSeverity(effect string) string {
	switch effect {
	case "NO_SERVICE":
		return "noService"
	case "REDUCED_SERVICE", "SIGNIFICANT_DELAYS":
		return "severe"
	case "DETOUR", "MODIFIED_SERVICE", "STOP_MOVED":
		return "slight"
	case "ADDITIONAL_SERVICE":
		return "normal"
	case "NO_EFFECT":
		return "noImpact"
	default:
		return "undefined"
	}
}

func causeReportType(cause string) string {
	switch cause {
	case "STRIKE", "ACCIDENT", "POLICE_ACTIVITY", "MEDICAL_EMERGENCY":
		return "incident"
	default:
		return "general"
	}
}

func effectCondition(effect string) string {
	switch effect {
	case "NO_SERVICE":
		return "NoService"
	case "REDUCED_SERVICE":
		return "ReducedService"
	case "SIGNIFICANT_DELAYS":
		return "SevereDelays"
	case "DETOUR":
		return "Diversion"
	default:
		return ""
	}
}

// BuildSiriJSON serializes the SIRI rendering of res to indented JSON.
func (rb *responseBuilder) BuildSiriJSON(res *Response) ([]byte, error) {
	b, err := json.MarshalIndent(ToSiri(res), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode SIRI response: %w", err)
	}
	return b, nil
}

// BuildSiriXML serializes the SIRI rendering of res to XML.
func (rb *responseBuilder) BuildSiriXML(res *Response) ([]byte, error) {
	b, err := xml.MarshalIndent(ToSiri(res).Siri, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode SIRI response: %w", err)
	}
	return append([]byte(xml.Header), b...), nil
}
