package gtfsrt

import (
	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
)

// AlertSummary is a flattened view of a GTFS-RT service alert.
type AlertSummary struct {
	ID          string   `json:"id"`
	Header      string   `json:"header,omitempty"`
	Description string   `json:"description,omitempty"`
	Cause       string   `json:"cause,omitempty"`
	Effect      string   `json:"effect,omitempty"`
	Severity    string   `json:"severity,omitempty"`
	Start       int64    `json:"start,omitempty"`
	End         int64    `json:"end,omitempty"`
	RouteIDs    []string `json:"routeIds,omitempty"`
	StopIDs     []string `json:"stopIds,omitempty"`
	TripIDs     []string `json:"tripIds,omitempty"`
}

// ParseAlerts extracts every alert entity of fm, in feed order.
func ParseAlerts(fm *gtfsrtpb.FeedMessage) []AlertSummary {
	out := []AlertSummary{}
	for _, e := range fm.GetEntity() {
		a := e.GetAlert()
		if a == nil {
			continue
		}
		ra := AlertSummary{
			ID:          e.GetId(),
			Header:      translatedText(a.GetHeaderText()),
			Description: translatedText(a.GetDescriptionText()),
		}
		if a.Cause != nil {
			ra.Cause = a.GetCause().String()
		}
		if a.Effect != nil {
			ra.Effect = a.GetEffect().String()
		}
		if a.SeverityLevel != nil {
			ra.Severity = a.GetSeverityLevel().String()
		}
		// first active window only
		if len(a.GetActivePeriod()) > 0 {
			ap := a.GetActivePeriod()[0]
			ra.Start = int64(ap.GetStart())
			ra.End = int64(ap.GetEnd())
		}
		for _, ie := range a.GetInformedEntity() {
			if ie.RouteId != nil {
				ra.RouteIDs = append(ra.RouteIDs, ie.GetRouteId())
			}
			if tid := ie.GetTrip().GetTripId(); tid != "" {
				ra.TripIDs = append(ra.TripIDs, tid)
			}
			if ie.StopId != nil {
				ra.StopIDs = append(ra.StopIDs, ie.GetStopId())
			}
		}
		out = append(out, ra)
	}
	return out
}

// translatedText prefers the translation without a language tag, then the
// first non-empty one.
func translatedText(ts *gtfsrtpb.TranslatedString) string {
	var first string
	for _, tr := range ts.GetTranslation() {
		if tr.GetLanguage() == "" {
			return tr.GetText()
		}
		if first == "" {
			first = tr.GetText()
		}
	}
	return first
}
