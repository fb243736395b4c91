package formatter

import (
	"strconv"
	"strings"
	"time"

	"github.com/theoremus-urban-solutions/gtfsrt-locator/gtfsrt"
	"github.com/theoremus-urban-solutions/gtfsrt-locator/locator"
)

// BuildXML serializes a response to XML
func (rb *responseBuilder) BuildXML(res *Response) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	b.WriteString("<LocatorDelivery>")
	writeElem(&b, "ResponseTimestamp", res.ResponseTimestamp)
	writeElem(&b, "ProducerRef", res.ProducerRef)
	writeElem(&b, "FeedTimestamp", res.FeedTimestamp)
	writeElem(&b, "ValidUntil", res.ValidUntil)
	if res.NearestVehicle != nil {
		writeResultXML(&b, res.NearestVehicle)
	}
	if len(res.Alerts) > 0 {
		b.WriteString("<Alerts>")
		for _, a := range res.Alerts {
			writeAlertXML(&b, a)
		}
		b.WriteString("</Alerts>")
	}
	b.WriteString("</LocatorDelivery>")
	return []byte(b.String())
}

func writeResultXML(b *strings.Builder, r *locator.Result) {
	b.WriteString(`<NearestVehicle id="`)
	b.WriteString(xmlEscape(r.ID))
	b.WriteString(`" found="`)
	b.WriteString(strconv.FormatBool(r.Found))
	b.WriteString(`">`)
	writeElem(b, "Reason", r.Reason)
	writeElem(b, "ResolvedAt", r.ResolvedAt.UTC().Format(time.RFC3339))
	b.WriteString("<Reference>")
	writeElem(b, "Latitude", formatFloat(r.Reference.Latitude))
	writeElem(b, "Longitude", formatFloat(r.Reference.Longitude))
	b.WriteString("</Reference>")
	writeElem(b, "EntityCount", strconv.Itoa(r.EntityCount))
	if v := r.Vehicle; v != nil {
		b.WriteString("<Vehicle>")
		writeElem(b, "EntityRef", v.EntityID)
		writeElem(b, "VehicleRef", v.VehicleID)
		writeElem(b, "Label", v.Label)
		writeElem(b, "TripRef", v.TripID)
		writeElem(b, "LineRef", v.RouteID)
		b.WriteString("<VehicleLocation>")
		writeElem(b, "Latitude", formatFloat(v.Latitude))
		writeElem(b, "Longitude", formatFloat(v.Longitude))
		b.WriteString("</VehicleLocation>")
		if v.Bearing != 0 {
			writeElem(b, "Bearing", formatFloat(v.Bearing))
		}
		if v.Timestamp != 0 {
			writeElem(b, "RecordedAtTime", time.Unix(v.Timestamp, 0).UTC().Format(time.RFC3339))
		}
		b.WriteString("</Vehicle>")
		writeElem(b, "DistanceKm", formatFloat(r.DistanceKM))
	}
	if r.Route != nil {
		b.WriteString("<Route>")
		writeElem(b, "RouteId", r.Route.ID)
		writeElem(b, "PublishedLineName", r.Route.ShortName)
		writeElem(b, "RouteLongName", r.Route.LongName)
		b.WriteString("</Route>")
	}
	if r.Trip != nil {
		b.WriteString("<Trip>")
		writeElem(b, "TripId", r.Trip.ID)
		writeElem(b, "DestinationName", r.Trip.Headsign)
		writeElem(b, "DirectionRef", strconv.Itoa(r.Trip.DirectionID))
		b.WriteString("</Trip>")
	}
	b.WriteString("</NearestVehicle>")
}

func writeAlertXML(b *strings.Builder, a gtfsrt.AlertSummary) {
	b.WriteString(`<Alert id="`)
	b.WriteString(xmlEscape(a.ID))
	b.WriteString(`">`)
	writeElem(b, "Summary", a.Header)
	writeElem(b, "Description", a.Description)
	writeElem(b, "Cause", a.Cause)
	writeElem(b, "Effect", a.Effect)
	writeElem(b, "Severity", a.Severity)
	if a.Start != 0 {
		writeElem(b, "StartTime", time.Unix(a.Start, 0).UTC().Format(time.RFC3339))
	}
	if a.End != 0 {
		writeElem(b, "EndTime", time.Unix(a.End, 0).UTC().Format(time.RFC3339))
	}
	for _, id := range a.RouteIDs {
		writeElem(b, "LineRef", id)
	}
	for _, id := range a.StopIDs {
		writeElem(b, "StopPointRef", id)
	}
	for _, id := range a.TripIDs {
		writeElem(b, "TripRef", id)
	}
	b.WriteString("</Alert>")
}

// writeElem writes <name>value</name>, skipping empty values.
func writeElem(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	b.WriteString("<")
	b.WriteString(name)
	b.WriteString(">")
	b.WriteString(xmlEscape(value))
	b.WriteString("</")
	b.WriteString(name)
	b.WriteString(">")
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func xmlEscape(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"\"", "&quot;",
		"'", "&apos;",
	)
	return r.Replace(s)
}
