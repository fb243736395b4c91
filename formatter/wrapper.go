package formatter

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/theoremus-urban-solutions/gtfsrt-locator/gtfsrt"
	"github.com/theoremus-urban-solutions/gtfsrt-locator/locator"
	"github.com/theoremus-urban-solutions/gtfsrt-locator/utils"
)

// Response is the envelope every output format serializes.
type Response struct {
	ResponseTimestamp string                `json:"ResponseTimestamp"`
	ProducerRef       string                `json:"ProducerRef,omitempty"`
	FeedTimestamp     string                `json:"FeedTimestamp,omitempty"`
	ValidUntil        string                `json:"ValidUntil,omitempty"`
	NearestVehicle    *locator.Result       `json:"NearestVehicle,omitempty"`
	Alerts            []gtfsrt.AlertSummary `json:"Alerts,omitempty"`
}

// WrapResult wraps a locator result. pollInterval sets ValidUntil relative to
// the feed timestamp.
func WrapResult(res locator.Result, producer string, pollInterval time.Duration) *Response {
	ts := int64(res.FeedTimestamp)
	return &Response{
		ResponseTimestamp: utils.Iso8601Now(),
		ProducerRef:       producerRef(producer),
		FeedTimestamp:     utils.Iso8601FromUnixSeconds(ts),
		ValidUntil:        utils.ValidUntilFrom(ts, pollInterval),
		NearestVehicle:    &res,
	}
}

// WrapAlerts wraps the alert summaries of one feed message.
func WrapAlerts(alerts []gtfsrt.AlertSummary, feedTimestamp uint64, producer string) *Response {
	return &Response{
		ResponseTimestamp: utils.Iso8601Now(),
		ProducerRef:       producerRef(producer),
		FeedTimestamp:     utils.Iso8601FromUnixSeconds(int64(feedTimestamp)),
		Alerts:            alerts,
	}
}

func producerRef(p string) string {
	if p == "" {
		return "UNKNOWN"
	}
	return p
}

type responseBuilder struct{}

// NewResponseBuilder creates a new response builder
func NewResponseBuilder() *responseBuilder {
	return &responseBuilder{}
}

// ErrUnsupportedFormat is returned by Build for unknown format names.
var ErrUnsupportedFormat = errors.New("unsupported format")

// Build serializes resp in format (json, xml, text, siri or siri-xml) and
// returns the body with its content type. Encoding failures, such as a
// non-finite float in JSON output, are returned as errors.
func (rb *responseBuilder) Build(resp *Response, format string) ([]byte, string, error) {
	var (
		body        []byte
		contentType string
		err         error
	)
	switch strings.ToLower(format) {
	case "", "json":
		body, err = rb.BuildJSON(resp)
		contentType = "application/json"
	case "xml":
		body, contentType = rb.BuildXML(resp), "application/xml"
	case "text", "txt":
		body, contentType = rb.BuildText(resp), "text/plain; charset=utf-8"
	case "siri", "siri-json":
		body, err = rb.BuildSiriJSON(resp)
		contentType = "application/json"
	case "siri-xml":
		body, err = rb.BuildSiriXML(resp)
		contentType = "application/xml"
	default:
		return nil, "", fmt.Errorf("%w %q (want json|xml|text|siri|siri-xml)", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, "", err
	}
	return body, contentType, nil
}
