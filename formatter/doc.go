// Package formatter wraps locator results and alert summaries in a response
// envelope and serializes it.
//
// This package is organized into:
// - wrapper.go: Response wrapping logic (timestamps, producer, format selection)
// - json.go: JSON serialization
// - xml.go: XML serialization with proper escaping
// - text.go: plain text for terminals
// - siri.go: SIRI VehicleMonitoring and SituationExchange deliveries
package formatter
