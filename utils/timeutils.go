package utils

import (
	"time"
)

// Iso8601Now returns the current time in ISO8601 format
func Iso8601Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// Iso8601FromUnixSeconds converts Unix timestamp to ISO8601 format.
// Zero yields "".
func Iso8601FromUnixSeconds(sec int64) string {
	if sec == 0 {
		return ""
	}
	return time.Unix(sec, 0).UTC().Format(time.RFC3339)
}

// ValidUntilFrom returns baseEpoch plus one poll interval in ISO8601, the
// earliest moment a newer feed message can be expected.
func ValidUntilFrom(baseEpoch int64, pollInterval time.Duration) string {
	if baseEpoch <= 0 || pollInterval <= 0 {
		return ""
	}
	return time.Unix(baseEpoch, 0).Add(pollInterval).UTC().Format(time.RFC3339)
}
