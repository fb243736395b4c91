// Package nearest picks the feed entity whose reported position is closest to a
// reference coordinate.
//
// Distances are great-circle distances from the haversine formula on a sphere
// of radius 6371 km. Coordinates are decimal degrees and are not range
// checked; values outside [-90, 90] x [-180, 180] give meaningless distances.
//
// All functions are pure and safe for concurrent use.
package nearest
