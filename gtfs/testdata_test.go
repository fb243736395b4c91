package gtfs

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

var sampleFeed = map[string]string{
	"agency.txt": "agency_id,agency_name,agency_url,agency_timezone\n" +
		"TL,TransLink,https://translink.example,Australia/Brisbane\n",
	"routes.txt": "\ufeffroute_id,agency_id,route_short_name,route_long_name,route_type,route_color\n" +
		"R1,TL,444,City - Moggill,3,FF0000\n" +
		"R2,TL,445,City - Bellbowrie,3,\n",
	"stops.txt": "stop_id,stop_name,stop_lat,stop_lon,location_type\n" +
		"S1,\"Kenmore Rd, stop 20\",-27.52423,152.81618,0\n" +
		"S2,Indooroopilly,-27.4977,152.9735,1\n",
	"trips.txt": "route_id,service_id,trip_id,trip_headsign,direction_id,shape_id\n" +
		"R1,WK,T1,Moggill,0,SH1\n" +
		"R2,WK,T2,City,1,\n",
	"calendar.txt": "service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date\n" +
		"WK,1,1,1,1,1,0,0,20240101,20241231\n",
	"calendar_dates.txt": "service_id,date,exception_type\n" +
		"WK,20250105,1\n" +
		"WK,20240325,2\n",
	"shapes.txt": "shape_id,shape_pt_lat,shape_pt_lon,shape_pt_sequence\nSH1,0,0,1\n",
}

// buildZip returns a GTFS zip of files, optionally nested under dir.
func buildZip(t *testing.T, dir string, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(dir + name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func writeZip(t *testing.T, files map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gtfs.zip")
	require.NoError(t, os.WriteFile(path, buildZip(t, "", files), 0o600))
	return path
}

func sampleIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := NewIndexFromBytes(buildZip(t, "", sampleFeed))
	require.NoError(t, err)
	return idx
}
