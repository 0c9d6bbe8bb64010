package cache

import (
	"strconv"

	"github.com/cespare/xxhash/v2"

	"circuitmap/internal/domain"
)

const KeyRoutePattern = "route:*"

// KeyRoute identifies the route through waypoints for a routing profile.
// Coordinates are rounded to 6 decimals (about 10 cm) before hashing.
func KeyRoute(profile string, waypoints []domain.LatLng) string {
	d := xxhash.New()
	buf := make([]byte, 0, 32)
	for _, ll := range waypoints {
		buf = strconv.AppendFloat(buf[:0], ll.Lat, 'f', 6, 64)
		buf = append(buf, ',')
		buf = strconv.AppendFloat(buf, ll.Lng, 'f', 6, 64)
		buf = append(buf, ';')
		d.Write(buf)
	}
	return "route:" + profile + ":" + strconv.FormatUint(d.Sum64(), 16)
}
