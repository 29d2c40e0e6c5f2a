package geo

// DefaultPrecision is the geohash length used when logging resolved locations.
// Six characters is roughly a 1.2km x 0.6km cell, coarse enough that a log line
// never pins a user to a street address.
const DefaultPrecision = 6

const geohashAlphabet = "0123456789bcdefghjkmnpqrstuvwxyz"

// Encode returns the geohash cell containing (lat, lng). A precision below 1
// falls back to DefaultPrecision.
func Encode(lat, lng float64, precision int) string {
	if precision < 1 {
		precision = DefaultPrecision
	}

	lngLo, lngHi := -180.0, 180.0
	latLo, latHi := -90.0, 90.0
	out := make([]byte, precision)

	// Bits alternate longitude/latitude starting with longitude; every five
	// bits select one alphabet character.
	bit := 0
	for i := range out {
		var idx byte
		for j := 0; j < 5; j, bit = j+1, bit+1 {
			idx <<= 1
			if bit%2 == 0 {
				if mid := (lngLo + lngHi) / 2; lng > mid {
					idx |= 1
					lngLo = mid
				} else {
					lngHi = mid
				}
				continue
			}
			if mid := (latLo + latHi) / 2; lat > mid {
				idx |= 1
				latLo = mid
			} else {
				latHi = mid
			}
		}
		out[i] = geohashAlphabet[idx]
	}
	return string(out)
}

// Geohash returns the coordinate's geohash at the given precision.
func (c Coordinate) Geohash(precision int) string {
	return Encode(c.Latitude, c.Longitude, precision)
}
