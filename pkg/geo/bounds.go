package geo

import "math"

// kmPerDegreeLat is the surface distance of one degree of latitude.
const kmPerDegreeLat = earthRadiusKm * math.Pi / 180

// Bounds is an axis-aligned latitude/longitude box.
type Bounds struct {
	MinLat float64
	MaxLat float64
	MinLng float64
	MaxLng float64
}

// BoundingBox returns the box enclosing the circle of radiusKm around center.
// The box only ever widens the circle, so callers still apply the exact
// distance check to rows it admits. Near the poles the longitude span loses
// meaning and the box degenerates to the full longitude range.
func BoundingBox(center Point, radiusKm float64) Bounds {
	if radiusKm < 0 {
		radiusKm = 0
	}
	dLat := radiusKm / kmPerDegreeLat

	bounds := Bounds{
		MinLat: math.Max(center.Latitude-dLat, -90),
		MaxLat: math.Min(center.Latitude+dLat, 90),
		MinLng: -180,
		MaxLng: 180,
	}

	cosLat := math.Cos(radians(center.Latitude))
	if cosLat <= 0 {
		return bounds
	}
	dLng := radiusKm / (kmPerDegreeLat * cosLat)
	if dLng < 180 {
		bounds.MinLng = center.Longitude - dLng
		bounds.MaxLng = center.Longitude + dLng
	}
	return bounds
}

// Contains reports whether the point falls inside the box.
func (b Bounds) Contains(p Point) bool {
	return p.Latitude >= b.MinLat && p.Latitude <= b.MaxLat &&
		p.Longitude >= b.MinLng && p.Longitude <= b.MaxLng
}
