// pkg/valueobjects/geopoint.go
package valueobjects

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/fraudshield/fraudshield-backend/errors"
)

// WGS-84 ellipsoid parameters.
const (
	semiMajorAxis = 6378137.0
	flattening    = 1 / 298.257223563

	// Iteration cap for the Vincenty inverse solution. Nearly antipodal
	// pairs may not converge; those fall back to the spherical formula.
	maxVincentyIterations = 200
	vincentyTolerance     = 1e-12

	sphericalEarthRadius = 6371000.0
)

// GeoPoint represents a geographic point with latitude and longitude
type GeoPoint struct {
	latitude  float64
	longitude float64
}

// NewGeoPoint creates a new GeoPoint with validation
func NewGeoPoint(lat, lng float64) (*GeoPoint, error) {
	if err := validateCoordinates(lat, lng); err != nil {
		return nil, err
	}

	return &GeoPoint{
		latitude:  lat,
		longitude: lng,
	}, nil
}

// Latitude returns the latitude value
func (g GeoPoint) Latitude() float64 {
	return g.latitude
}

// Longitude returns the longitude value
func (g GeoPoint) Longitude() float64 {
	return g.longitude
}

// DistanceTo calculates the geodesic surface distance to another point in
// meters on the WGS-84 ellipsoid using the Vincenty inverse formula.
// Deterministic and symmetric; returns 0 for an identical point.
func (g GeoPoint) DistanceTo(other GeoPoint) float64 {
	if d, ok := vincentyInverse(g, other); ok {
		return d
	}
	// Non-convergence only happens for nearly antipodal pairs, where the
	// spherical error is a few km over ~20,000 km.
	return g.haversineTo(other)
}

// DistanceKmTo returns the geodesic distance in kilometers.
func (g GeoPoint) DistanceKmTo(other GeoPoint) float64 {
	return g.DistanceTo(other) / 1000.0
}

// vincentyInverse solves the inverse geodesic problem on the WGS-84
// ellipsoid. The second return value is false when the iteration did not
// converge.
func vincentyInverse(p1, p2 GeoPoint) (float64, bool) {
	a := semiMajorAxis
	f := flattening
	b := (1 - f) * a

	l := degreesToRadians(p2.longitude - p1.longitude)
	u1 := math.Atan((1 - f) * math.Tan(degreesToRadians(p1.latitude)))
	u2 := math.Atan((1 - f) * math.Tan(degreesToRadians(p2.latitude)))

	sinU1, cosU1 := math.Sin(u1), math.Cos(u1)
	sinU2, cosU2 := math.Sin(u2), math.Cos(u2)

	lambda := l
	var sinSigma, cosSigma, sigma, cos2Alpha, cos2SigmaM float64
	converged := false

	for i := 0; i < maxVincentyIterations; i++ {
		sinLambda, cosLambda := math.Sin(lambda), math.Cos(lambda)

		sinSigma = math.Sqrt(
			(cosU2*sinLambda)*(cosU2*sinLambda) +
				(cosU1*sinU2-sinU1*cosU2*cosLambda)*(cosU1*sinU2-sinU1*cosU2*cosLambda),
		)
		if sinSigma == 0 {
			// Coincident points.
			return 0, true
		}

		cosSigma = sinU1*sinU2 + cosU1*cosU2*cosLambda
		sigma = math.Atan2(sinSigma, cosSigma)

		sinAlpha := cosU1 * cosU2 * sinLambda / sinSigma
		cos2Alpha = 1 - sinAlpha*sinAlpha
		if cos2Alpha == 0 {
			// Equatorial line.
			cos2SigmaM = 0
		} else {
			cos2SigmaM = cosSigma - 2*sinU1*sinU2/cos2Alpha
		}

		c := f / 16 * cos2Alpha * (4 + f*(4-3*cos2Alpha))
		prev := lambda
		lambda = l + (1-c)*f*sinAlpha*
			(sigma+c*sinSigma*(cos2SigmaM+c*cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)))

		if math.Abs(lambda-prev) < vincentyTolerance {
			converged = true
			break
		}
	}
	if !converged {
		return 0, false
	}

	uSq := cos2Alpha * (a*a - b*b) / (b * b)
	bigA := 1 + uSq/16384*(4096+uSq*(-768+uSq*(320-175*uSq)))
	bigB := uSq / 1024 * (256 + uSq*(-128+uSq*(74-47*uSq)))
	deltaSigma := bigB * sinSigma * (cos2SigmaM + bigB/4*
		(cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)-
			bigB/6*cos2SigmaM*(-3+4*sinSigma*sinSigma)*(-3+4*cos2SigmaM*cos2SigmaM)))

	return b * bigA * (sigma - deltaSigma), true
}

// haversineTo is the spherical great-circle distance in meters.
func (g GeoPoint) haversineTo(other GeoPoint) float64 {
	lat1 := degreesToRadians(g.latitude)
	lng1 := degreesToRadians(g.longitude)
	lat2 := degreesToRadians(other.latitude)
	lng2 := degreesToRadians(other.longitude)

	dlat := lat2 - lat1
	dlng := lng2 - lng1

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dlng/2)*math.Sin(dlng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return sphericalEarthRadius * c
}

// IsWithinRadius checks if another point is within the specified radius in meters
func (g GeoPoint) IsWithinRadius(other GeoPoint, radius float64) bool {
	if radius < 0 {
		return false
	}
	return g.DistanceTo(other) <= radius
}

// String returns a string representation of the geographic point
func (g GeoPoint) String() string {
	return fmt.Sprintf("(%f, %f)", g.latitude, g.longitude)
}

// private helpers

func validateCoordinates(lat, lng float64) error {
	if lat < -90 || lat > 90 {
		return errors.ValidationFailed(
			"invalid latitude",
			fmt.Sprintf("latitude %f is outside valid range [-90, 90]", lat),
		)
	}

	if lng < -180 || lng > 180 {
		return errors.ValidationFailed(
			"invalid longitude",
			fmt.Sprintf("longitude %f is outside valid range [-180, 180]", lng),
		)
	}

	return nil
}

func degreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// MarshalJSON controls serialization of the otherwise-unexported fields.
func (g GeoPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Latitude  float64 `json:"lat"`
		Longitude float64 `json:"lng"`
	}{
		Latitude:  g.latitude,
		Longitude: g.longitude,
	})
}
