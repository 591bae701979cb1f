// Package ranker orders coffee shops by great-circle distance from the user.
package ranker

import (
	"math"
	"sort"

	"mspro-labs/brew-map/internal/models"
)

// DefaultCount is how many shops are kept when the caller does not say.
const DefaultCount = 5

// Mean Earth radius (IUGG).
const earthRadiusKm = 6371.0088

// Distance computes the great-circle distance between two points using the
// haversine formula. Returns distance in kilometers.
func Distance(a, b models.Location) float64 {
	lat1Rad := degreesToRadians(a.Latitude)
	lat2Rad := degreesToRadians(b.Latitude)
	deltaLat := degreesToRadians(b.Latitude - a.Latitude)
	deltaLon := degreesToRadians(b.Longitude - a.Longitude)

	h := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	// Rounding can push h just outside [0, 1] near antipodes.
	h = math.Min(1, math.Max(0, h))

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

func degreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180.0
}

// RankNearest returns the k shops closest to user, nearest first. Shops at
// equal distance keep their input order. k <= 0 yields an empty slice.
func RankNearest(shops []models.ShopRecord, user models.Location, k int) []models.RankedShop {
	if k <= 0 {
		return []models.RankedShop{}
	}

	ranked := make([]models.RankedShop, 0, len(shops))
	for _, shop := range shops {
		ranked = append(ranked, models.RankedShop{
			ShopRecord: shop,
			DistanceKm: Distance(user, shop.Location()),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DistanceKm < ranked[j].DistanceKm
	})

	if len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}
