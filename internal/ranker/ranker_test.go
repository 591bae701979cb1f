package ranker

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mspro-labs/brew-map/internal/models"
)

func TestDistance_KnownPairs(t *testing.T) {
	testCases := []struct {
		name     string
		a, b     models.Location
		expected float64
		delta    float64
	}{
		{
			name:     "same point",
			a:        models.Location{Longitude: 37.6173, Latitude: 55.7558},
			b:        models.Location{Longitude: 37.6173, Latitude: 55.7558},
			expected: 0,
			delta:    1e-9,
		},
		{
			name:     "one degree of latitude",
			a:        models.Location{Longitude: 0, Latitude: 0},
			b:        models.Location{Longitude: 0, Latitude: 1},
			expected: 111.195,
			delta:    0.01,
		},
		{
			name:     "moscow to saint petersburg",
			a:        models.Location{Longitude: 37.6173, Latitude: 55.7558},
			b:        models.Location{Longitude: 30.3351, Latitude: 59.9343},
			expected: 633,
			delta:    3,
		},
		{
			name:     "london to paris",
			a:        models.Location{Longitude: -0.1278, Latitude: 51.5074},
			b:        models.Location{Longitude: 2.3522, Latitude: 48.8566},
			expected: 343.5,
			delta:    2,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, Distance(tc.a, tc.b), tc.delta)
		})
	}
}

func TestDistance_Symmetric(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		a := models.Location{Longitude: rng.Float64()*360 - 180, Latitude: rng.Float64()*180 - 90}
		b := models.Location{Longitude: rng.Float64()*360 - 180, Latitude: rng.Float64()*180 - 90}
		assert.InDelta(t, Distance(a, b), Distance(b, a), 1e-9, "a=%v b=%v", a, b)
	}
}

func TestDistance_Antipodes(t *testing.T) {
	halfCircumference := math.Pi * earthRadiusKm

	user := models.Location{Longitude: 158.58327, Latitude: 18.83885}
	antipode := models.Location{Longitude: -21.41673, Latitude: -18.83885}
	d := Distance(user, antipode)
	require.False(t, math.IsNaN(d))
	assert.InDelta(t, 20015.1, d, 0.1)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 10000; i++ {
		a := models.Location{Longitude: rng.Float64()*360 - 180, Latitude: rng.Float64()*180 - 90}
		b := models.Location{Longitude: a.Longitude - 180, Latitude: -a.Latitude}
		d := Distance(a, b)
		require.False(t, math.IsNaN(d), "a=%v", a)
		assert.InDelta(t, halfCircumference, d, 0.01, "a=%v", a)
	}
}

func TestRankNearest_AntipodeRanksLast(t *testing.T) {
	user := models.Location{Longitude: 158.58327, Latitude: 18.83885}
	shops := []models.ShopRecord{
		{Name: "antipode", Longitude: -21.41673, Latitude: -18.83885},
		{Name: "far", Longitude: 0, Latitude: 0},
		{Name: "next door", Longitude: 158.5840, Latitude: 18.8392},
	}

	ranked := RankNearest(shops, user, DefaultCount)
	require.Len(t, ranked, 3)

	var names []string
	for _, r := range ranked {
		require.False(t, math.IsNaN(r.DistanceKm), r.Name)
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"next door", "far", "antipode"}, names)
	assert.InDelta(t, 20015.1, ranked[2].DistanceKm, 0.1)
}

func TestRankNearest_ThreeShops(t *testing.T) {
	shops := []models.ShopRecord{
		{Name: "origin", Longitude: 0, Latitude: 0},
		{Name: "north", Longitude: 0, Latitude: 1},
		{Name: "east", Longitude: 1, Latitude: 0},
	}

	ranked := RankNearest(shops, models.Location{Longitude: 0, Latitude: 0}, 2)
	require.Len(t, ranked, 2)

	assert.Equal(t, "origin", ranked[0].Name)
	assert.Less(t, ranked[0].DistanceKm, 1e-6)
	assert.Contains(t, []string{"north", "east"}, ranked[1].Name)
	assert.InDelta(t, 111.195, ranked[1].DistanceKm, 0.01)
}

func TestRankNearest_Count(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	user := models.Location{Longitude: 37.6, Latitude: 55.75}

	for _, n := range []int{0, 1, 3, 10} {
		shops := make([]models.ShopRecord, n)
		for i := range shops {
			shops[i] = models.ShopRecord{
				Name:      fmt.Sprintf("shop-%d", i),
				Longitude: 37.6 + rng.Float64() - 0.5,
				Latitude:  55.75 + rng.Float64() - 0.5,
			}
		}

		for _, k := range []int{-1, 0, 1, 2, 5, 20} {
			t.Run(fmt.Sprintf("n=%d k=%d", n, k), func(t *testing.T) {
				ranked := RankNearest(shops, user, k)
				require.NotNil(t, ranked)

				expected := k
				if n < k {
					expected = n
				}
				if k < 0 {
					expected = 0
				}
				assert.Len(t, ranked, expected)

				for i := 1; i < len(ranked); i++ {
					assert.LessOrEqual(t, ranked[i-1].DistanceKm, ranked[i].DistanceKm)
				}
			})
		}
	}
}

func TestRankNearest_TiesKeepInputOrder(t *testing.T) {
	shops := []models.ShopRecord{
		{Name: "first", Longitude: 1, Latitude: 0},
		{Name: "second", Longitude: -1, Latitude: 0},
		{Name: "third", Longitude: 1, Latitude: 0},
	}

	ranked := RankNearest(shops, models.Location{}, DefaultCount)
	require.Len(t, ranked, 3)
	assert.Equal(t, "first", ranked[0].Name)
	assert.Equal(t, "second", ranked[1].Name)
	assert.Equal(t, "third", ranked[2].Name)
}

func TestRankNearest_DoesNotModifyInput(t *testing.T) {
	shops := []models.ShopRecord{
		{Name: "far", Longitude: 10, Latitude: 10},
		{Name: "near", Longitude: 0, Latitude: 0},
	}
	original := append([]models.ShopRecord(nil), shops...)

	ranked := RankNearest(shops, models.Location{}, 1)
	require.Len(t, ranked, 1)
	assert.Equal(t, "near", ranked[0].Name)
	assert.Equal(t, original, shops)
}
