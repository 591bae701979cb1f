package mapview

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mspro-labs/brew-map/internal/config"
	"mspro-labs/brew-map/internal/models"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(config.DefaultSettings().Map)
	require.NoError(t, err)
	return r
}

var (
	testUser   = models.Location{Longitude: 37.620795, Latitude: 55.75393}
	testRanked = []models.RankedShop{
		{ShopRecord: models.ShopRecord{Name: "Шоколадница", Longitude: 37.6173, Latitude: 55.7558}, DistanceKm: 0.31415},
		{ShopRecord: models.ShopRecord{Name: "Cafe <b>&</b> \"Bar\"", Longitude: 37.61, Latitude: 55.76}, DistanceKm: 1.005},
		{ShopRecord: models.ShopRecord{Name: "Far away", Longitude: 37.5, Latitude: 55.7}, DistanceKm: 9.999},
	}
)

func TestRenderFile_RoundTrip(t *testing.T) {
	r := newTestRenderer(t)
	path := filepath.Join(t.TempDir(), "index.html")

	require.NoError(t, r.RenderFile(testRanked, testUser, path))

	markers, err := ReadMarkersFile(path)
	require.NoError(t, err)
	require.Len(t, markers, len(testRanked)+1)

	user := markers[0]
	assert.Equal(t, KindUser, user.Kind)
	assert.Equal(t, "red", user.Color)
	assert.Equal(t, "You are here", user.Tooltip)
	assert.Equal(t, "37.620795 55.75393", user.Popup)
	assert.Equal(t, testUser.Latitude, user.Latitude)
	assert.Equal(t, testUser.Longitude, user.Longitude)

	for i, shop := range testRanked {
		m := markers[i+1]
		assert.Equal(t, KindShop, m.Kind)
		assert.Equal(t, "blue", m.Color)
		assert.Equal(t, shop.Name, m.Tooltip)
		assert.Equal(t, shop.Latitude, m.Latitude)
		assert.Equal(t, shop.Longitude, m.Longitude)
	}
	assert.Equal(t, "Шоколадница, 0.31 km", markers[1].Popup)
	assert.Equal(t, "Cafe <b>&</b> \"Bar\", 1.00 km", markers[2].Popup)
	assert.Equal(t, "Far away, 10.00 km", markers[3].Popup)
}

func TestRender_NoShops(t *testing.T) {
	r := newTestRenderer(t)
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, nil, testUser))

	markers, err := ReadMarkers(&buf)
	require.NoError(t, err)
	require.Len(t, markers, 1)
	assert.Equal(t, KindUser, markers[0].Kind)
}

func TestRender_CenterUsesLatLonOrder(t *testing.T) {
	r := newTestRenderer(t)
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, testRanked, testUser))

	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)

	mapDiv := doc.Find("#map")
	require.Equal(t, 1, mapDiv.Length())
	assert.Equal(t, "55.75393", mapDiv.AttrOr("data-lat", ""))
	assert.Equal(t, "37.620795", mapDiv.AttrOr("data-lon", ""))
	assert.Equal(t, "15", mapDiv.AttrOr("data-zoom", ""))
}

func TestRender_LoadsMarkerIconStyles(t *testing.T) {
	r := newTestRenderer(t)
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, testRanked, testUser))

	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)

	script := doc.Find("script:not([src])").Text()
	require.Contains(t, script, `prefix: "glyphicon"`)
	assert.Equal(t, 1, doc.Find(`link[rel="stylesheet"][href*="bootstrap-glyphicons"]`).Length())
	assert.Equal(t, 1, doc.Find(`link[rel="stylesheet"][href*="leaflet.awesome-markers"]`).Length())
}

func TestRender_EscapesShopNames(t *testing.T) {
	r := newTestRenderer(t)
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, testRanked, testUser))

	assert.NotContains(t, buf.String(), "<b>&</b>")
}

func TestRender_CustomLabels(t *testing.T) {
	cfg := config.DefaultSettings().Map
	cfg.Labels = config.Labels{YouAreHere: "Вы здесь", Unit: "км", Separator: " — "}
	cfg.UserColor = "green"
	r, err := NewRenderer(cfg)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, testRanked[:1], testUser))

	markers, err := ReadMarkers(&buf)
	require.NoError(t, err)
	require.Len(t, markers, 2)
	assert.Equal(t, "Вы здесь", markers[0].Tooltip)
	assert.Equal(t, "green", markers[0].Color)
	assert.Equal(t, "Шоколадница — 0.31 км", markers[1].Popup)
}

func TestRenderFile_Overwrites(t *testing.T) {
	r := newTestRenderer(t)
	path := filepath.Join(t.TempDir(), "index.html")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("stale ", 10000)), 0o644))

	require.NoError(t, r.RenderFile(testRanked[:1], testUser, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "stale")
}

func TestRenderFile_NotWritable(t *testing.T) {
	r := newTestRenderer(t)
	path := filepath.Join(t.TempDir(), "missing-dir", "index.html")

	err := r.RenderFile(testRanked, testUser, path)

	var writeErr *WriteError
	require.True(t, errors.As(err, &writeErr))
	assert.Equal(t, path, writeErr.Path)
}

func TestReadMarkers_BadCoordinate(t *testing.T) {
	doc := `<ul id="markers"><li class="marker" data-lat="north" data-lon="1"></li></ul>`
	_, err := ReadMarkers(strings.NewReader(doc))
	assert.Error(t, err)
}
