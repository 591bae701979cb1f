// Package mapview renders ranked coffee shops onto a self-contained Leaflet
// page and reads such pages back.
package mapview

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"os"
	"strconv"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"

	"mspro-labs/brew-map/internal/config"
	"mspro-labs/brew-map/internal/models"
	"mspro-labs/brew-map/internal/web"
)

// Marker kinds written to data-kind.
const (
	KindUser = "user"
	KindShop = "shop"
)

// WriteError reports an artifact that could not be written.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write map to %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Marker is one labelled point on the map.
type Marker struct {
	Kind      string
	Latitude  float64
	Longitude float64
	Color     string
	Tooltip   string
	Popup     string
}

type page struct {
	Title       string
	Center      models.Location
	Zoom        int
	TileURL     string
	Attribution string
	Markers     []Marker
}

// Renderer turns ranked shops into a map document.
type Renderer struct {
	cfg  config.MapConfig
	tmpl *template.Template
}

// NewRenderer parses the embedded map template.
func NewRenderer(cfg config.MapConfig) (*Renderer, error) {
	tmpl, err := template.New("map.html").Funcs(template.FuncMap{
		"coord": func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) },
	}).ParseFS(web.GetTemplatesFS(), "map.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse map template: %w", err)
	}
	return &Renderer{cfg: cfg, tmpl: tmpl}, nil
}

// Markers builds the user marker followed by one marker per shop.
func (r *Renderer) Markers(ranked []models.RankedShop, user models.Location) []Marker {
	markers := make([]Marker, 0, len(ranked)+1)
	markers = append(markers, Marker{
		Kind:      KindUser,
		Latitude:  user.Latitude,
		Longitude: user.Longitude,
		Color:     r.cfg.UserColor,
		Tooltip:   r.cfg.Labels.YouAreHere,
		Popup:     user.String(),
	})
	for _, shop := range ranked {
		markers = append(markers, Marker{
			Kind:      KindShop,
			Latitude:  shop.Latitude,
			Longitude: shop.Longitude,
			Color:     r.cfg.ShopColor,
			Tooltip:   shop.Name,
			Popup:     fmt.Sprintf("%s%s%.2f %s", shop.Name, r.cfg.Labels.Separator, shop.DistanceKm, r.cfg.Labels.Unit),
		})
	}
	return markers
}

// Render writes the map document to w. The map is centred on the user,
// using the same (latitude, longitude) order as the markers.
func (r *Renderer) Render(w io.Writer, ranked []models.RankedShop, user models.Location) error {
	return r.tmpl.Execute(w, page{
		Title:       "Nearest coffee shops",
		Center:      user,
		Zoom:        r.cfg.Zoom,
		TileURL:     r.cfg.TileURL,
		Attribution: r.cfg.Attribution,
		Markers:     r.Markers(ranked, user),
	})
}

// RenderFile renders the map and writes it to outputPath, replacing any
// existing file.
func (r *Renderer) RenderFile(ranked []models.RankedShop, user models.Location, outputPath string) error {
	var buf bytes.Buffer
	if err := r.Render(&buf, ranked, user); err != nil {
		return fmt.Errorf("failed to render map: %w", err)
	}
	if err := os.WriteFile(outputPath, buf.Bytes(), 0o644); err != nil {
		return &WriteError{Path: outputPath, Err: err}
	}

	log.WithFields(log.Fields{"path": outputPath, "markers": len(ranked) + 1}).Info("Map written")
	return nil
}

// ReadMarkers parses a rendered map document and returns its markers in
// document order.
func ReadMarkers(r io.Reader) ([]Marker, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	var (
		markers []Marker
		readErr error
	)
	doc.Find("#markers li.marker").EachWithBreak(func(i int, s *goquery.Selection) bool {
		m := Marker{
			Kind:    s.AttrOr("data-kind", ""),
			Color:   s.AttrOr("data-color", ""),
			Tooltip: s.AttrOr("data-tooltip", ""),
			Popup:   s.AttrOr("data-popup", ""),
		}
		if m.Latitude, readErr = strconv.ParseFloat(s.AttrOr("data-lat", ""), 64); readErr != nil {
			readErr = fmt.Errorf("marker %d: bad latitude: %w", i, readErr)
			return false
		}
		if m.Longitude, readErr = strconv.ParseFloat(s.AttrOr("data-lon", ""), 64); readErr != nil {
			readErr = fmt.Errorf("marker %d: bad longitude: %w", i, readErr)
			return false
		}
		markers = append(markers, m)
		return true
	})
	if readErr != nil {
		return nil, readErr
	}
	return markers, nil
}

// ReadMarkersFile is ReadMarkers on the file at path.
func ReadMarkersFile(path string) ([]Marker, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadMarkers(f)
}
