// Package loader reads the coffee shop data file.
package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"golang.org/x/text/encoding/charmap"

	"mspro-labs/brew-map/internal/models"
)

// FileError reports a data file that is missing, unreadable or malformed.
type FileError struct {
	Path string
	Op   string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// rawShop mirrors one object of the source file. Pointers distinguish absent
// fields from zero values.
type rawShop struct {
	Name    *string `json:"Name"`
	GeoData *struct {
		Coordinates []*float64 `json:"coordinates"`
	} `json:"geoData"`
}

// LoadShops reads a CP1251-encoded JSON array of shops from path.
// A record without Name or a [lon, lat] coordinate pair fails the whole load.
func LoadShops(path string) ([]models.ShopRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &FileError{Path: path, Op: "read", Err: err}
	}

	shops, err := ParseShops(raw)
	if err != nil {
		return nil, &FileError{Path: path, Op: "parse", Err: err}
	}

	log.WithFields(log.Fields{"path": path, "shops": len(shops)}).Info("Loaded coffee shops")
	return shops, nil
}

// ParseShops decodes CP1251 bytes into shop records.
func ParseShops(raw []byte) ([]models.ShopRecord, error) {
	decoded, err := charmap.Windows1251.NewDecoder().Bytes(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode CP1251: %w", err)
	}

	var records []rawShop
	if err := json.Unmarshal(decoded, &records); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	shops := make([]models.ShopRecord, 0, len(records))
	for i, r := range records {
		if r.Name == nil {
			return nil, fmt.Errorf("record %d: %w", i, errMissingName)
		}
		if r.GeoData == nil || r.GeoData.Coordinates == nil {
			return nil, fmt.Errorf("record %d (%s): %w", i, *r.Name, errMissingCoordinates)
		}
		if n := len(r.GeoData.Coordinates); n != 2 {
			return nil, fmt.Errorf("record %d (%s): expected [lon, lat], got %d values", i, *r.Name, n)
		}
		lon, lat := r.GeoData.Coordinates[0], r.GeoData.Coordinates[1]
		if lon == nil || lat == nil {
			return nil, fmt.Errorf("record %d (%s): %w", i, *r.Name, errNullCoordinate)
		}
		shops = append(shops, models.ShopRecord{
			Name:      *r.Name,
			Longitude: *lon,
			Latitude:  *lat,
		})
	}
	return shops, nil
}

var (
	errMissingName        = errors.New("missing Name")
	errMissingCoordinates = errors.New("missing geoData.coordinates")
	errNullCoordinate     = errors.New("null coordinate")
)
