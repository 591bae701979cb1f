// Package export writes ranked shops to a spreadsheet.
package export

import (
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"

	"mspro-labs/brew-map/internal/models"
)

// DefaultSheet is the sheet name used by WriteXLSX.
const DefaultSheet = "Nearest"

var headers = []interface{}{"#", "Name", "Latitude", "Longitude", "Distance (km)"}

// WriteXLSX saves ranked shops, nearest first, to an .xlsx file at path.
// The first row holds the user's own location, the second the column headers.
func WriteXLSX(path string, ranked []models.RankedShop, user models.Location) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(DefaultSheet)
	if err != nil {
		return err
	}

	// Use Stream Writer for performance
	sw, err := f.NewStreamWriter(DefaultSheet)
	if err != nil {
		return err
	}

	if err := sw.SetRow("A1", []interface{}{"Your location", "", user.Latitude, user.Longitude}); err != nil {
		return err
	}
	if err := sw.SetRow("A2", headers); err != nil {
		return err
	}

	for i, r := range ranked {
		cell, _ := excelize.CoordinatesToCellName(1, i+3)
		row := []interface{}{
			i + 1, r.Name, r.Latitude, r.Longitude,
			math.Round(r.DistanceKm*100) / 100,
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return err
	}

	f.SetActiveSheet(index)
	// Delete the default sheet
	f.DeleteSheet("Sheet1")

	return f.SaveAs(path)
}
