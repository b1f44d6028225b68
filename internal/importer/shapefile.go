package importer

import (
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gridsignal/loraplan/internal/model"
)

// ParseShapefile reads point features from a shapefile. Coordinates come
// from the geometry; the site name comes from a name-like attribute field.
// Non-point shapes are skipped.
func ParseShapefile(path string) ([]Record, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "importer: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	nameIdx, directIdx := -1, -1
	for i, f := range reader.Fields() {
		switch strings.ToLower(strings.TrimRight(f.String(), "\x00")) {
		case "name", "site", "site_name", "node":
			nameIdx = i
		case "direct", "direct_to_gateway", "gateway_direct":
			directIdx = i
		}
	}
	if nameIdx < 0 {
		return nil, eris.New("importer: shapefile has no name field")
	}

	attr := func(idx int) string {
		return strings.TrimSpace(strings.TrimRight(reader.Attribute(idx), "\x00"))
	}

	var records []Record
	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()
		point, ok := shape.(*shp.Point)
		if !ok {
			skipped++
			continue
		}

		name := attr(nameIdx)
		if name == "" || name == model.GatewayID {
			skipped++
			continue
		}

		rec := Record{
			Name:  name,
			Coord: model.Coordinate{Lat: point.Y, Lon: point.X},
		}
		if directIdx >= 0 {
			if raw := attr(directIdx); raw != "" {
				if v, err := strconv.ParseBool(raw); err == nil {
					rec.Direct = &v
				}
			}
		}
		records = append(records, rec)
	}

	if skipped > 0 {
		zap.L().Debug("importer: skipped shapefile records",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}

	return records, nil
}
