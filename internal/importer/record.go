// Package importer parses site-list files (CSV, XLSX, shapefile) into
// candidate node records and ingests them into the network store.
package importer

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/gridsignal/loraplan/internal/model"
)

// Record is a single candidate site parsed from an import source.
// Direct is nil when the source carries no direct-to-gateway column,
// in which case eligibility is computed during ingest.
type Record struct {
	Name   string
	Coord  model.Coordinate
	Direct *bool
}

// columnMap resolves well-known header aliases to column indexes.
type columnMap struct {
	name   int
	lat    int
	lon    int
	direct int
}

func mapColumns(header []string) (columnMap, error) {
	cm := columnMap{name: -1, lat: -1, lon: -1, direct: -1}
	for i, raw := range header {
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "name", "site", "site_name", "node":
			cm.name = i
		case "lat", "latitude", "y":
			cm.lat = i
		case "lon", "lng", "long", "longitude", "x":
			cm.lon = i
		case "direct", "direct_to_gateway", "gateway_direct":
			cm.direct = i
		}
	}
	if cm.name < 0 {
		return cm, eris.New("importer: no name column in header")
	}
	if cm.lat < 0 || cm.lon < 0 {
		return cm, eris.New("importer: no coordinate columns in header")
	}
	return cm, nil
}

func (cm columnMap) record(cells []string) (Record, error) {
	get := func(i int) string {
		if i < 0 || i >= len(cells) {
			return ""
		}
		return strings.TrimSpace(cells[i])
	}

	name := get(cm.name)
	if name == "" {
		return Record{}, eris.New("importer: empty site name")
	}
	if name == model.GatewayID {
		return Record{}, eris.Errorf("importer: site name %q is reserved", model.GatewayID)
	}

	lat, err := strconv.ParseFloat(get(cm.lat), 64)
	if err != nil {
		return Record{}, eris.Wrapf(err, "importer: site %q latitude", name)
	}
	lon, err := strconv.ParseFloat(get(cm.lon), 64)
	if err != nil {
		return Record{}, eris.Wrapf(err, "importer: site %q longitude", name)
	}

	rec := Record{Name: name, Coord: model.Coordinate{Lat: lat, Lon: lon}}

	if raw := get(cm.direct); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return Record{}, eris.Wrapf(err, "importer: site %q direct flag", name)
		}
		rec.Direct = &v
	}

	return rec, nil
}
