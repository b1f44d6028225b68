package export

import (
	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/gridsignal/loraplan/internal/model"
)

// GeoJSON renders a plan as a FeatureCollection: one point feature per
// site (gateway included) and one LineString per tree edge, with the
// frequency assignment carried in feature properties. Coordinates are
// GeoJSON-ordered (lon, lat).
func GeoJSON(result *model.PlanResult) ([]byte, error) {
	fc := &geojson.FeatureCollection{}

	fc.Features = append(fc.Features, &geojson.Feature{
		ID:       model.GatewayID,
		Geometry: point(result.Gateway.Coordinate),
		Properties: map[string]any{
			"kind":      "gateway",
			"freq_down": result.Frequencies.GatewayDownlink,
		},
	})

	for _, n := range result.Nodes {
		props := map[string]any{
			"kind":              "node",
			"direct_to_gateway": n.DirectToGateway,
			"attached":          result.Tree.Attached(n.Name),
		}
		if parent, ok := result.Tree.Parent[n.Name]; ok {
			props["parent"] = parent
		}
		if up, ok := result.Frequencies.Uplink[n.Name]; ok {
			props["freq_up"] = up
		}
		if down, ok := result.Frequencies.Downlink[n.Name]; ok {
			props["freq_down"] = down
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         n.Name,
			Geometry:   point(n.Coordinate),
			Properties: props,
		})
	}

	for _, name := range result.Tree.Order {
		parent := result.Tree.Parent[name]
		from := result.Gateway.Coordinate
		if parent != model.GatewayID {
			pn := nodeByName(result, parent)
			if pn == nil {
				return nil, eris.Errorf("export: tree edge references unknown node %q", parent)
			}
			from = pn.Coordinate
		}
		to := nodeByName(result, name)
		if to == nil {
			return nil, eris.Errorf("export: tree edge references unknown node %q", name)
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry: geom.NewLineStringFlat(geom.XY, []float64{
				from.Lon, from.Lat,
				to.Coordinate.Lon, to.Coordinate.Lat,
			}),
			Properties: map[string]any{
				"kind": "link",
				"from": parent,
				"to":   name,
			},
		})
	}

	doc, err := fc.MarshalJSON()
	if err != nil {
		return nil, eris.Wrap(err, "export: marshal geojson")
	}
	return doc, nil
}

func point(c model.Coordinate) *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{c.Lon, c.Lat})
}
