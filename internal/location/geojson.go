package location

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// featureCollection keeps member order type, properties, geometry and
// always emits features, even when empty.
type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	Type       string            `json:"type"`
	Properties map[string]string `json:"properties"`
	Geometry   *geojson.Geometry `json:"geometry"`
}

func newFeatureCollection() *featureCollection {
	return &featureCollection{Type: "FeatureCollection", Features: []feature{}}
}

// addPoint appends a Point feature named name at lon/lat.
func (fc *featureCollection) addPoint(name string, lat, lon float64) error {
	point := geom.NewPointFlat(geom.XY, []float64{lon, lat})
	g, err := geojson.Encode(point)
	if err != nil {
		return eris.Wrapf(err, "location: encode point for %q", name)
	}
	fc.Features = append(fc.Features, feature{
		Type:       "Feature",
		Properties: map[string]string{"name": name},
		Geometry:   g,
	})
	return nil
}

func (fc *featureCollection) marshal() (string, error) {
	data, err := json.Marshal(fc)
	if err != nil {
		return "", eris.Wrap(err, "location: marshal feature collection")
	}
	return string(data), nil
}
