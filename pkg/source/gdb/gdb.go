// Package gdb reads building records from a file geodatabase (or any
// OGR-readable vector dataset) through GDAL. Multipatch geometries come
// back as polygon rings; attribute values are stringified by OGR.
package gdb

import (
	"fmt"
	"io"
	"strings"

	"github.com/lukeroth/gdal"

	"github.com/solidmetrics/solidmetrics/internal/model"
	"github.com/solidmetrics/solidmetrics/pkg/errors"
	"github.com/solidmetrics/solidmetrics/pkg/geometry"
)

// Source iterates one layer of an OGR data source.
type Source struct {
	ds     gdal.DataSource
	layer  gdal.Layer
	schema []string
	count  int
	index  int
	closed bool
}

// Open opens the data source at path read-only and positions the source on
// the named layer. Missing datasets and unknown layers fail here, before
// any record is read; malformed geometries inside the layer do not.
func Open(path, layerName string) (*Source, error) {
	ds := gdal.OpenDataSource(path, 0)
	// OGROpen signals failure with a null handle, so the zero value is the
	// only failure marker this binding exposes.
	if ds == (gdal.DataSource{}) {
		return nil, errors.InputNotFound(path)
	}

	available := make([]string, ds.LayerCount())
	match := -1
	for i := range available {
		available[i] = ds.LayerByIndex(i).Name()
		if available[i] == layerName {
			match = i
		}
	}
	if match < 0 {
		// Tolerate prefixed layer names the way dataset exports produce them.
		for i, name := range available {
			if strings.Contains(name, layerName) {
				match = i
				break
			}
		}
	}
	if match < 0 {
		ds.Destroy()
		return nil, errors.LayerNotFound(layerName, available)
	}
	layer := ds.LayerByIndex(match)

	count, ok := layer.FeatureCount(true)
	if !ok {
		ds.Destroy()
		return nil, fmt.Errorf("failed to count features in layer %q", layerName)
	}

	defn := layer.Definition()
	schema := make([]string, defn.FieldCount())
	for i := range schema {
		schema[i] = defn.FieldDefinition(i).Name()
	}

	layer.ResetReading()
	return &Source{ds: ds, layer: layer, schema: schema, count: count}, nil
}

// Schema returns the layer's attribute field names in definition order.
func (s *Source) Schema() []string { return s.schema }

// Count returns the layer's feature count.
func (s *Source) Count() int { return s.count }

// Next reads the next feature. Geometry extraction never fails here: a
// feature whose geometry cannot be decoded yields a record with no rings,
// which the processor turns into a failed row.
func (s *Source) Next() (*model.RawBuildingRecord, error) {
	feature := s.layer.NextFeature()
	if feature == nil {
		return nil, io.EOF
	}
	defer feature.Destroy()

	attrs := make(map[string]string, len(s.schema))
	for i, name := range s.schema {
		if feature.IsFieldSet(i) {
			attrs[name] = feature.FieldAsString(i)
		} else {
			attrs[name] = ""
		}
	}

	rec := &model.RawBuildingRecord{
		Index: s.index,
		Attrs: attrs,
		Rings: extractRings(feature.Geometry()),
	}
	s.index++
	return rec, nil
}

// Close releases the data source handle.
func (s *Source) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.ds.Destroy()
	return nil
}

// extractRings walks a geometry tree and collects every linear ring as a
// sequence of 3D points. Multipatch solids arrive as nested multipolygons;
// leaves are the rings themselves.
func extractRings(g gdal.Geometry) [][]geometry.Vector3 {
	if g.IsNull() {
		return nil
	}
	var rings [][]geometry.Vector3
	collectRings(g, &rings)
	return rings
}

func collectRings(g gdal.Geometry, rings *[][]geometry.Vector3) {
	if n := g.PointCount(); n > 0 {
		ring := make([]geometry.Vector3, 0, n)
		for i := 0; i < n; i++ {
			x, y, z := g.Point(i)
			ring = append(ring, geometry.Vector3{X: x, Y: y, Z: z})
		}
		*rings = append(*rings, ring)
		return
	}
	for i := 0; i < g.GeometryCount(); i++ {
		collectRings(g.Geometry(i), rings)
	}
}
