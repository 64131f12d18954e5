package cube

import (
	"encoding/json"
	"fmt"
	"io"
)

// rootLevelName is the name engines give the implicit root level of a
// non-slicing hierarchy in discovery documents.
const rootLevelName = "ALL"

type discoveryDoc struct {
	Cubes []cubeDoc `json:"cubes"`
}

type cubeDoc struct {
	Name       string         `json:"name"`
	Dimensions []dimensionDoc `json:"dimensions"`
	Measures   []measureDoc   `json:"measures"`
}

type dimensionDoc struct {
	Name        string         `json:"name"`
	Hierarchies []hierarchyDoc `json:"hierarchies"`
}

type hierarchyDoc struct {
	Name    string     `json:"name"`
	Slicing bool       `json:"slicing"`
	Levels  []levelDoc `json:"levels"`
}

type levelDoc struct {
	Name    string `json:"name"`
	Caption string `json:"caption"`
	Type    string `json:"type"`
}

type measureDoc struct {
	Name         string `json:"name"`
	Caption      string `json:"caption"`
	Visible      *bool  `json:"visible"`
	Folder       string `json:"folder"`
	FormatString string `json:"formatString"`
	Description  string `json:"description"`
}

// DecodeDiscovery reads a JSON discovery document.
//
// A leading level named "ALL" on a non-slicing hierarchy is the implicit
// root and is not exposed as a level. A "Measures" dimension, which some
// engines list among the dimensions, is skipped.
func DecodeDiscovery(r io.Reader) (*Discovery, error) {
	var doc discoveryDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode discovery: %w", err)
	}
	return doc.toDiscovery()
}

func (doc discoveryDoc) toDiscovery() (*Discovery, error) {
	disc := &Discovery{}
	for _, cd := range doc.Cubes {
		c, err := cd.toCube()
		if err != nil {
			return nil, err
		}
		disc.Cubes = append(disc.Cubes, c)
	}
	return disc, nil
}

func (cd cubeDoc) toCube() (*Cube, error) {
	var dims []*Dimension
	for _, dd := range cd.Dimensions {
		if dd.Name == MeasuresDimension {
			continue
		}
		dim := &Dimension{Name: dd.Name}
		for _, hd := range dd.Hierarchies {
			h := &Hierarchy{Name: hd.Name, Slicing: hd.Slicing}
			for i, ld := range hd.Levels {
				if i == 0 && !hd.Slicing && ld.Name == rootLevelName {
					continue
				}
				h.Levels = append(h.Levels, &Level{
					Name:    ld.Name,
					Caption: ld.Caption,
					Type:    ParseLevelType(ld.Type),
				})
			}
			dim.Hierarchies = append(dim.Hierarchies, h)
		}
		dims = append(dims, dim)
	}

	measures := make([]*Measure, 0, len(cd.Measures))
	for _, md := range cd.Measures {
		visible := true
		if md.Visible != nil {
			visible = *md.Visible
		}
		measures = append(measures, &Measure{
			Name:         md.Name,
			Caption:      md.Caption,
			Visible:      visible,
			Folder:       md.Folder,
			FormatString: md.FormatString,
			Description:  md.Description,
		})
	}

	return New(cd.Name, dims, measures)
}

// MarshalJSON encodes the discovery in the same shape DecodeDiscovery reads.
func (d *Discovery) MarshalJSON() ([]byte, error) {
	doc := discoveryDoc{Cubes: make([]cubeDoc, 0, len(d.Cubes))}
	for _, c := range d.Cubes {
		doc.Cubes = append(doc.Cubes, c.toDoc())
	}
	return json.Marshal(doc)
}

// MarshalJSON encodes the cube in its discovery form.
func (c *Cube) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.toDoc())
}

func (c *Cube) toDoc() cubeDoc {
	cd := cubeDoc{Name: c.Name, Dimensions: []dimensionDoc{}, Measures: []measureDoc{}}
	for _, d := range c.Dimensions {
		dd := dimensionDoc{Name: d.Name}
		for _, h := range d.Hierarchies {
			hd := hierarchyDoc{Name: h.Name, Slicing: h.Slicing}
			for _, l := range h.Levels {
				hd.Levels = append(hd.Levels, levelDoc{Name: l.Name, Caption: l.Caption, Type: l.Type.Tag})
			}
			dd.Hierarchies = append(dd.Hierarchies, hd)
		}
		cd.Dimensions = append(cd.Dimensions, dd)
	}
	for _, m := range c.Measures {
		visible := m.Visible
		cd.Measures = append(cd.Measures, measureDoc{
			Name:         m.Name,
			Caption:      m.Caption,
			Visible:      &visible,
			Folder:       m.Folder,
			FormatString: m.FormatString,
			Description:  m.Description,
		})
	}
	return cd
}
