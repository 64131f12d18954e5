package cube

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
)

// LoadError reports a problem in a CUE cube definition.
type LoadError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// LoadCUE loads every cube defined in the CUE package in dir.
//
// Cubes are declared under the top-level "cube" struct:
//
//	cube: Sales: {
//		dimensions: Date: hierarchies: Date: {
//			levels: [{name: "Year", type: "int"}, {name: "Day", type: "LocalDate[yyyy-MM-dd]"}]
//		}
//		measures: "Price.SUM": {caption: "Price", format: "#,###.00"}
//	}
//
// Field order is declaration order, which fixes dimension, hierarchy and
// measure order.
func LoadCUE(dir string) (*Discovery, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("cube definitions: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("cube definitions: not a directory: %s", dir)
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("cube definitions: no CUE instances in %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, formatCUEError(inst.Err)
	}

	value := cuecontext.New().BuildInstance(inst)
	return DecodeCUE(value)
}

// CompileCUE compiles CUE source text holding cube definitions.
func CompileCUE(src string) (*Discovery, error) {
	value := cuecontext.New().CompileString(src)
	return DecodeCUE(value)
}

// DecodeCUE decodes the cubes declared under "cube" in v.
func DecodeCUE(v cue.Value) (*Discovery, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	cubesVal := v.LookupPath(cue.ParsePath("cube"))
	if !cubesVal.Exists() {
		return nil, &LoadError{Field: "cube", Message: "no cube declared", Pos: v.Pos()}
	}

	iter, err := cubesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	disc := &Discovery{}
	for iter.Next() {
		c, err := decodeCube(fieldName(iter), iter.Value())
		if err != nil {
			return nil, err
		}
		disc.Cubes = append(disc.Cubes, c)
	}
	return disc, nil
}

func decodeCube(name string, v cue.Value) (*Cube, error) {
	var dims []*Dimension
	dimsVal := v.LookupPath(cue.ParsePath("dimensions"))
	if dimsVal.Exists() {
		iter, err := dimsVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			d, err := decodeDimension(fieldName(iter), iter.Value())
			if err != nil {
				return nil, err
			}
			dims = append(dims, d)
		}
	}

	var measures []*Measure
	measuresVal := v.LookupPath(cue.ParsePath("measures"))
	if measuresVal.Exists() {
		iter, err := measuresVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			m, err := decodeMeasure(fieldName(iter), iter.Value())
			if err != nil {
				return nil, err
			}
			measures = append(measures, m)
		}
	}

	c, err := New(name, dims, measures)
	if err != nil {
		return nil, &LoadError{Field: "cube." + name, Message: err.Error(), Pos: v.Pos()}
	}
	return c, nil
}

func decodeDimension(name string, v cue.Value) (*Dimension, error) {
	d := &Dimension{Name: name}
	hiersVal := v.LookupPath(cue.ParsePath("hierarchies"))
	if !hiersVal.Exists() {
		return nil, &LoadError{Field: "hierarchies", Message: fmt.Sprintf("dimension %q declares no hierarchies", name), Pos: v.Pos()}
	}
	iter, err := hiersVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		h, err := decodeHierarchy(fieldName(iter), iter.Value())
		if err != nil {
			return nil, err
		}
		d.Hierarchies = append(d.Hierarchies, h)
	}
	return d, nil
}

func decodeHierarchy(name string, v cue.Value) (*Hierarchy, error) {
	slicing, err := optionalBool(v, "slicing", false)
	if err != nil {
		return nil, err
	}
	h := &Hierarchy{Name: name, Slicing: slicing}

	levelsVal := v.LookupPath(cue.ParsePath("levels"))
	if !levelsVal.Exists() {
		return nil, &LoadError{Field: "levels", Message: fmt.Sprintf("hierarchy %q declares no levels", name), Pos: v.Pos()}
	}
	iter, err := levelsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		lv := iter.Value()

		// A bare string is shorthand for an untyped level.
		if s, err := lv.String(); err == nil {
			h.Levels = append(h.Levels, &Level{Name: s, Type: ParseLevelType("")})
			continue
		}

		levelName, err := requiredString(lv, "name")
		if err != nil {
			return nil, err
		}
		caption, err := optionalString(lv, "caption")
		if err != nil {
			return nil, err
		}
		tag, err := optionalString(lv, "type")
		if err != nil {
			return nil, err
		}
		h.Levels = append(h.Levels, &Level{Name: levelName, Caption: caption, Type: ParseLevelType(tag)})
	}
	return h, nil
}

func decodeMeasure(name string, v cue.Value) (*Measure, error) {
	m := &Measure{Name: name}
	var err error
	if m.Caption, err = optionalString(v, "caption"); err != nil {
		return nil, err
	}
	if m.Folder, err = optionalString(v, "folder"); err != nil {
		return nil, err
	}
	if m.FormatString, err = optionalString(v, "format"); err != nil {
		return nil, err
	}
	if m.Description, err = optionalString(v, "description"); err != nil {
		return nil, err
	}
	if m.Visible, err = optionalBool(v, "visible", true); err != nil {
		return nil, err
	}
	return m, nil
}

func requiredString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", &LoadError{Field: field, Message: field + " is required", Pos: v.Pos()}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalBool(v cue.Value, field string, def bool) (bool, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return def, nil
	}
	b, err := fv.Bool()
	if err != nil {
		return false, formatCUEError(err)
	}
	return b, nil
}

// formatCUEError keeps the first CUE error with its source position.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		return &LoadError{Field: "cue", Message: first.Error(), Pos: positions[0]}
	}
	return err
}

// fieldName returns the unquoted label of the current struct field, so
// quoted labels such as "Price.SUM" come back without quotes.
func fieldName(iter *cue.Iterator) string {
	sel := iter.Selector()
	if sel.LabelType() == cue.StringLabel {
		return sel.Unquoted()
	}
	return sel.String()
}
