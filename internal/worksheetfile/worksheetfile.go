// Package worksheetfile reads scoring inputs for the command line: YAML
// worksheet files and the -ratings / -class flag values.
//
// A worksheet file looks like:
//
//	ratings:
//	  2.1: 4
//	  2.2: 5
//	  3.3: 4
//	classes:
//	  - size: 25
//	    met: 18
//	  - size: 22
//	    met: 15
//
// Dimensions left out of ratings default to 3. File values are clamped the
// same way interactive edits are; flag values are checked strictly.
package worksheetfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tiacalc/tiacalc/pkg/types"
)

type fileClass struct {
	Size int `yaml:"size"`
	Met  int `yaml:"met"`
}

type file struct {
	Ratings *types.RatingSet `yaml:"ratings"`
	Classes []fileClass      `yaml:"classes"`
}

// Load reads the worksheet at path.
func Load(path string) (types.Worksheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.Worksheet{}, fmt.Errorf("worksheet: %w", err)
	}
	defer f.Close()

	ws, err := Parse(f)
	if err != nil {
		return types.Worksheet{}, fmt.Errorf("worksheet %q: %w", path, err)
	}
	return ws, nil
}

// Parse decodes a worksheet document. Unknown top-level keys and unknown
// dimensions are errors.
func Parse(r io.Reader) (types.Worksheet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return types.Worksheet{}, err
	}

	var doc file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return types.Worksheet{}, fmt.Errorf("parse yaml: %w", err)
	}

	ws := types.Worksheet{Ratings: types.NewRatingSet()}
	if doc.Ratings != nil {
		ws.Ratings = *doc.Ratings
	}
	records := make([]types.ClassRecord, len(doc.Classes))
	for i, c := range doc.Classes {
		records[i] = types.NewClassRecord(strconv.Itoa(i+1), c.Size, c.Met)
	}
	ws.Classes = types.NewClassList(records...)
	return ws, nil
}

// ParseRatings parses a -ratings value. Two forms are accepted:
//
//	4,4,3,5,4,4,3,4            eight values in dimension order
//	2.1=4,3.3=5                named dimensions; the rest default to 3
//
// Every value must be an integer in [1, 5].
func ParseRatings(s string) (types.RatingSet, error) {
	rs := types.NewRatingSet()
	parts := strings.Split(s, ",")

	if !strings.Contains(s, "=") {
		if len(parts) != types.NumDimensions {
			return rs, fmt.Errorf("ratings: want %d comma-separated values, got %d", types.NumDimensions, len(parts))
		}
		for i, p := range parts {
			v, err := parseRating(p)
			if err != nil {
				return rs, fmt.Errorf("ratings: %s: %w", types.Dimensions[i], err)
			}
			_ = rs.Set(types.Dimensions[i], v)
		}
		return rs, nil
	}

	seen := make(map[types.Dimension]bool, len(parts))
	for _, p := range parts {
		key, val, ok := strings.Cut(p, "=")
		if !ok {
			return rs, fmt.Errorf("ratings: %q: want dimension=value", p)
		}
		d, err := types.ParseDimension(strings.TrimSpace(key))
		if err != nil {
			return rs, fmt.Errorf("ratings: %w", err)
		}
		if seen[d] {
			return rs, fmt.Errorf("ratings: %s given twice", d)
		}
		seen[d] = true
		v, err := parseRating(val)
		if err != nil {
			return rs, fmt.Errorf("ratings: %s: %w", d, err)
		}
		_ = rs.Set(d, v)
	}
	return rs, nil
}

func parseRating(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", strings.TrimSpace(s))
	}
	if v < types.MinRating || v > types.MaxRating {
		return 0, fmt.Errorf("%d out of range [%d, %d]", v, types.MinRating, types.MaxRating)
	}
	return v, nil
}

// ParseClass parses a -class value of the form size:met.
func ParseClass(s string) (size, met int, err error) {
	a, b, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("class %q: want size:met", s)
	}
	if size, err = strconv.Atoi(strings.TrimSpace(a)); err != nil {
		return 0, 0, fmt.Errorf("class %q: size is not an integer", s)
	}
	if met, err = strconv.Atoi(strings.TrimSpace(b)); err != nil {
		return 0, 0, fmt.Errorf("class %q: met is not an integer", s)
	}
	switch {
	case size < 0:
		return 0, 0, fmt.Errorf("class %q: size must not be negative", s)
	case met < 0:
		return 0, 0, fmt.Errorf("class %q: met must not be negative", s)
	case met > size:
		return 0, 0, fmt.Errorf("class %q: met exceeds size", s)
	}
	return size, met, nil
}

// ClassFlag collects repeated -class flags. It implements flag.Value.
type ClassFlag []types.ClassRecord

func (f *ClassFlag) String() string {
	if f == nil {
		return ""
	}
	parts := make([]string, len(*f))
	for i, c := range *f {
		parts[i] = fmt.Sprintf("%d:%d", c.Size(), c.Met())
	}
	return strings.Join(parts, ",")
}

func (f *ClassFlag) Set(s string) error {
	size, met, err := ParseClass(s)
	if err != nil {
		return err
	}
	*f = append(*f, types.NewClassRecord(strconv.Itoa(len(*f)+1), size, met))
	return nil
}
