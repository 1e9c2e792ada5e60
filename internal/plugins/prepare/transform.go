package prepare

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/scanbinder/internal/config"
	ferrors "git.home.luguber.info/inful/scanbinder/internal/foundation/errors"
)

// Edge names accepted by chop-edge.
const (
	EdgeNorth = "north"
	EdgeEast  = "east"
	EdgeSouth = "south"
	EdgeWest  = "west"
	EdgeNone  = "none"
)

// borderSize is the margin added before trimming so edges touching the image
// border are detected.
const borderSize = 10

var transformDefaults = map[string]string{
	"justconvert": "no",
	"chop-edge":   "None",
	"rotate-odd":  "0",
	"rotate-even": "0",
	"blur":        "10",
	"fuzz":        "30",
}

var transformKeys = []string{
	"justconvert",
	"chop-edge",
	"chop-size",
	"chop-background",
	"rotate-odd",
	"rotate-even",
	"blur",
	"fuzz",
}

// Transform is the per-directory image processing recipe.
type Transform struct {
	JustConvert bool
	// Chop holds the edges to chop, in north, east, south, west order.
	Chop           []string
	ChopSize       int
	ChopBackground string
	RotateOdd      int
	RotateEven     int
	Blur           int
	Fuzz           int
}

// Rotation returns the rotation angle for page num.
func (t Transform) Rotation(num int) int {
	if num%2 == 0 {
		return t.RotateEven
	}
	return t.RotateOdd
}

type transformDocument struct {
	Transform map[string]string `yaml:"transform"`
}

func transformError(path, format string, args ...any) error {
	return ferrors.NewErrorf(ferrors.CategoryConfig, "incorrect '%s' file: "+format, append([]any{path}, args...)...).
		WithKind(config.ErrConfig).
		WithContext("path", path).
		Build()
}

// ReadTransform loads the transform file at path.
func ReadTransform(path string) (Transform, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Transform{}, ferrors.WrapError(err, ferrors.CategoryConfig, fmt.Sprintf("cannot read config file '%s'", path)).
			WithKind(config.ErrConfig).
			WithContext("path", path).
			Build()
	}
	return ParseTransform(path, data)
}

// ParseTransform parses transform file contents. name is used in errors.
func ParseTransform(name string, data []byte) (Transform, error) {
	var doc transformDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Transform{}, transformError(name, "%v", err)
	}
	if doc.Transform == nil {
		return Transform{}, transformError(name, "no 'transform' section")
	}

	var extra []string
	for k := range doc.Transform {
		if !slices.Contains(transformKeys, k) {
			extra = append(extra, k)
		}
	}
	if len(extra) > 0 {
		slices.Sort(extra)
		return Transform{}, transformError(name, "unhandled extra options: %s", strings.Join(extra, ", "))
	}

	values := maps.Clone(transformDefaults)
	maps.Copy(values, doc.Transform)
	get := func(key string) (string, error) {
		v, ok := values[key]
		if !ok {
			return "", transformError(name, "option '%s' is missing", key)
		}
		return strings.TrimSpace(v), nil
	}
	getInt := func(key string) (int, error) {
		v, err := get(key)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, transformError(name, "option '%s' should be an integer, got %q", key, v)
		}
		return n, nil
	}

	var (
		t   Transform
		err error
	)
	jc, _ := get("justconvert")
	if t.JustConvert, err = config.ParseBool(jc); err != nil {
		return Transform{}, transformError(name, "option 'justconvert' should be a boolean, got %q", jc)
	}
	if t.JustConvert {
		return t, nil
	}

	edges, _ := get("chop-edge")
	if t.Chop, err = normalizeChop(name, edges); err != nil {
		return Transform{}, err
	}
	if len(t.Chop) > 0 {
		if t.ChopSize, err = getInt("chop-size"); err != nil {
			return Transform{}, err
		}
		if t.ChopBackground, err = get("chop-background"); err != nil {
			return Transform{}, err
		}
		if !isAlnum(t.ChopBackground) {
			return Transform{}, transformError(name, "'chop-background' value should contain only letters and digits")
		}
	}
	for _, f := range []struct {
		key string
		dst *int
	}{
		{"rotate-odd", &t.RotateOdd},
		{"rotate-even", &t.RotateEven},
		{"blur", &t.Blur},
		{"fuzz", &t.Fuzz},
	} {
		if *f.dst, err = getInt(f.key); err != nil {
			return Transform{}, err
		}
	}
	return t, nil
}

func normalizeChop(name, value string) ([]string, error) {
	set := make(map[string]struct{})
	for _, f := range strings.Fields(strings.ToLower(value)) {
		set[f] = struct{}{}
	}
	if _, ok := set[EdgeNone]; ok {
		if len(set) != 1 {
			return nil, transformError(name, "'none' should not be combined with anything else as 'chop-edge' value")
		}
		return nil, nil
	}

	var edges, bad []string
	for _, e := range []string{EdgeNorth, EdgeEast, EdgeSouth, EdgeWest} {
		if _, ok := set[e]; ok {
			edges = append(edges, e)
			delete(set, e)
		}
	}
	for e := range set {
		bad = append(bad, e)
	}
	if len(bad) > 0 {
		slices.Sort(bad)
		return nil, transformError(name, "incorrect values for 'chop-edge' option: %s", strings.Join(bad, ", "))
	}
	return edges, nil
}

func isAlnum(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !('a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || '0' <= r && r <= '9') {
			return false
		}
	}
	return true
}

// TrimArgs returns the convert arguments that print the content box of input
// as "X Y W H".
func (t Transform) TrimArgs(input string) []string {
	args := []string{input, "-background", t.ChopBackground}
	for _, edge := range t.Chop {
		size := fmt.Sprintf("%dx0", t.ChopSize)
		if edge == EdgeNorth || edge == EdgeSouth {
			size = fmt.Sprintf("0x%d", t.ChopSize)
		}
		args = append(args, "-gravity", edge, "-chop", size, "-splice", size)
	}
	return append(args,
		"-bordercolor", t.ChopBackground,
		"-border", fmt.Sprintf("%dx%d", borderSize, borderSize),
		"-virtual-pixel", "edge",
		"-blur", fmt.Sprintf("0x%d", t.Blur),
		"-fuzz", fmt.Sprintf("%d%%", t.Fuzz),
		"-trim",
		"-format", "%X %Y %w %h",
		"info:-")
}

// CropGeometry turns the "X Y W H" box printed by TrimArgs into a crop
// geometry for the original image, undoing the border and chopped edges.
func (t Transform) CropGeometry(box string) (string, error) {
	fields := strings.Fields(box)
	if len(fields) != 4 {
		return "", ferrors.ExternalCommandError(fmt.Sprintf("unexpected crop box %q", strings.TrimSpace(box))).Build()
	}
	var v [4]int
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return "", ferrors.ExternalCommandError(fmt.Sprintf("unexpected crop box %q", strings.TrimSpace(box))).Build()
		}
		v[i] = n
	}
	offX, offY, szX, szY := v[0]-borderSize, v[1]-borderSize, v[2], v[3]

	for _, edge := range t.Chop {
		switch edge {
		case EdgeNorth:
			offY -= t.ChopSize
			szY += t.ChopSize
		case EdgeEast:
			szX += t.ChopSize
		case EdgeSouth:
			szY += t.ChopSize
		case EdgeWest:
			offX -= t.ChopSize
			szX += t.ChopSize
		}
	}
	return fmt.Sprintf("%dx%d%+d%+d", szX, szY, offX, offY), nil
}
