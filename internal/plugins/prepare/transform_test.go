package prepare

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/scanbinder/internal/config"
)

func TestParseTransformDefaults(t *testing.T) {
	tr, err := ParseTransform("t.yaml", []byte("transform: {}\n"))
	require.NoError(t, err)
	assert.Equal(t, Transform{Blur: 10, Fuzz: 30}, tr)

	tr, err = ParseTransform("t.yaml", []byte("transform:\n  justconvert: yes\n  chop-edge: bogus\n"))
	require.NoError(t, err)
	assert.True(t, tr.JustConvert)
}

func TestParseTransformFull(t *testing.T) {
	tr, err := ParseTransform("t.yaml", []byte(`
transform:
  chop-edge: West north
  chop-size: 40
  chop-background: white
  rotate-odd: 90
  rotate-even: -90
  blur: 5
  fuzz: 20
`))
	require.NoError(t, err)
	assert.Equal(t, Transform{
		Chop:           []string{EdgeNorth, EdgeWest},
		ChopSize:       40,
		ChopBackground: "white",
		RotateOdd:      90,
		RotateEven:     -90,
		Blur:           5,
		Fuzz:           20,
	}, tr)
	assert.Equal(t, 90, tr.Rotation(3))
	assert.Equal(t, -90, tr.Rotation(4))
}

func TestParseTransformErrors(t *testing.T) {
	tests := map[string]string{
		"no section":       "other:\n  a: b\n",
		"extra option":     "transform:\n  sharpen: 3\n",
		"bad bool":         "transform:\n  justconvert: maybe\n",
		"none combined":    "transform:\n  chop-edge: none north\n",
		"unknown edge":     "transform:\n  chop-edge: up\n  chop-size: 1\n  chop-background: white\n",
		"missing size":     "transform:\n  chop-edge: north\n  chop-background: white\n",
		"bad background":   "transform:\n  chop-edge: north\n  chop-size: 4\n  chop-background: \"#fff\"\n",
		"non integer blur": "transform:\n  blur: much\n",
		"syntax":           "transform: [\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseTransform("scans/1-10/t.yaml", []byte(doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, config.ErrConfig)
			assert.Contains(t, err.Error(), "scans/1-10/t.yaml")
		})
	}
}

func TestTrimArgs(t *testing.T) {
	tr := Transform{Chop: []string{EdgeNorth, EdgeEast}, ChopSize: 7, ChopBackground: "black", Blur: 10, Fuzz: 30}
	assert.Equal(t,
		"in.bmp -background black -gravity north -chop 0x7 -splice 0x7 -gravity east -chop 7x0 -splice 7x0 "+
			"-bordercolor black -border 10x10 -virtual-pixel edge -blur 0x10 -fuzz 30% -trim -format %X %Y %w %h info:-",
		strings.Join(tr.TrimArgs("in.bmp"), " "))
}

func TestCropGeometry(t *testing.T) {
	tests := []struct {
		name string
		chop []string
		want string
	}{
		{"no chop", nil, "100x200+40+50"},
		{"north", []string{EdgeNorth}, "100x205+40+45"},
		{"east", []string{EdgeEast}, "105x200+40+50"},
		{"south", []string{EdgeSouth}, "100x205+40+50"},
		{"west", []string{EdgeWest}, "105x200+35+50"},
		{"all", []string{EdgeNorth, EdgeEast, EdgeSouth, EdgeWest}, "110x210+35+45"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tr := Transform{Chop: tc.chop, ChopSize: 5}
			got, err := tr.CropGeometry("50 60 100 200\n")
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := Transform{}.CropGeometry("convert: no images")
	assert.Error(t, err)

	got, err := Transform{}.CropGeometry("5 3 10 10")
	require.NoError(t, err)
	assert.Equal(t, "10x10-5-7", got)
}
