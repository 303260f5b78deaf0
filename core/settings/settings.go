/*
Package settings holds the parameters of a conversion run.

Settings are an explicit structure consumed by the conversion pipeline. They are
usually populated by a front-end, either from command line flags, from a YAML
document, or from a schuko configuration. Validation happens before any input
is parsed.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package settings

import (
	"io"
	"strconv"
	"strings"

	"github.com/npillmayer/asefont/core"
	"github.com/npillmayer/schuko"
	"github.com/npillmayer/schuko/tracing"
	"gopkg.in/yaml.v3"
)

// tracer traces with key 'asefont'.
func tracer() tracing.Trace {
	return tracing.Select("asefont")
}

// Settings configures a conversion from an Aseprite file to a font.
// Lengths are given in source pixels.
type Settings struct {
	GlyphWidth  int  `yaml:"glyph-width"`
	GlyphHeight int  `yaml:"glyph-height"`
	Trim        bool `yaml:"trim"`
	TrimPad     int  `yaml:"trim-pad"`

	Copyright   string `yaml:"copyright"`
	Family      string `yaml:"family"`
	Subfamily   string `yaml:"subfamily"`
	FontVersion string `yaml:"font-version"`
	FontWeight  int    `yaml:"font-weight"` // 0 = derive from Subfamily

	OutputPath string `yaml:"output"`

	Baseline           int   `yaml:"baseline"` // pixels above the cell bottom
	LineGap            int   `yaml:"line-gap"`
	UnderlinePosition  int   `yaml:"underline-position"`
	UnderlineThickness int   `yaml:"underline-thickness"`
	UnitsPerPixel      int   `yaml:"units-per-pixel"`
	AlphaThreshold     int   `yaml:"alpha-threshold"`
	SkipHidden         bool  `yaml:"skip-hidden"`
	Workers            int   `yaml:"workers"`   // 0 = GOMAXPROCS
	Timestamp          int64 `yaml:"timestamp"` // unix seconds, 0 = fixed epoch
}

// Limits of the OpenType 'head' table for units per em.
const (
	MinUnitsPerEm = 16
	MaxUnitsPerEm = 16384
)

// Default returns settings with every field set to its default value.
func Default() Settings {
	return Settings{
		GlyphWidth:         16,
		GlyphHeight:        16,
		TrimPad:            1,
		FontVersion:        "Version 1.0",
		Baseline:           2,
		UnderlineThickness: 1,
		UnitsPerPixel:      64,
		AlphaThreshold:     1,
	}
}

// CellSize is the larger of glyph width and glyph height. One em spans a cell.
func (s Settings) CellSize() int {
	if s.GlyphWidth > s.GlyphHeight {
		return s.GlyphWidth
	}
	return s.GlyphHeight
}

// UnitsPerEm returns the font's design units per em.
func (s Settings) UnitsPerEm() int {
	return s.CellSize() * s.UnitsPerPixel
}

// Validate checks the settings for consistency. It returns an error with
// code core.ECONFIG, naming the offending setting.
func (s Settings) Validate() error {
	if s.GlyphWidth <= 0 {
		return core.ConfigError("glyph-width", "must be > 0, is %d", s.GlyphWidth)
	}
	if s.GlyphHeight <= 0 {
		return core.ConfigError("glyph-height", "must be > 0, is %d", s.GlyphHeight)
	}
	if s.TrimPad < 0 {
		return core.ConfigError("trim-pad", "must be >= 0, is %d", s.TrimPad)
	}
	if s.FontWeight < 0 || s.FontWeight > 1000 {
		return core.ConfigError("font-weight", "must be within 1…1000, is %d", s.FontWeight)
	}
	if s.Baseline < 0 || s.Baseline > s.GlyphHeight {
		return core.ConfigError("baseline", "must be within 0…%d, is %d", s.GlyphHeight, s.Baseline)
	}
	if s.LineGap < 0 {
		return core.ConfigError("line-gap", "must be >= 0, is %d", s.LineGap)
	}
	if s.UnderlineThickness < 0 {
		return core.ConfigError("underline-thickness", "must be >= 0, is %d", s.UnderlineThickness)
	}
	if s.UnitsPerPixel <= 0 {
		return core.ConfigError("units-per-pixel", "must be > 0, is %d", s.UnitsPerPixel)
	}
	if upem := s.UnitsPerEm(); upem < MinUnitsPerEm || upem > MaxUnitsPerEm {
		return core.ConfigError("units-per-pixel", "units per em %d not within %d…%d",
			upem, MinUnitsPerEm, MaxUnitsPerEm)
	}
	if s.AlphaThreshold < 1 || s.AlphaThreshold > 255 {
		return core.ConfigError("alpha-threshold", "must be within 1…255, is %d", s.AlphaThreshold)
	}
	if s.Workers < 0 {
		return core.ConfigError("workers", "must be >= 0, is %d", s.Workers)
	}
	return nil
}

// Weight returns the OS/2 weight class. If FontWeight is unset, the weight is
// guessed from the subfamily name, falling back to 400 (regular).
func (s Settings) Weight() int {
	if s.FontWeight > 0 {
		return s.FontWeight
	}
	return WeightFromSubfamily(s.Subfamily)
}

// WeightFromSubfamily maps common style names to OS/2 weight classes.
func WeightFromSubfamily(subfamily string) int {
	switch strings.ToLower(strings.TrimSpace(subfamily)) {
	case "thin", "hairline":
		return 100
	case "extra-light", "extralight", "ultra-light", "ultralight":
		return 200
	case "light":
		return 300
	case "", "regular", "normal", "book":
		return 400
	case "medium":
		return 500
	case "semibold", "semi-bold", "demi-bold", "demibold":
		return 600
	case "bold":
		return 700
	case "extrabold", "extra-bold", "ultrabold", "ultra-bold":
		return 800
	case "black", "heavy":
		return 900
	}
	return 400
}

// --- Loading ---------------------------------------------------------------

// ReadYAML reads settings from a YAML document. Keys not present in the document
// keep their default values.
func ReadYAML(r io.Reader) (Settings, error) {
	s, err := DecodeYAML(r)
	if err != nil {
		return s, err
	}
	return s, s.Validate()
}

// DecodeYAML reads settings like ReadYAML, but does not validate them. It is
// meant for settings which are overridden afterwards, see Override.
func DecodeYAML(r io.Reader) (Settings, error) {
	s := Default()
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&s); err != nil && err != io.EOF {
		return s, core.WrapError(err, core.ECONFIG, "cannot read settings document")
	}
	return s, nil
}

// FromConfig reads settings from a schuko configuration. Values are read as
// strings, empty strings leave the default in place. Keys are the same as for
// YAML documents, e.g. "glyph-width" or "trim".
func FromConfig(conf schuko.Configuration) (Settings, error) {
	return Default().Override(conf)
}

// Override returns a copy of s with every value set in conf replaced.
func (s Settings) Override(conf schuko.Configuration) (Settings, error) {
	if conf == nil {
		return s, s.Validate()
	}
	var err error
	intval := func(key string, target *int) {
		v := strings.TrimSpace(conf.GetString(key))
		if v == "" || err != nil {
			return
		}
		n, e := strconv.Atoi(v)
		if e != nil {
			err = core.ConfigError(key, "not an integer: %q", v)
			return
		}
		*target = n
	}
	boolval := func(key string, target *bool) {
		v := strings.TrimSpace(conf.GetString(key))
		if v == "" || err != nil {
			return
		}
		b, e := strconv.ParseBool(v)
		if e != nil {
			err = core.ConfigError(key, "not a boolean: %q", v)
			return
		}
		*target = b
	}
	strval := func(key string, target *string) {
		if v := conf.GetString(key); v != "" {
			*target = v
		}
	}
	intval("glyph-width", &s.GlyphWidth)
	intval("glyph-height", &s.GlyphHeight)
	boolval("trim", &s.Trim)
	intval("trim-pad", &s.TrimPad)
	strval("copyright", &s.Copyright)
	strval("family", &s.Family)
	strval("subfamily", &s.Subfamily)
	strval("font-version", &s.FontVersion)
	intval("font-weight", &s.FontWeight)
	strval("output", &s.OutputPath)
	intval("baseline", &s.Baseline)
	intval("line-gap", &s.LineGap)
	intval("underline-position", &s.UnderlinePosition)
	intval("underline-thickness", &s.UnderlineThickness)
	intval("units-per-pixel", &s.UnitsPerPixel)
	intval("alpha-threshold", &s.AlphaThreshold)
	boolval("skip-hidden", &s.SkipHidden)
	intval("workers", &s.Workers)
	if ts := strings.TrimSpace(conf.GetString("timestamp")); ts != "" && err == nil {
		n, e := strconv.ParseInt(ts, 10, 64)
		if e != nil {
			err = core.ConfigError("timestamp", "not a unix time: %q", ts)
		}
		s.Timestamp = n
	}
	if err != nil {
		return s, err
	}
	tracer().Debugf("settings from configuration: %+v", s)
	return s, s.Validate()
}
