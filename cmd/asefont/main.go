/*
Command asefont converts an Aseprite file into a TrueType font.

Usage:

	asefont [flags] file.aseprite
	asefont -inspect font.ttf [-i]

Glyphs are taken from layers whose name starts with a code point, like
"U+0041" or "U+0041-005A uppercase". Each layer is cut into cells of
-glyph-width × -glyph-height pixels, left to right and top to bottom, and the
cells receive consecutive code points.

Settings may be read from a YAML document (flag -config). Flags take
precedence over settings from the document. Keys of the document are the
names of the flags, e.g.

	glyph-width: 8
	glyph-height: 12
	family: Tiny Pixels
	trim: true

With -inspect, a font is summarized instead; adding -i starts an interactive
session for querying glyphs and tables.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/npillmayer/asefont/core"
	"github.com/npillmayer/asefont/core/settings"
	"github.com/npillmayer/asefont/engine/convert"
	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/pterm/pterm"
	"golang.org/x/text/language"
)

// tracer traces with key 'asefont'
func tracer() tracing.Trace {
	return tracing.Select("asefont")
}

// tracerKeys are the tracers of all packages of this module.
var tracerKeys = []string{"asefont", "asefont.input", "asefont.glyphs", "asefont.fonts"}

// settingsFlags are flags which map to a conversion setting of the same name.
var settingsFlags = []struct {
	key, usage string
	boolean    bool
}{
	{"glyph-width", "width of a glyph cell in pixels (default 16)", false},
	{"glyph-height", "height of a glyph cell in pixels (default 16)", false},
	{"trim", "remove empty columns left and right of glyphs", true},
	{"trim-pad", "empty columns to keep when trimming (default 1)", false},
	{"copyright", "copyright notice", false},
	{"family", "font family name (default: name of the input file)", false},
	{"subfamily", "font subfamily name, e.g. Bold (default Regular)", false},
	{"font-version", "font version string (default \"Version 1.0\")", false},
	{"font-weight", "weight class 1…1000 (default: derived from subfamily)", false},
	{"output", "output file (default: input file with extension .ttf)", false},
	{"baseline", "baseline in pixels above the cell bottom (default 2)", false},
	{"line-gap", "line gap in pixels", false},
	{"underline-position", "underline position in pixels, relative to the baseline", false},
	{"underline-thickness", "underline thickness in pixels (default 1)", false},
	{"units-per-pixel", "design units per pixel (default 64)", false},
	{"alpha-threshold", "minimum alpha of a set pixel, 1…255 (default 1)", false},
	{"skip-hidden", "ignore hidden layers", true},
	{"workers", "number of outline workers (default: number of CPUs)", false},
	{"timestamp", "creation time as unix seconds (default: 2000-01-01)", false},
}

func main() {
	initDisplay()

	// set up logging
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{
		"tracing.adapter": "go",
	}
	for _, key := range tracerKeys {
		conf["trace."+key] = "Error"
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		fmt.Printf("error configuring tracing")
		os.Exit(1)
	}
	tracing.SetTraceSelector(trace2go.Selector())

	// command line flags
	tlevel := flag.String("trace", "Error", "Trace level [Debug|Info|Error]")
	configFile := flag.String("config", "", "YAML file with settings")
	inspect := flag.String("inspect", "", "Font file to summarize")
	interactive := flag.Bool("i", false, "Inspect a font interactively")
	lang := flag.String("lang", "en-US", "Language of font names to show")
	registerSettingsFlags(flag.CommandLine)
	flag.Parse()
	level := tracing.TraceLevelFromString(*tlevel)
	for _, key := range tracerKeys {
		tracing.Select(key).SetTraceLevel(level)
	}
	tracer().Infof("Trace level is %s", level)
	//
	if *inspect != "" {
		langTag, err := language.Parse(*lang)
		if err != nil {
			pterm.Error.Printfln("unknown language %q", *lang)
			os.Exit(2)
		}
		if err := inspectFont(*inspect, langTag, *interactive); err != nil {
			exit(err)
		}
		return
	}
	if flag.NArg() != 1 {
		pterm.Error.Println("expecting exactly one input file")
		flag.Usage()
		os.Exit(2)
	}
	s, err := loadSettings(*configFile, flag.CommandLine)
	if err != nil {
		exit(err)
	}
	res, err := convert.ConvertFile(flag.Arg(0), s)
	if err != nil {
		exit(err)
	}
	pterm.Success.Printfln("%s: %d glyphs from %d layers, %d bytes",
		res.OutputPath, res.Glyphs(), res.Layers, len(res.Font))
}

func registerSettingsFlags(fs *flag.FlagSet) {
	for _, f := range settingsFlags {
		if f.boolean {
			fs.Bool(f.key, false, f.usage)
		} else {
			fs.String(f.key, "", f.usage)
		}
	}
}

// loadSettings reads settings from a YAML document, if any, and overrides them
// with flags given on the command line. Settings are validated after flags
// have been applied.
func loadSettings(configFile string, fs *flag.FlagSet) (settings.Settings, error) {
	s := settings.Default()
	if configFile != "" {
		f, err := os.Open(configFile)
		if err != nil {
			return s, err
		}
		defer f.Close()
		if s, err = settings.DecodeYAML(f); err != nil {
			return s, err
		}
		tracer().Infof("settings read from %s", configFile)
	}
	flags := testconfig.Conf{}
	fs.Visit(func(f *flag.Flag) {
		for _, sf := range settingsFlags {
			if sf.key == f.Name {
				flags[f.Name] = strings.TrimSpace(f.Value.String())
			}
		}
	})
	return s.Override(flags)
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.EnableDebugMessages()
	pterm.Info.Prefix = pterm.Prefix{
		Text:  " !  ",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

// exit reports an error and terminates with the error's code.
func exit(err error) {
	tracer().Errorf(err.Error())
	var e core.AppError
	if errors.As(err, &e) {
		pterm.Error.Println(e.UserMessage())
		os.Exit(e.ErrorCode())
	}
	pterm.Error.Println(err.Error())
	os.Exit(1)
}
