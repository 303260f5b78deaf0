package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/npillmayer/asefont/core"
	"github.com/npillmayer/asefont/core/settings"
	"github.com/npillmayer/asefont/engine/convert"
	"github.com/npillmayer/asefont/input/aseprite/asetest"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestParseCommand(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "asefont")
	defer teardown()
	//
	cmd, err := parseCommand("glyph:A:32")
	require.NoError(t, err)
	assert.Equal(t, Command{code: GLYPH, arg: "A", size: 32}, cmd)
	cmd, err = parseCommand("names:de")
	require.NoError(t, err)
	assert.Equal(t, Command{code: NAMES, arg: "de"}, cmd)
	cmd, _ = parseCommand("whatever")
	assert.Equal(t, HELP, cmd.code)
	_, err = parseCommand("glyph")
	assert.Error(t, err)
	_, err = parseCommand("glyph:A:big")
	assert.Error(t, err)
}

func TestParseCodePoint(t *testing.T) {
	for s, r := range map[string]rune{"A": 'A', "é": 'é', "U+00E9": 'é', "u+1f600": 0x1f600, "0x41": 'A', "41": 'A'} {
		got, err := parseCodePoint(s)
		require.NoError(t, err, s)
		assert.Equal(t, r, got, s)
	}
	_, err := parseCodePoint("U+110000")
	assert.Error(t, err)
	_, err = parseCodePoint("xyz")
	assert.Error(t, err)
}

func pixelFont(t *testing.T) string {
	f := asetest.New(16, 8, asetest.RGBA)
	l := f.AddLayer("U+0041")
	f.Draw(l, 0, 1, ".##.", "#..#", "####", "#..#", "#..#")
	f.Draw(l, 8, 1, "###.", "#..#", "###.", "#..#", "###.")
	dir := t.TempDir()
	inpath := filepath.Join(dir, "tiny.aseprite")
	require.NoError(t, os.WriteFile(inpath, f.Encode(), 0o644))
	s := settings.Default()
	s.GlyphWidth, s.GlyphHeight, s.Baseline = 8, 8, 1
	res, err := convert.ConvertFile(inpath, s)
	require.NoError(t, err)
	return res.OutputPath
}

func TestInspect(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "asefont")
	defer teardown()
	//
	intp, err := newIntp(pixelFont(t), language.English)
	require.NoError(t, err)
	assert.Equal(t, 8.0, intp.ppem)
	assert.Equal(t, "U+0041-0042", coverage(intp.font))
	//
	tc, err := intp.fonts.TypeCase(intp.key, intp.ppem)
	require.NoError(t, err)
	rows, ok := renderGlyph(tc, 'A')
	require.True(t, ok)
	assert.Equal(t, []string{
		".##.....",
		"#..#....",
		"####....",
		"#..#....",
		"#..#....",
	}, rows)
	_, ok = renderGlyph(tc, 'Z')
	assert.False(t, ok)
	//
	for _, line := range []string{"names", "names:de", "metrics", "tables", "cmap", "glyph:B", "glyph:U+0041:16", "help"} {
		cmd, err := parseCommand(line)
		require.NoError(t, err)
		quit, err := intp.execute(cmd)
		assert.NoError(t, err, line)
		assert.False(t, quit)
	}
	_, err = intp.execute(Command{code: GLYPH, arg: "Z"})
	assert.Error(t, err)
	quit, _ := intp.execute(Command{code: QUIT})
	assert.True(t, quit)
}

func TestLoadSettings(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "asefont")
	defer teardown()
	//
	noFlags := flag.NewFlagSet("asefont", flag.ContinueOnError)
	registerSettingsFlags(noFlags)
	dir := t.TempDir()
	path := filepath.Join(dir, "font.yaml")
	require.NoError(t, os.WriteFile(path, []byte("glyph-width: 8\nfamily: Tiny\ntrim: true\n"), 0o644))
	s, err := loadSettings(path, noFlags)
	require.NoError(t, err)
	assert.Equal(t, 8, s.GlyphWidth)
	assert.Equal(t, "Tiny", s.Family)
	assert.True(t, s.Trim)
	//
	require.NoError(t, os.WriteFile(path, []byte("glyph-width: 0\n"), 0o644))
	_, err = loadSettings(path, noFlags)
	assert.True(t, core.IsConfigError(err))
	_, err = loadSettings(filepath.Join(dir, "missing.yaml"), noFlags)
	assert.Error(t, err)
	//
	fs := flag.NewFlagSet("asefont", flag.ContinueOnError)
	registerSettingsFlags(fs)
	require.NoError(t, fs.Parse([]string{"-glyph-width", "12", "-trim", "-family", "Flagged"}))
	s, err = loadSettings(path, fs)
	require.NoError(t, err, "flags override an invalid document before validation")
	assert.Equal(t, 12, s.GlyphWidth)
	assert.True(t, s.Trim)
	assert.Equal(t, "Flagged", s.Family)
}
