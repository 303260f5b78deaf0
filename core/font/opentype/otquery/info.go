package otquery

import (
	"github.com/npillmayer/asefont/core/font/opentype/ot"
	"golang.org/x/text/language"
)

// FontType returns the font type, encoded in the font header, as a string.
func FontType(otf *ot.Font) string {
	if otf.Header == nil {
		return "<empty>"
	}
	typ := otf.Header.FontType
	switch typ {
	case 0x4f54544f: // OTTO
		return "OpenType (outlines)"
	case 0x00010000: // TrueType
		return "TrueType"
	case 0x74727565: // true
		return "TrueType (Mac legacy)"
	}
	return "<unknown>"
}

// Keys of the map returned by NameInfo, with their name IDs.
var nameKeys = []struct {
	key string
	id  uint16
}{
	{"copyright", 0},
	{"family", 1},
	{"subfamily", 2},
	{"uniqueid", 3},
	{"fullname", 4},
	{"version", 5},
	{"postscript", 6},
}

// Windows language IDs for some common languages. The first entry is the
// default.
var windowsLanguages = []struct {
	tag language.Tag
	id  uint16
}{
	{language.AmericanEnglish, ot.LangEnglishUS},
	{language.BritishEnglish, 0x0809},
	{language.German, 0x0407},
	{language.French, 0x040C},
	{language.Italian, 0x0410},
	{language.EuropeanSpanish, 0x0C0A},
	{language.BrazilianPortuguese, 0x0416},
	{language.Dutch, 0x0413},
	{language.Japanese, 0x0411},
	{language.SimplifiedChinese, 0x0804},
}

var languageMatcher = func() language.Matcher {
	tags := make([]language.Tag, len(windowsLanguages))
	for i, l := range windowsLanguages {
		tags[i] = l.tag
	}
	return language.NewMatcher(tags)
}()

// WindowsLanguageID returns the Windows language ID best matching lang.
// Languages without a close match result in US English.
func WindowsLanguageID(lang language.Tag) uint16 {
	_, i, conf := languageMatcher.Match(lang)
	if conf == language.No {
		return ot.LangEnglishUS
	}
	return windowsLanguages[i].id
}

// NameInfo returns a map with selected fields from OpenType table `name`.
// Will include (if available in the font) "copyright", "family", "subfamily",
// "uniqueid", "fullname", "version" and "postscript".
//
// Parameter `lang` selects the language of the name records of the Windows
// platform. If no record exists for a language, records of other platforms
// are consulted.
func NameInfo(otf *ot.Font, lang language.Tag) map[string]string {
	names := make(map[string]string)
	table := otf.Table(ot.T("name"))
	if table == nil {
		tracer().Debugf("no name table found in font")
		return names
	}
	nt := table.Self().AsName()
	langID := WindowsLanguageID(lang)
	for _, k := range nameKeys {
		if s, ok := nt.Lookup(k.id, langID); ok && s != "" {
			names[k.key] = s
		}
	}
	return names
}
