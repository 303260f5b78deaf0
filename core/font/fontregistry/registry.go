package fontregistry

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/npillmayer/asefont/core"
	"github.com/npillmayer/asefont/core/font"
	"github.com/npillmayer/schuko/tracing"
)

// Registry is a type for holding information about loaded fonts and the
// typecases prepared from them. A Registry is safe for concurrent use.
type Registry struct {
	sync.Mutex
	fonts     map[string]*font.ScalableFont
	typecases map[string]*font.TypeCase
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	fr := &Registry{
		fonts:     make(map[string]*font.ScalableFont),
		typecases: make(map[string]*font.TypeCase),
	}
	return fr
}

// StoreFont pushes a font into the registry if it isn't contained yet and
// returns the key it is stored under.
//
// The font will be stored using the normalized font name as a key. If this
// key is already associated with a font, that font will not be overridden.
func (fr *Registry) StoreFont(f *font.ScalableFont) string {
	if f == nil {
		tracer().Errorf("registry cannot store null font")
		return ""
	}
	name := f.Fontname
	if name == "" {
		name = f.Filepath
	}
	key := NormalizeFontname(name)
	fr.Lock()
	defer fr.Unlock()
	if _, ok := fr.fonts[key]; !ok {
		tracer().Debugf("registry stores font %s as %s", f.Fontname, key)
		fr.fonts[key] = f
	}
	return key
}

// TypeCase returns a typecase of a registered font at a given pixel size.
// Typecases are prepared once per font and size and cached afterwards.
func (fr *Registry) TypeCase(normalizedName string, ppem float64) (*font.TypeCase, error) {
	tracer().Debugf("registry searches for font %s at %.2f", normalizedName, ppem)
	tname := appendSize(normalizedName, ppem)
	fr.Lock()
	defer fr.Unlock()
	if t, ok := fr.typecases[tname]; ok {
		return t, nil
	}
	f, ok := fr.fonts[normalizedName]
	if !ok {
		return nil, core.Error(core.EINTERNAL, "font %s not found in registry", normalizedName)
	}
	t, err := f.PrepareCase(ppem)
	if err != nil {
		return nil, err
	}
	tracer().Infof("font registry has font %s, caches at %.2f", normalizedName, ppem)
	fr.typecases[tname] = t
	return t, nil
}

// LogFontList is a helper function to dump the list of known fonts and typecases
// in a registry to the trace-file (log-level Info).
func (fr *Registry) LogFontList() {
	fr.Lock()
	defer fr.Unlock()
	level := tracer().GetTraceLevel()
	tracer().SetTraceLevel(tracing.LevelInfo)
	tracer().Infof("--- registered fonts ---")
	for _, k := range sortedKeys(fr.fonts) {
		tracer().Infof("font [%s] = %v", k, fr.fonts[k].Fontname)
	}
	for _, k := range sortedKeys(fr.typecases) {
		tracer().Infof("typecase [%s] = %v", k, fr.typecases[k].ScalableFontParent().Fontname)
	}
	tracer().Infof("------------------------")
	tracer().SetTraceLevel(level)
}

// NormalizeFontname makes a registry key from a font name or a font file
// name: lower case, no blanks, no file extension.
func NormalizeFontname(fname string) string {
	fname = strings.TrimSpace(path.Base(fname))
	if ext := path.Ext(fname); ext == ".ttf" || ext == ".otf" {
		fname = fname[:len(fname)-len(ext)]
	}
	fname = strings.ReplaceAll(fname, " ", "_")
	return strings.ToLower(fname)
}

func appendSize(fname string, ppem float64) string {
	return fmt.Sprintf("%s-%.2f", fname, ppem)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
