package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var LocalesFS embed.FS

// Translator holds the strings of one language.
type Translator struct {
	lang         string
	translations map[string]string
}

// NewTranslator loads locales/<langCode>.yaml from fsys.
func NewTranslator(fsys fs.FS, langCode string) (*Translator, error) {
	filePath := path.Join("locales", fmt.Sprintf("%s.yaml", langCode))

	data, err := fs.ReadFile(fsys, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read translation file %s: %w", filePath, err)
	}
	t, err := newTranslatorFromBytes(data)
	if err != nil {
		return nil, err
	}
	t.lang = langCode
	return t, nil
}

func newTranslatorFromBytes(data []byte) (*Translator, error) {
	var translations map[string]string
	if err := yaml.Unmarshal(data, &translations); err != nil {
		return nil, fmt.Errorf("failed to parse translation file: %w", err)
	}
	return &Translator{translations: translations}, nil
}

// T (Translate) formats key with args; unknown keys are returned as-is.
func (t *Translator) T(key string, args ...interface{}) string {
	format, ok := t.translations[key]
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(format, args...)
	}
	return format
}

func (t *Translator) Has(key string) bool {
	_, ok := t.translations[key]
	return ok
}

// Bundle holds translators for every supported language and falls back to the
// default language for missing keys.
type Bundle struct {
	fallback    string
	translators map[string]*Translator
}

func LoadBundle(fsys fs.FS, langs []string, fallback string) (*Bundle, error) {
	b := &Bundle{fallback: fallback, translators: make(map[string]*Translator, len(langs))}
	for _, l := range append([]string{fallback}, langs...) {
		l = strings.ToLower(l)
		if _, ok := b.translators[l]; ok {
			continue
		}
		t, err := NewTranslator(fsys, l)
		if err != nil {
			return nil, err
		}
		b.translators[l] = t
	}
	return b, nil
}

// Supports reports whether lang has a loaded locale file.
func (b *Bundle) Supports(lang string) bool {
	_, ok := b.translators[strings.ToLower(lang)]
	return ok
}

func (b *Bundle) T(lang, key string, args ...interface{}) string {
	if t, ok := b.translators[strings.ToLower(lang)]; ok && t.Has(key) {
		return t.T(key, args...)
	}
	return b.translators[b.fallback].T(key, args...)
}
