// Package i18n renders localized chat and panel messages from YAML bundles.
package i18n

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var locales embed.FS

// colorChar: символ, которым в конфигах записываются цветовые коды.
const (
	colorChar   = '&'
	sectionSign = '§'
)

var supported = []language.Tag{
	language.English, // первый, fallback для matcher
	language.German,
}

var matcher = language.NewMatcher(supported)

// Bundle is an immutable set of rendered-ready messages for one locale.
// Safe for concurrent use.
type Bundle struct {
	tag      language.Tag
	messages map[string]string
	fallback *Bundle
}

// Load builds a bundle for the locale. Messages missing from the locale
// fall back to English. If dir is not empty, <dir>/<locale>.yaml overrides
// individual keys of the embedded bundle.
func Load(locale, dir string) (*Bundle, error) {
	tag := Match(locale)

	base, err := loadEmbedded(language.English)
	if err != nil {
		return nil, err
	}

	b := base
	if tag != language.English {
		msgs, err := loadEmbedded(tag)
		if err != nil {
			return nil, err
		}
		msgs.fallback = base
		b = msgs
	}

	if dir != "" {
		if err := b.overlay(filepath.Join(dir, tag.String()+".yaml")); err != nil {
			return nil, err
		}
	}

	return b, nil
}

// MustLoadDefault returns the embedded English bundle.
// Panics only if the embedded resources are broken.
func MustLoadDefault() *Bundle {
	b, err := loadEmbedded(language.English)
	if err != nil {
		panic(fmt.Sprintf("i18n: embedded bundle: %v", err))
	}
	return b
}

// Match resolves a locale string ("de", "de_DE", "en-US") to a supported tag.
func Match(locale string) language.Tag {
	locale = strings.ReplaceAll(strings.TrimSpace(locale), "_", "-")
	if locale == "" {
		return language.English
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return language.English
	}
	_, idx, _ := matcher.Match(tag)
	return supported[idx]
}

// Tag returns the bundle locale.
func (b *Bundle) Tag() language.Tag {
	return b.tag
}

// Keys returns all message keys of the bundle, sorted.
func (b *Bundle) Keys() []string {
	keys := make([]string, 0, len(b.messages))
	for k := range b.messages {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Has reports whether the key is defined in the bundle or its fallback.
func (b *Bundle) Has(key string) bool {
	_, ok := b.lookup(key)
	return ok
}

// Render returns the message for key with %name% placeholders substituted.
// Unknown keys render as the key itself.
func (b *Bundle) Render(key string, vars map[string]string) string {
	msg, ok := b.lookup(key)
	if !ok {
		return key
	}
	for name, value := range vars {
		msg = strings.ReplaceAll(msg, "%"+name+"%", value)
	}
	return msg
}

// Lines renders the message and splits it into lines (used for item lore).
func (b *Bundle) Lines(key string, vars map[string]string) []string {
	return strings.Split(b.Render(key, vars), "\n")
}

func (b *Bundle) lookup(key string) (string, bool) {
	for cur := b; cur != nil; cur = cur.fallback {
		if msg, ok := cur.messages[key]; ok {
			return msg, true
		}
	}
	return "", false
}

func (b *Bundle) overlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading messages %s: %w", path, err)
	}

	msgs, err := parse(data)
	if err != nil {
		return fmt.Errorf("parsing messages %s: %w", path, err)
	}
	for k, v := range msgs {
		b.messages[k] = v
	}
	return nil
}

func loadEmbedded(tag language.Tag) (*Bundle, error) {
	data, err := locales.ReadFile("locales/" + tag.String() + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded locale %s: %w", tag, err)
	}
	msgs, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing embedded locale %s: %w", tag, err)
	}
	return &Bundle{tag: tag, messages: msgs}, nil
}

// parse flattens nested YAML sections into dotted keys.
func parse(data []byte) (map[string]string, error) {
	var root map[string]any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}

	out := make(map[string]string, 64)
	flatten("", root, out)
	return out, nil
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case []any:
			lines := make([]string, 0, len(val))
			for _, line := range val {
				lines = append(lines, fmt.Sprint(line))
			}
			out[key] = TranslateColors(strings.Join(lines, "\n"))
		case nil:
			out[key] = ""
		default:
			s := strings.ReplaceAll(fmt.Sprint(val), `\n`, "\n")
			out[key] = TranslateColors(s)
		}
	}
}

// TranslateColors replaces '&' color codes with the section-sign form ("&a" → "§a").
// Ampersands not followed by a valid code are kept.
func TranslateColors(s string) string {
	if !strings.ContainsRune(s, colorChar) {
		return s
	}

	runes := []rune(s)
	for i := 0; i < len(runes)-1; i++ {
		if runes[i] != colorChar {
			continue
		}
		c := runes[i+1]
		if isColorCode(c) {
			runes[i] = sectionSign
			runes[i+1] = toLower(c)
		}
	}
	return string(runes)
}

func isColorCode(c rune) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		return true
	case c >= 'k' && c <= 'o', c >= 'K' && c <= 'O':
		return true
	case c == 'r', c == 'R':
		return true
	}
	return false
}

func toLower(c rune) rune {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}
