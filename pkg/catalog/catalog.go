// Package catalog holds the console's UI labels. Bulgarian and English
// catalogs are embedded; a YAML file can override any of their messages.
package catalog

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	DefaultLocale  = "bg"
	FallbackLocale = "en"
)

//go:embed locales/*.yaml
var locales embed.FS

type file struct {
	Locale   string            `yaml:"locale"`
	Messages map[string]string `yaml:"messages"`
}

// Catalog resolves message keys for one locale. Keys missing from the locale
// fall back to English and then to the key itself.
type Catalog struct {
	locale   string
	messages map[string]string
	fallback map[string]string
}

func readEmbedded(locale string) (file, error) {
	var f file
	content, err := locales.ReadFile("locales/" + locale + ".yaml")
	if err != nil {
		return f, fmt.Errorf("unknown locale %q", locale)
	}
	if err := yaml.Unmarshal(content, &f); err != nil {
		return f, fmt.Errorf("parse embedded %s catalog: %w", locale, err)
	}
	return f, nil
}

// Default returns the embedded catalog for locale.
func Default(locale string) (*Catalog, error) {
	if locale == "" {
		locale = DefaultLocale
	}
	primary, err := readEmbedded(locale)
	if err != nil {
		return nil, err
	}
	fallback, err := readEmbedded(FallbackLocale)
	if err != nil {
		return nil, err
	}
	return &Catalog{locale: locale, messages: primary.Messages, fallback: fallback.Messages}, nil
}

// Load returns the embedded catalog for locale with the messages of the YAML
// file at path laid over it. An empty path yields the embedded catalog.
func Load(path, locale string) (*Catalog, error) {
	c, err := Default(locale)
	if err != nil || path == "" {
		return c, err
	}

	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return c, err
	}
	var override file
	if err := yaml.Unmarshal(content, &override); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	if override.Locale != "" && override.Locale != c.locale {
		return nil, fmt.Errorf("catalog %s is for locale %q, want %q", path, override.Locale, c.locale)
	}

	merged := make(map[string]string, len(c.messages)+len(override.Messages))
	for k, v := range c.messages {
		merged[k] = v
	}
	for k, v := range override.Messages {
		merged[k] = v
	}
	c.messages = merged
	return c, nil
}

func (c *Catalog) Locale() string {
	return c.locale
}

// T renders key, formatting args into the message when given.
func (c *Catalog) T(key string, args ...interface{}) string {
	msg, ok := c.messages[key]
	if !ok {
		msg, ok = c.fallback[key]
	}
	if !ok {
		msg = key
	}
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}
