// Package i18n provides the localized strings shown in injected controls.
//
// Locale files use the browser extension messages.json layout: each key has
// a message with named placeholders ($COUNT$) bound to positional
// substitutions ($1, $2, ...).
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/text/language"
)

// Auto selects the locale from the browser UI language
const Auto = "auto"

// DefaultLocale is used when nothing better matches
const DefaultLocale = "en"

//go:embed locales/*/messages.json
var localeFS embed.FS

// Placeholder binds a named placeholder to a positional substitution
type Placeholder struct {
	Content string `json:"content"`
	Example string `json:"example,omitempty"`
}

// Message is one localized string
type Message struct {
	Message      string                 `json:"message"`
	Description  string                 `json:"description,omitempty"`
	Placeholders map[string]Placeholder `json:"placeholders,omitempty"`
}

// browserLocales maps UI language tags to locale directories
var browserLocales = map[string]string{
	"zh-TW": "zh_TW",
	"zh-CN": "zh_CN",
	"zh-HK": "zh_TW",
	"zh-SG": "zh_CN",
	"ja":    "ja",
	"ja-JP": "ja",
	"ko":    "ko",
	"ko-KR": "ko",
	"en":    "en",
	"en-US": "en",
	"en-GB": "en",
}

// supported lists the embedded locales in matcher preference order; the
// first entry is the matcher's default
var supported = []struct {
	locale string
	tag    language.Tag
}{
	{"en", language.English},
	{"zh_TW", language.TraditionalChinese},
	{"zh_CN", language.SimplifiedChinese},
	{"ja", language.Japanese},
	{"ko", language.Korean},
}

var matcher = func() language.Matcher {
	tags := make([]language.Tag, len(supported))
	for i, s := range supported {
		tags[i] = s.tag
	}
	return language.NewMatcher(tags)
}()

var positional = regexp.MustCompile(`\$(\d+)`)

// Locales returns the embedded locale names, sorted
func Locales() []string {
	out := make([]string, 0, len(supported))
	for _, s := range supported {
		out = append(out, s.locale)
	}
	sort.Strings(out)
	return out
}

// IsSupported reports whether locale has an embedded message file
func IsSupported(locale string) bool {
	for _, s := range supported {
		if s.locale == locale {
			return true
		}
	}
	return false
}

// ResolveLocale picks the locale for a language setting. An explicit
// supported locale wins. Otherwise the browser language is looked up in the
// known tag table, then matched against the embedded locales, then the
// default is used.
func ResolveLocale(setting, browser string) string {
	if setting != Auto && IsSupported(setting) {
		return setting
	}

	browser = strings.ReplaceAll(strings.TrimSpace(browser), "_", "-")
	if browser == "" {
		return DefaultLocale
	}
	if locale, ok := browserLocales[browser]; ok {
		return locale
	}

	tag, err := language.Parse(browser)
	if err != nil {
		return DefaultLocale
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return DefaultLocale
	}
	return supported[idx].locale
}

var (
	cacheMu sync.Mutex
	cache   = make(map[string]map[string]Message)
)

func loadMessages(locale string) (map[string]Message, error) {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	if msgs, ok := cache[locale]; ok {
		return msgs, nil
	}
	if !IsSupported(locale) {
		return nil, fmt.Errorf("unsupported locale %q", locale)
	}

	data, err := localeFS.ReadFile("locales/" + locale + "/messages.json")
	if err != nil {
		return nil, fmt.Errorf("failed to read messages for %s: %w", locale, err)
	}
	var msgs map[string]Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, fmt.Errorf("failed to parse messages for %s: %w", locale, err)
	}
	cache[locale] = msgs
	return msgs, nil
}

// Bundle serves the strings of one locale, falling back to the default
// locale and then to the key itself
type Bundle struct {
	locale   string
	messages map[string]Message
	fallback map[string]Message
}

// Load returns the bundle for locale
func Load(locale string) (*Bundle, error) {
	msgs, err := loadMessages(locale)
	if err != nil {
		return nil, err
	}
	fallback, err := loadMessages(DefaultLocale)
	if err != nil {
		return nil, err
	}
	return &Bundle{locale: locale, messages: msgs, fallback: fallback}, nil
}

// New resolves the locale for a language setting and loads it
func New(setting, browser string) (*Bundle, error) {
	return Load(ResolveLocale(setting, browser))
}

// Locale returns the bundle's locale name
func (b *Bundle) Locale() string {
	return b.locale
}

// T returns the localized string for key with subs bound to its
// placeholders. Unknown keys come back unchanged.
func (b *Bundle) T(key string, subs ...string) string {
	if b == nil {
		return key
	}
	msg, ok := b.messages[key]
	if !ok {
		if msg, ok = b.fallback[key]; !ok {
			return key
		}
	}
	return msg.format(subs)
}

func (m Message) format(subs []string) string {
	out := m.Message
	if len(subs) == 0 {
		return out
	}
	for name, ph := range m.Placeholders {
		match := positional.FindStringSubmatch(ph.Content)
		if match == nil {
			continue
		}
		idx, err := strconv.Atoi(match[1])
		if err != nil || idx < 1 || idx > len(subs) {
			continue
		}
		pattern := regexp.MustCompile(`(?i)\$` + regexp.QuoteMeta(name) + `\$`)
		out = pattern.ReplaceAllLiteralString(out, subs[idx-1])
	}
	return out
}
