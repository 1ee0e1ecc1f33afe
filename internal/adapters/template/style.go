package template

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/melih/lighthouse-factory/internal/core/domain"
)

// styleCandidates are checked in order; the first existing stylesheet wins.
var styleCandidates = []string{
	"src/App.css",
	"src/styles/chat-template.css",
	"src/app/globals.css",
}

var rootBlock = regexp.MustCompile(`:root\s*\{([\s\S]*?)\}`)

// themeVars lists the custom properties upserted into :root, in order.
var themeVars = []string{
	"--brand-primary",
	"--app-bg",
	"--footer-bg",
	"--color-text-1",
	"--bubble-user",
	"--bubble-bot",
}

// cssValue matches a declaration value up to its terminating semicolon.
// Semicolons inside parentheses or quotes, as in data URLs, do not end it.
const cssValue = `(?:[^;\n("']|\([^)\n]*\)|"[^"\n]*"|'[^'\n]*')*`

var themeVarLines = func() map[string]*regexp.Regexp {
	m := make(map[string]*regexp.Regexp, len(themeVars))
	for _, name := range themeVars {
		// Indentation only; a leading newline belongs to the previous line.
		m[name] = regexp.MustCompile(`(?m)(^|\n)[ \t]*` + regexp.QuoteMeta(name) + `\s*:\s*` + cssValue + `;`)
	}
	return m
}()

type cssVar struct {
	name  string
	value string
}

// StylePatcher injects theme colors into the app stylesheet.
type StylePatcher struct {
	logger zerolog.Logger
}

// NewStylePatcher creates a StylePatcher.
func NewStylePatcher(logger zerolog.Logger) *StylePatcher {
	return &StylePatcher{logger: logger}
}

// Patch rewrites the first conventional stylesheet under appDir. No
// stylesheet means nothing to do.
func (p *StylePatcher) Patch(appDir string, theme domain.Theme) error {
	path := firstExisting(appDir, styleCandidates)
	if path == "" {
		p.logger.Warn().Str("dir", appDir).Msg("stylesheet not found, skipping theme patch")
		return nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	css := PatchStyle(string(raw), theme)
	if css == string(raw) {
		return nil
	}
	if err := os.WriteFile(path, []byte(css), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	p.logger.Info().Str("file", path).Msg("patched stylesheet")
	return nil
}

// PatchStyle substitutes theme placeholders and upserts the theme custom
// properties into the :root block.
func PatchStyle(css string, theme domain.Theme) string {
	values := []string{
		sanitizeCSSValue(theme.Primary),
		sanitizeCSSValue(theme.ContentBg),
		sanitizeCSSValue(theme.FooterBg),
		sanitizeCSSValue(theme.TextColor),
		sanitizeCSSValue(theme.BubbleUser),
		sanitizeCSSValue(theme.BubbleBot),
	}

	css = strings.NewReplacer(
		"{theme_primary}", values[0],
		"{content_bg}", values[1],
		"{footer_bg}", values[2],
		"{text_color}", values[3],
		"{bubble_user}", values[4],
		"{bubble_bot}", values[5],
	).Replace(css)

	vars := make([]cssVar, len(themeVars))
	for i, name := range themeVars {
		vars[i] = cssVar{name: name, value: values[i]}
	}
	return upsertRootVars(css, vars)
}

func upsertRootVars(css string, vars []cssVar) string {
	loc := rootBlock.FindStringSubmatchIndex(css)
	if loc == nil {
		var b strings.Builder
		b.WriteString(":root{\n")
		for _, v := range vars {
			fmt.Fprintf(&b, "  %s: %s;\n", v.name, v.value)
		}
		b.WriteString("}\n\n")
		b.WriteString(css)
		return b.String()
	}

	body := css[loc[2]:loc[3]]
	for _, v := range vars {
		body = upsertVarLine(body, v)
	}
	return css[:loc[2]] + body + css[loc[3]:]
}

func upsertVarLine(body string, v cssVar) string {
	re := themeVarLines[v.name]
	line := "  " + v.name + ": " + v.value + ";"
	if m := re.FindStringSubmatchIndex(body); m != nil {
		lead := body[m[2]:m[3]]
		return body[:m[0]] + lead + line + body[m[1]:]
	}
	if !strings.HasSuffix(body, "\n") {
		body += "\n"
	}
	return body + line + "\n"
}

// sanitizeCSSValue reduces v to a single declaration value: braces and line
// breaks are removed and the value ends at its first top-level semicolon.
func sanitizeCSSValue(v string) string {
	v = strings.NewReplacer("{", "", "}", "", "\r", "", "\n", " ").Replace(v)

	depth := 0
	var quote rune
	for i, r := range v {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '(':
			depth++
		case r == ')' && depth > 0:
			depth--
		case r == ';' && depth == 0:
			return strings.TrimSpace(v[:i])
		}
	}
	return strings.TrimSpace(v)
}
