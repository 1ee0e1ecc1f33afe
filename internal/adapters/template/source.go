package template

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

// sourceCandidates are the conventional locations of the chat component.
var sourceCandidates = []string{
	"src/ChatComponent.tsx",
	"src/components/ChatComponent.tsx",
}

// A JS string literal in any quote style, honouring backslash escapes.
const jsLiteral = `(?:"(?:[^"\\\n]|\\.)*"|'(?:[^'\\\n]|\\.)*'|` + "`(?:[^`\\\\]|\\\\.)*`" + `)`

var (
	apiURLConst    = regexp.MustCompile(`const\s+API_URL\s*=\s*` + jsLiteral + `;?`)
	avatarConst    = regexp.MustCompile(`const\s+COMPANY_AVATAR\s*=\s*` + jsLiteral + `;?`)
	initMsgConst   = regexp.MustCompile(`const\s+INIT_MESSAGE\s*=\s*` + jsLiteral + `;?`)
	legacyFetch    = regexp.MustCompile(`fetch\(\s*["']/api/ask["']\s*,`)
	viteEnvAskPath = regexp.MustCompile(`\$\{\s*import\.meta\.env\.VITE_API_BASE_URL\s*\}\s*/ask`)
)

// SourceValues are the resolved values injected into the chat component.
type SourceValues struct {
	APIURL      string
	InitMessage string
	AvatarURL   string
	Title       string
	HeaderIcon  string
}

// SourcePatcher rewrites the templated chat component.
type SourcePatcher struct {
	logger zerolog.Logger
}

// NewSourcePatcher creates a SourcePatcher.
func NewSourcePatcher(logger zerolog.Logger) *SourcePatcher {
	return &SourcePatcher{logger: logger}
}

// Patch rewrites the chat component under appDir. A missing component is
// skipped without error.
func (p *SourcePatcher) Patch(appDir string, v SourceValues) error {
	path := firstExisting(appDir, sourceCandidates)
	if path == "" {
		p.logger.Warn().Str("dir", appDir).Msg("ChatComponent.tsx not found, skipping source patch")
		return nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	text := PatchSource(string(raw), v)
	if text == string(raw) {
		return nil
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	p.logger.Info().Str("file", path).Msg("patched chat component")
	return nil
}

// PatchSource applies the ordered rewrites to the component text.
func PatchSource(text string, v SourceValues) string {
	api := escapeJSString(v.APIURL)
	msg := escapeJSString(v.InitMessage)
	avatar := escapeJSString(v.AvatarURL)
	title := escapeJSString(v.Title)
	icon := escapeJSString(v.HeaderIcon)

	text = replaceFirst(apiURLConst, text, `const API_URL = "`+api+`";`)
	text = legacyFetch.ReplaceAllLiteralString(text, "fetch(API_URL,")
	text = viteEnvAskPath.ReplaceAllLiteralString(text, api)

	text = replaceFirst(avatarConst, text, `const COMPANY_AVATAR = "`+avatar+`";`)
	text = replaceFirst(initMsgConst, text, `const INIT_MESSAGE = "`+msg+`";`)

	text = strings.NewReplacer(
		"{img_avatar}", `"`+avatar+`"`,
		"{chat_title}", `"`+title+`"`,
		"{header_icon}", `"`+icon+`"`,
		"{init_message}", `"`+msg+`"`,
		"{api_url}", `"`+api+`"`,
	).Replace(text)
	return text
}

// replaceFirst substitutes the first match of re with a literal replacement.
func replaceFirst(re *regexp.Regexp, src, repl string) string {
	loc := re.FindStringIndex(src)
	if loc == nil {
		return src
	}
	return src[:loc[0]] + repl + src[loc[1]:]
}

var jsStringEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\u2028", `\u2028`,
	"\u2029", `\u2029`,
)

// escapeJSString makes s safe inside a double-quoted JS string literal.
func escapeJSString(s string) string {
	return jsStringEscaper.Replace(s)
}

func firstExisting(dir string, candidates []string) string {
	for _, c := range candidates {
		p := filepath.Join(dir, filepath.FromSlash(c))
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}
