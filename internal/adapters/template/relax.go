package template

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tidwall/jsonc"
)

var (
	tsconfigCandidates = []string{"tsconfig.json", "tsconfig.app.json", "tsconfig.build.json"}

	// relaxedOptions are injected into compilerOptions when absent.
	relaxedOptions = []string{"noUnusedLocals", "noUnusedParameters"}

	chainedBuildScript = regexp.MustCompile(`"build"\s*:\s*"[^"]*tsc[^"]*&&\s*vite build[^"]*"`)
	compilerOptionsKey = regexp.MustCompile(`"compilerOptions"\s*:\s*\{`)
	emptyObjectAhead   = regexp.MustCompile(`^\s*\}`)
)

// RelaxPatcher removes type-check gates so template builds do not fail on
// lint-level TypeScript errors.
type RelaxPatcher struct {
	logger zerolog.Logger
}

// NewRelaxPatcher creates a RelaxPatcher.
func NewRelaxPatcher(logger zerolog.Logger) *RelaxPatcher {
	return &RelaxPatcher{logger: logger}
}

// Patch relaxes package.json and the first tsconfig found in appDir.
func (p *RelaxPatcher) Patch(appDir string) error {
	if err := p.patchPackageJSON(filepath.Join(appDir, "package.json")); err != nil {
		return err
	}
	return p.patchTSConfig(appDir)
}

func (p *RelaxPatcher) patchPackageJSON(path string) error {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	out := RelaxBuildScript(string(raw))
	if out == string(raw) {
		return nil
	}
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	p.logger.Info().Str("file", path).Msg("dropped type-check from build script")
	return nil
}

func (p *RelaxPatcher) patchTSConfig(appDir string) error {
	path := firstExisting(appDir, tsconfigCandidates)
	if path == "" {
		return nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	out, err := RelaxTSConfig(string(raw))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if out == string(raw) {
		return nil
	}
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	p.logger.Info().Str("file", path).Msg("relaxed compiler options")
	return nil
}

// RelaxBuildScript rewrites `"build": "<type-check> && vite build"` to run
// the bundler alone. Other scripts are left untouched.
func RelaxBuildScript(pkg string) string {
	return replaceFirst(chainedBuildScript, pkg, `"build": "vite build"`)
}

// RelaxTSConfig injects the relaxed options missing from compilerOptions.
// The document is JSONC, so it is parsed with comments stripped but edited
// textually to keep the author's formatting.
func RelaxTSConfig(doc string) (string, error) {
	var parsed struct {
		CompilerOptions map[string]json.RawMessage `json:"compilerOptions"`
	}
	if err := json.Unmarshal(jsonc.ToJSON([]byte(doc)), &parsed); err != nil {
		return "", fmt.Errorf("parse tsconfig: %w", err)
	}

	var missing []string
	for _, opt := range relaxedOptions {
		if _, ok := parsed.CompilerOptions[opt]; !ok {
			missing = append(missing, fmt.Sprintf("%q: false", opt))
		}
	}
	if len(missing) == 0 {
		return doc, nil
	}
	options := strings.Join(missing, ", ")

	if parsed.CompilerOptions != nil {
		if loc := compilerOptionsKey.FindStringIndex(doc); loc != nil {
			sep := ","
			if emptyObjectAhead.MatchString(doc[loc[1]:]) {
				sep = ""
			}
			return doc[:loc[1]] + options + sep + doc[loc[1]:], nil
		}
	}

	brace := strings.Index(doc, "{")
	if brace < 0 {
		return "", fmt.Errorf("parse tsconfig: no root object")
	}
	sep := ","
	if emptyObjectAhead.MatchString(doc[brace+1:]) {
		sep = ""
	}
	block := "\n  \"compilerOptions\": {" + options + "}" + sep
	return doc[:brace+1] + block + doc[brace+1:], nil
}
