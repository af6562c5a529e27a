package generator

import (
	"regexp"
	"strings"
)

var (
	// Group 1: ES module specifier. Group 2: CommonJS require specifier.
	jsImportRe = regexp.MustCompile(`(?m)^(?:import\s+.*?\s+from\s+['"](.*?)['"]|(?:const\s+.*?\s*=\s*require\(['"](.*?)['"]\)))`)
	pyImportRe = regexp.MustCompile(`(?m)^(from[ \t]+(\.+\S*)[ \t]+import[ \t]+[^\r\n]*)`)
)

// ImportContext is the ordered list of relative import statements found in a source file.
type ImportContext []string

// String joins the statements with newlines.
func (ic ImportContext) String() string {
	return strings.Join(ic, "\n")
}

// ExtractImports returns the relative import/require statements in content, in source order.
// Unsupported extensions yield an empty context.
func ExtractImports(content, ext string) ImportContext {
	var out ImportContext
	switch strings.ToLower(ext) {
	case ".js", ".ts":
		for _, m := range jsImportRe.FindAllStringSubmatch(content, -1) {
			spec := m[1]
			if spec == "" {
				spec = m[2]
			}
			if isRelativeSpecifier(spec) {
				out = append(out, m[0])
			}
		}
	case ".py":
		for _, m := range pyImportRe.FindAllStringSubmatch(content, -1) {
			out = append(out, m[0])
		}
	}
	return out
}

func isRelativeSpecifier(spec string) bool {
	return strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../")
}
