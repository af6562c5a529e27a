package generator

import (
	"path/filepath"
	"strings"
)

// Language describes how a source extension is handled.
type Language struct {
	// Name is substituted into the prompt.
	Name string
	// Ext is the lower-cased extension including the dot.
	Ext string
}

// DetectLanguage maps a file name to its Language. Unknown extensions get a generic name.
func DetectLanguage(fileName string) Language {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".py":
		return Language{Name: "Python", Ext: ext}
	case ".ts":
		return Language{Name: "TypeScript", Ext: ext}
	case ".js":
		return Language{Name: "JavaScript", Ext: ext}
	default:
		return Language{Name: "the appropriate language", Ext: ext}
	}
}

// TestFileName derives the sibling test file name for a source file name.
//
//	foo.ts -> foo.spec.ts
//	foo.js -> foo.spec.js
//	foo.py -> foo_test.py
//	foo.rb -> unit-tests-foo.rb
func TestFileName(fileName string) string {
	fileName = filepath.Base(fileName)
	rawExt := filepath.Ext(fileName)
	base := strings.TrimSuffix(fileName, rawExt)

	switch strings.ToLower(rawExt) {
	case ".ts":
		return base + ".spec.ts"
	case ".js":
		return base + ".spec.js"
	case ".py":
		return base + "_test.py"
	default:
		return "unit-tests-" + fileName
	}
}

// TestFilePath returns the target path next to sourcePath.
func TestFilePath(sourcePath string) string {
	return filepath.Join(filepath.Dir(sourcePath), TestFileName(sourcePath))
}
