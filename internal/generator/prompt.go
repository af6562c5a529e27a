package generator

import (
	"fmt"
	"strings"
)

const noImportsPlaceholder = "No relative import statements found."

// BuildPrompt renders the system prompt sent with every completion attempt.
func BuildPrompt(lang Language, imports ImportContext, content string) string {
	importText := imports.String()
	if importText == "" {
		importText = noImportsPlaceholder
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert unit test generation bot with a focus on complete test coverage. "+
		"Your task is to generate comprehensive and fully complete unit tests for the provided %s code. "+
		"The generated tests must:\n", lang.Name)
	b.WriteString("- Cover 100% of the code paths, including every function, method, and conditional branch.\n")
	b.WriteString("- Include tests for both typical and edge-case inputs, as well as error handling where applicable.\n")
	b.WriteString("- Ensure that all scenarios and potential failures are tested to achieve full code coverage.\n")
	fmt.Fprintf(&b, "- Be written in %s using the best practices and conventions of the respective testing framework.\n", lang.Name)
	b.WriteString("- Include all necessary import statements and setup code required to run the tests.\n")
	b.WriteString("\nCode Context:\n----------------\n")
	b.WriteString("Relative Import Statements:\n")
	b.WriteString(importText)
	b.WriteString("\n\nFull Code:\n")
	b.WriteString(content)
	fmt.Fprintf(&b, "\n\nProvide ONLY the test code enclosed in a regular code block without any additional commentary. "+
		"If it is not possible to generate unit tests, output exactly %q.\n\n", NotPossibleSentinel)
	return b.String()
}
