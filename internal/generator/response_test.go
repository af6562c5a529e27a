package generator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanResponse(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "fenced with language", in: "```python\ndef test(): pass\n```", want: "def test(): pass\n"},
		{name: "fenced without language", in: "```\nit('works')\n```", want: "\nit('works')\n"},
		{name: "surrounding whitespace", in: "\n\n  ```ts\nx\n```  \n", want: "x\n"},
		{name: "plain text trimmed only", in: "  def test(): pass\n", want: "def test(): pass"},
		{name: "only leading fence", in: "```js\nconst a = 1;", want: "const a = 1;"},
		{name: "only trailing fence", in: "const a = 1;\n```", want: "const a = 1;\n"},
		{name: "stripped once", in: "```js\n```inner```\n```", want: "```inner```\n"},
		{name: "empty", in: "   ", want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, CleanResponse(tc.in))
		})
	}
}

func TestIsNotPossible(t *testing.T) {
	require.True(t, IsNotPossible(CleanResponse("```\nnot possible00192\n```")))
	require.True(t, IsNotPossible("sorry: not possible00192."))
	require.False(t, IsNotPossible("not possible"))
	require.False(t, IsNotPossible("def test(): pass"))
}
