package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScanLanguages(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []string
	}{
		{name: "empty", source: "", want: []string{}},
		{name: "no code", source: "plain text with `code`", want: []string{}},
		{name: "fences", source: "```Go\nx\n```\n\n~~~python\ny\n~~~\n\n```go\nz\n```", want: []string{"go", "python"}},
		{name: "fence with attributes", source: "```c++ {title=x}\n```", want: []string{"c++"}},
		{name: "inline", source: "call `fmt.Println(){:go}` or `ls{:bash}`", want: []string{"go", "bash"}},
		{name: "fence before inline", source: "`x{:rust}`\n\n```ts\n```", want: []string{"ts", "rust"}},
		{name: "bare fence", source: "```\nplain\n```", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScanLanguages(tt.source))
		})
	}
}

func TestPartitionLanguages(t *testing.T) {
	known, unknown := partitionLanguages([]string{"Go", "nosuchlang", "python", "go", ""})
	assert.Equal(t, []string{"go", "python"}, known)
	assert.Equal(t, []string{"nosuchlang"}, unknown)
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "rich", ModeRich.String())
	assert.Equal(t, "raw", ModeRaw.String())
	assert.Equal(t, "Mode(7)", Mode(7).String())
}

func TestSubjectHeading(t *testing.T) {
	assert.Equal(t, "# C\\+\\+ tips\n\nbody", subjectHeading("C++  tips", "body"))
}
