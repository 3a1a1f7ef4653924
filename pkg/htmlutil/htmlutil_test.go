package htmlutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTitle(t *testing.T) {
	table := []struct {
		input    string
		expected string
	}{
		{
			input:    "<HTML><head><title>\n  统一身份认证 \n\t平台</title></head><body></body></HTML>",
			expected: "统一身份认证 平台",
		},
		{input: "<html><body>no title</body></html>", expected: ""},
		{input: "var lessonJSONs = [{id:1,name:'x'}]", expected: ""},
		{input: "", expected: ""},
	}
	for _, row := range table {
		require.Equal(t, row.expected, Title(row.input))
	}
}

func TestExcerpt(t *testing.T) {
	require.Equal(t, "选课", Excerpt("选课成功", 2))
	require.Equal(t, "abc", Excerpt("abc", 10))
	require.Equal(t, "", Excerpt("", 3))
}

func TestLooksLikeHTML(t *testing.T) {
	require.True(t, LooksLikeHTML("<!DOCTYPE html><HTML lang=zh>"))
	require.False(t, LooksLikeHTML("id:1001,name:'Math',"))
}
