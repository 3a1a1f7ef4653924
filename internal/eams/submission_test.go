package eams

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewForm(t *testing.T) {
	form := NewForm("500")
	require.Equal(t, Form{
		"optype":    "true",
		"operator0": "500:true:0",
		"lesson0":   "500",
	}, form)
	require.Equal(t, form, NewForm("500"))
}

func TestSubmitUrls(t *testing.T) {
	urls := SubmitUrls("https://eams.example.edu/", "4665", ParamProfileID)
	require.Equal(t, []string{
		"https://eams.example.edu/eams/stdElectCourse!batchOperator.action?profileId=4665",
		"https://eams.example.edu/eams/stdElectCourse!batchOperator.action?electionProfile.id=4665",
	}, urls)
}

func TestExtractMessage(t *testing.T) {
	testCases := []struct {
		name     string
		body     string
		expected string
	}{
		{
			name:     "joins chinese runs",
			body:     "<div>选课失败：</div><span>人数已满</span>",
			expected: "选课失败人数已满",
		},
		{
			name:     "falls back to excerpt",
			body:     "OK",
			expected: "OK",
		},
		{
			name:     "long fallback is truncated",
			body:     strings.Repeat("x", 500),
			expected: strings.Repeat("x", messageFallbackLength),
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.expected, ExtractMessage(test.body))
		})
	}
}

func TestIsRateLimited(t *testing.T) {
	require.True(t, IsRateLimited(429, ""))
	require.True(t, IsRateLimited(503, ""))
	require.True(t, IsRateLimited(200, "请不要过快点击"))
	require.False(t, IsRateLimited(200, "选课成功"))
	require.False(t, IsRateLimited(500, ""))
}

func TestIsSuccess(t *testing.T) {
	testCases := []struct {
		message  string
		expected bool
	}{
		{"选课成功", true},
		{"操作成功", true},
		{"选课失败", false},
		{"选课未成功人数已满", false},
		{"提交不成功", false},
		{"没有成功", false},
		{"", false},
	}
	for _, test := range testCases {
		require.Equal(t, test.expected, IsSuccess(test.message), test.message)
	}
}

func TestFormEncode(t *testing.T) {
	require.Equal(t, "lesson0=500&operator0=500%3Atrue%3A0&optype=true", NewForm("500").Encode())
}
