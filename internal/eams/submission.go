package eams

import (
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"eamsgrab/pkg/htmlutil"
)

// Form is the body of one election submission.
type Form map[string]string

// NewForm builds the submission asking to elect `courseId`. The same id
// always yields the same fields.
func NewForm(courseId string) Form {
	return Form{
		"optype":    "true",
		"operator0": courseId + ":true:0",
		"lesson0":   courseId,
	}
}

// Encode returns the url encoded body of the form.
func (f Form) Encode() string {
	values := url.Values{}
	for k, v := range f {
		values.Set(k, v)
	}
	return values.Encode()
}

const messageFallbackLength = 180

var cjkRun = regexp.MustCompile(`[\x{4e00}-\x{9fa5}]+`)

// ExtractMessage pulls the human readable part out of a submission
// response: every run of Chinese characters concatenated, or the first
// characters of the body if there are none.
func ExtractMessage(body string) string {
	runs := cjkRun.FindAllString(body, -1)
	if len(runs) > 0 {
		return strings.Join(runs, "")
	}
	return htmlutil.Excerpt(body, messageFallbackLength)
}

// IsRateLimited reports whether a submission response asks the client to
// slow down.
func IsRateLimited(status int, body string) bool {
	if status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable {
		return true
	}
	return strings.Contains(body, phraseTooFast)
}

// IsSuccess reports whether a submission message announces a successful
// election.
func IsSuccess(message string) bool {
	if !strings.Contains(message, phraseSuccess) {
		return false
	}
	for _, negated := range phrasesNotSuccess {
		if strings.Contains(message, negated) {
			return false
		}
	}
	return true
}
