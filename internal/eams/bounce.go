package eams

import "strings"

// IsAuthBounce reports whether a response landed on the unified identity
// authentication wall, judging by its final url or its decoded body. An
// empty url or body simply does not count as evidence.
func IsAuthBounce(finalUrl string, body string) bool {
	if strings.Contains(body, phraseAuthWall) {
		return true
	}
	return strings.Contains(strings.ToLower(finalUrl), authServerMarker)
}
