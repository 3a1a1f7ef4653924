package eams

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"eamsgrab/pkg/htmlutil"
)

// CourseEntry is one course of the catalog, Index is its position in the
// catalog and what operators use to pick it.
type CourseEntry struct {
	Index    int
	CourseId string
	Name     string
}

// Catalog is the result of one catalog fetch.
type Catalog struct {
	ProfileId string
	Param     ParamName
	Entries   []CourseEntry
	// Ids holds every course id found in the response, it may be longer
	// than Entries when fewer names than ids were parsed.
	Ids []string
}

// HasCourse reports whether id was listed in the catalog response.
func (c Catalog) HasCourse(id string) bool {
	for _, known := range c.Ids {
		if known == id {
			return true
		}
	}
	return false
}

const (
	catalogMarker   = "id:"
	recordDelimiter = "code:"
	excerptLength   = 300
)

var (
	courseIdPattern   = regexp.MustCompile(`id:(\d+),`)
	courseNamePattern = regexp.MustCompile(`name:'([^']*)',`)
)

// isCatalogBody reports whether a catalog fetch returned structured course
// data rather than an error or login page.
func isCatalogBody(status int, text string) bool {
	return status == http.StatusOK &&
		strings.Contains(text, catalogMarker) &&
		!htmlutil.LooksLikeHTML(text)
}

// ParseCatalog extracts the course entries of a catalog body.
//
// Ids are every `id:<digits>,` in order. Names are taken one per record,
// records being the chunks between `code:` markers: the first chunk may be a
// preamble without a name, after that name extraction stops at the first
// chunk without one. Entries pair ids and names by position and are capped
// at the shorter of the two lists.
func ParseCatalog(text string) (Catalog, error) {
	var ids []string
	for _, match := range courseIdPattern.FindAllStringSubmatch(text, -1) {
		ids = append(ids, match[1])
	}
	if len(ids) == 0 {
		return Catalog{}, fmt.Errorf("%w: %s", ErrNoCourses, htmlutil.Excerpt(text, excerptLength))
	}

	var names []string
	for i, chunk := range strings.Split(text, recordDelimiter) {
		match := courseNamePattern.FindStringSubmatch(chunk)
		if match == nil {
			if i == 0 {
				continue
			}
			break
		}
		names = append(names, match[1])
	}

	n := min(len(ids), len(names))
	entries := make([]CourseEntry, n)
	for i := 0; i < n; i++ {
		entries[i] = CourseEntry{
			Index:    i,
			CourseId: ids[i],
			Name:     names[i],
		}
	}

	return Catalog{
		Entries: entries,
		Ids:     ids,
	}, nil
}
