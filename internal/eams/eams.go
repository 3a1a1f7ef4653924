// Package eams talks to the course election pages of an EAMS ("教务管理系统")
// deployment using a cookie copied from a logged in browser.
package eams

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const DefaultBaseUrl = "https://aao-eas.nuaa.edu.cn"

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const (
	homeExtPath     = "/eams/homeExt.action"
	homePath        = "/eams/home.action"
	defaultPagePath = "/eams/stdElectCourse!defaultPage.action"
	catalogPath     = "/eams/stdElectCourse!data.action"
	submitPath      = "/eams/stdElectCourse!batchOperator.action"
)

// ParamName is a query parameter name the server accepts for the election
// profile id.
type ParamName string

const (
	ParamElectionProfileID ParamName = "electionProfile.id"
	ParamProfileID         ParamName = "profileId"
)

// ParamNames lists every accepted parameter name in the order they are tried.
var ParamNames = []ParamName{ParamElectionProfileID, ParamProfileID}

// Other returns the parameter name that is not p.
func (p ParamName) Other() ParamName {
	if p == ParamProfileID {
		return ParamElectionProfileID
	}
	return ParamProfileID
}

const (
	// shown on the unified identity authentication wall
	phraseAuthWall = "统一身份认证"
	// marker path of the authentication service
	authServerMarker = "authserver"
	// "please do not click too fast"
	phraseTooFast = "请不要过快点击"
	phraseSuccess = "成功"
)

// "not successful" in its usual spellings, all of them contain phraseSuccess
var phrasesNotSuccess = []string{"未成功", "不成功", "没有成功", "没成功"}

var (
	ErrCookieExpired       = errors.New("cookie is invalid or expired: copy the whole Cookie header of a stdElectCourse request and try again")
	ErrCatalogUnresolvable = errors.New("could not fetch the course catalog")
	ErrNoCourses           = errors.New("no course id found in catalog")
	ErrNothingSelected     = errors.New("no course selected")
)

// CatalogError describes the last failed catalog fetch.
type CatalogError struct {
	Status  int
	Param   ParamName
	Title   string
	Excerpt string
	Err     error
}

func (e *CatalogError) Error() string {
	msg := fmt.Sprintf("%v (status %d, param %s)", e.Err, e.Status, e.Param)
	if e.Title != "" {
		msg += fmt.Sprintf(" title %q", e.Title)
	}
	if e.Excerpt != "" {
		msg += fmt.Sprintf(": %s", e.Excerpt)
	}
	return msg
}

func (e *CatalogError) Unwrap() error {
	return e.Err
}

func joinUrl(base, path string) string {
	return strings.TrimRight(base, "/") + path
}

func withProfile(endpoint string, param ParamName, profileId string) string {
	return fmt.Sprintf("%s?%s=%s", endpoint, param, url.QueryEscape(profileId))
}

// DefaultPageUrl is the election landing page, `profileId` may be empty.
func DefaultPageUrl(base, profileId string) string {
	endpoint := joinUrl(base, defaultPagePath)
	if profileId == "" {
		return endpoint
	}
	return withProfile(endpoint, ParamElectionProfileID, profileId)
}

// CatalogUrl is the course catalog data endpoint.
func CatalogUrl(base string, param ParamName, profileId string) string {
	return withProfile(joinUrl(base, catalogPath), param, profileId)
}

// SubmitUrls returns the submission endpoints for a profile, the one using
// `preferred` first and the other parameter name as fallback.
func SubmitUrls(base, profileId string, preferred ParamName) []string {
	endpoint := joinUrl(base, submitPath)
	return []string{
		withProfile(endpoint, preferred, profileId),
		withProfile(endpoint, preferred.Other(), profileId),
	}
}
