package eams

import (
	"context"
	"fmt"
	"regexp"

	"eamsgrab/pkg/htmlutil"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	report_catalog_fetch    = "catalog.fetch"
	report_catalog_discover = "catalog.discover"
	report_catalog_resolve  = "catalog.resolve"
)

var tracer = otel.Tracer("eamsgrab/eams")

var profileIdPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:\bprofileId\b|\belectionProfile\.id\b)\s*[:=]\s*['"]?(\d+)`),
	regexp.MustCompile(`(?:\?|&)(?:profileId|electionProfile\.id)=(\d+)`),
}

// ExtractProfileIds finds election profile ids embedded in a page, either
// as `key: value` assignments or as query string parameters. Ids are
// deduplicated in first-seen order.
func ExtractProfileIds(text string) []string {
	var hits []string
	for _, pattern := range profileIdPatterns {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			hits = append(hits, match[1])
		}
	}
	return dedupe(hits)
}

func dedupe(values []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

type fetchResult struct {
	status int
	text   string
	param  ParamName
}

func (r fetchResult) ok() bool {
	return isCatalogBody(r.status, r.text)
}

// fetchCatalog tries every parameter name for `profileId` and returns the
// first acceptable result, or the last result if none was.
func (c *Client) fetchCatalog(ctx context.Context, profileId string) fetchResult {
	var result fetchResult
	for _, param := range ParamNames {
		endpoint := CatalogUrl(c.BaseUrl, param, profileId)
		res, err := c.get(ctx, endpoint)
		if err != nil {
			c.tel.ReportWarning(report_catalog_fetch, err, endpoint)
			result = fetchResult{text: err.Error(), param: param}
			continue
		}
		text, encoding := res.Text()
		c.tel.ReportDebug(report_catalog_fetch, endpoint, res.Status, encoding)

		result = fetchResult{status: res.Status, text: text, param: param}
		if result.ok() {
			return result
		}
	}
	return result
}

// discoverProfileIds scans the election landing pages for other profile ids.
func (c *Client) discoverProfileIds(ctx context.Context, profileId string) []string {
	var found []string
	pages := []string{
		DefaultPageUrl(c.BaseUrl, profileId),
		DefaultPageUrl(c.BaseUrl, ""),
	}
	for _, page := range pages {
		res, err := c.get(ctx, page)
		if err != nil {
			c.tel.ReportWarning(report_catalog_discover, err, page)
			continue
		}
		text, _ := res.Text()
		found = append(found, ExtractProfileIds(text)...)
	}
	found = dedupe(found)
	c.tel.ReportDebug(report_catalog_discover, found)
	return found
}

// Resolve fetches and parses the course catalog of `profileId`.
//
// If neither parameter name yields a catalog, profile ids found on the
// election landing pages are tried in turn (`profileId` first). The
// returned catalog carries the profile id and parameter name that worked.
func (c *Client) Resolve(ctx context.Context, profileId string) (Catalog, error) {
	ctx, span := tracer.Start(ctx, "client:Resolve")
	defer span.End()

	workingId := profileId
	result := c.fetchCatalog(ctx, profileId)
	if !result.ok() {
		candidates := dedupe(append([]string{profileId}, c.discoverProfileIds(ctx, profileId)...))
		for _, candidate := range candidates {
			if err := ctx.Err(); err != nil {
				return Catalog{}, err
			}
			result = c.fetchCatalog(ctx, candidate)
			if result.ok() {
				workingId = candidate
				break
			}
		}
	}

	if !result.ok() {
		err := &CatalogError{
			Status:  result.status,
			Param:   result.param,
			Title:   htmlutil.Title(result.text),
			Excerpt: htmlutil.Excerpt(result.text, excerptLength),
			Err:     ErrCatalogUnresolvable,
		}
		span.SetStatus(codes.Error, "catalog unresolvable")
		c.tel.ReportBroken(report_catalog_resolve, err, profileId)
		return Catalog{}, err
	}

	catalog, err := ParseCatalog(result.text)
	if err != nil {
		span.SetStatus(codes.Error, "catalog unparseable")
		c.tel.ReportBroken(report_catalog_resolve, err, workingId)
		return Catalog{}, err
	}
	catalog.ProfileId = workingId
	catalog.Param = result.param

	span.SetAttributes(
		attribute.String("profile_id", workingId),
		attribute.String("param", string(result.param)),
		attribute.Int("entries", len(catalog.Entries)),
	)
	if workingId != profileId {
		c.tel.ReportWarning(report_catalog_resolve, fmt.Sprintf("profile id %s replaced by %s", profileId, workingId))
	}
	return catalog, nil
}
