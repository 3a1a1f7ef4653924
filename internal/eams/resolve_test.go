package eams

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleCatalog = "var lessonJSONs = [{id:1001,no:'A1',name:'Math',code:'M1',credits:2}," +
	"{id:1002,no:'A2',name:'Physics',code:'P1',credits:3}];"

func TestExtractProfileIds(t *testing.T) {
	page := `<a href="stdElectCourse!defaultPage.action?electionProfile.id=5000">enter</a>
<script>var profileId = '5001'; var cfg = {electionProfile.id: 5000};</script>
<a href="x.action?a=1&profileId=5002">other</a>`

	require.Equal(t, []string{"5000", "5001", "5002"}, ExtractProfileIds(page))
	require.Empty(t, ExtractProfileIds("nothing here"))
}

func TestResolvePreferredParam(t *testing.T) {
	fake := newFakeEams()
	fake.catalogs[catalogKey(ParamElectionProfileID, "4665")] = sampleCatalog
	client, _ := startFake(t, fake)

	catalog, err := client.Resolve(context.Background(), "4665")
	require.NoError(t, err)
	require.Equal(t, "4665", catalog.ProfileId)
	require.Equal(t, ParamElectionProfileID, catalog.Param)
	require.Len(t, catalog.Entries, 2)
	require.Equal(t, "Physics", catalog.Entries[1].Name)

	require.Len(t, fake.seen(catalogPath), 1)
	require.Empty(t, fake.seen(defaultPagePath))
}

func TestResolveFallbackParam(t *testing.T) {
	fake := newFakeEams()
	fake.catalogs[catalogKey(ParamProfileID, "4665")] = sampleCatalog
	client, _ := startFake(t, fake)

	catalog, err := client.Resolve(context.Background(), "4665")
	require.NoError(t, err)
	require.Equal(t, ParamProfileID, catalog.Param)
	require.Equal(t, "4665", catalog.ProfileId)
}

func TestResolveDiscoversProfileId(t *testing.T) {
	fake := newFakeEams()
	fake.landing["electionProfile.id=4665"] = "<html><body>no such round</body></html>"
	fake.landing[""] = `<html><a href="stdElectCourse!defaultPage.action?electionProfile.id=5000">go</a></html>`
	fake.catalogs[catalogKey(ParamProfileID, "5000")] = sampleCatalog
	client, tel := startFake(t, fake)

	catalog, err := client.Resolve(context.Background(), "4665")
	require.NoError(t, err)
	require.Equal(t, "5000", catalog.ProfileId)
	require.Equal(t, ParamProfileID, catalog.Param)
	require.True(t, tel.Contains("warning", "replaced by 5000"))

	// the configured id is tried again before discovered ones, each once
	fetched := fake.seen(catalogPath)
	var queries []string
	for _, r := range fetched {
		queries = append(queries, r.Query)
	}
	require.Equal(t, []string{
		"electionProfile.id=4665",
		"profileId=4665",
		"electionProfile.id=4665",
		"profileId=4665",
		"electionProfile.id=5000",
		"profileId=5000",
	}, queries)
}

func TestResolveUnresolvable(t *testing.T) {
	fake := newFakeEams()
	client, tel := startFake(t, fake)

	_, err := client.Resolve(context.Background(), "4665")
	require.ErrorIs(t, err, ErrCatalogUnresolvable)

	var catalogErr *CatalogError
	require.True(t, errors.As(err, &catalogErr))
	require.Equal(t, 500, catalogErr.Status)
	require.Equal(t, ParamProfileID, catalogErr.Param)
	require.Contains(t, catalogErr.Excerpt, "error")
	require.True(t, tel.Contains("broken", report_catalog_resolve))
}

func TestResolveEmptyCatalog(t *testing.T) {
	fake := newFakeEams()
	fake.catalogs[catalogKey(ParamElectionProfileID, "4665")] = "{id: none}"
	client, _ := startFake(t, fake)

	_, err := client.Resolve(context.Background(), "4665")
	require.ErrorIs(t, err, ErrNoCourses)
}
