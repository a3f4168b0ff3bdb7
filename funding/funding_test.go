package funding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinex/drwin/fetch"
)

type stubSource struct {
	name string
	kind Kind
	opps []Opportunity
	err  error
	got  Query
}

func (s *stubSource) Name() string { return s.name }
func (s *stubSource) Kind() Kind   { return s.kind }
func (s *stubSource) Search(_ context.Context, q Query) ([]Opportunity, error) {
	s.got = q
	return s.opps, s.err
}

func fixedClock() time.Time {
	return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
}

func TestRelevanceWeights(t *testing.T) {
	o := Opportunity{Title: "Hydrogen storage pilot", Description: "Innovación en almacenamiento de hydrogen"}

	assert.Equal(t, 10.0+3.0+20.0, Relevance(o, []string{"hydrogen"}, nil))
	assert.Equal(t, 4.0, Relevance(o, nil, []string{"pilot"}))
	assert.Equal(t, 1.0, Relevance(o, nil, []string{"innovacion"}), "accents are folded")
	assert.Equal(t, 13.0, Relevance(o, []string{"hydrogen", "battery"}, nil), "no bonus when a primary keyword is missing")
	assert.Zero(t, Relevance(o, nil, nil))
}

func TestRelevanceBonusNeedsAKeyword(t *testing.T) {
	o := Opportunity{Title: "Hydrogen storage pilot"}

	assert.Zero(t, Relevance(o, []string{"", "  "}, nil))
	assert.Equal(t, 4.0, Relevance(o, []string{""}, []string{"pilot"}))
	assert.Equal(t, 4.0, RankOptions{Expanded: []string{"pilot"}, Groups: [][]string{{""}, {" "}}}.relevance(o))
}

func TestRelevanceCountsTranslationsTowardBonus(t *testing.T) {
	o := Opportunity{Title: "Hydrogen storage pilot"}
	opts := RankOptions{
		Primary: []string{"hidrógeno", "almacenamiento", "hydrogen", "storage"},
		Groups:  KeywordGroups([]string{"hidrógeno", "almacenamiento"}, []string{"hydrogen", "storage"}),
	}
	assert.Equal(t, 10.0+10.0+20.0, opts.relevance(o))

	opts.Groups = KeywordGroups([]string{"hidrógeno", "almacenamiento"}, []string{"hydrogen"})
	assert.Equal(t, 20.0, opts.relevance(o), "unaligned translations do not pair")
}

func TestRankFiltersAndOrders(t *testing.T) {
	opps := []Opportunity{
		{Title: "Unrelated call"},
		{Title: "Solar", Description: "solar panels"},
		{Title: "Solar farms and solar storage", Description: "x"},
		{Title: "Another solar"},
	}
	ranked := Rank(opps, RankOptions{Primary: []string{"solar"}, MinScore: 1})
	require.Len(t, ranked, 3)
	assert.Equal(t, "Solar", ranked[0].Title)
	assert.Equal(t, "Solar farms and solar storage", ranked[1].Title, "ties keep source order")
	assert.Equal(t, "Another solar", ranked[2].Title)

	limited := Rank(opps, RankOptions{Primary: []string{"solar"}, Limit: 2})
	assert.Len(t, limited, 2)
}

func TestInclusionThreshold(t *testing.T) {
	assert.Equal(t, 1.0, InclusionThreshold([]string{"a", "b", "c"}))
	assert.Equal(t, 3.0, InclusionThreshold([]string{"a", "b", "c", "d"}))
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2026-04-01", "2026-04-01", true},
		{"2026-04-01T10:00:00Z", "2026-04-01", true},
		{"2026-04-01+02:00", "2026-04-01", true},
		{"01/04/2026", "2026-04-01", true},
		{"soon", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseDate(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if ok {
			assert.Equal(t, tt.want, got.Format("2006-01-02"), tt.in)
		}
	}
}

func TestFilterOpenKeepsTodayAndUnknown(t *testing.T) {
	now := fixedClock()
	opps := []Opportunity{
		{Title: "past", DeadlineDate: "2026-03-14"},
		{Title: "today", DeadlineDate: "2026-03-15"},
		{Title: "future", DeadlineDate: "2026-06-01"},
		{Title: "unknown", DeadlineDate: "rolling"},
		{Title: "none"},
	}
	open := FilterOpen(opps, now)
	titles := make([]string, 0, len(open))
	for _, o := range open {
		titles = append(titles, o.Title)
	}
	assert.Equal(t, []string{"today", "future", "unknown", "none"}, titles)
}

func TestSearcherMergesAndRecordsFailures(t *testing.T) {
	national := &stubSource{name: "BDNS", kind: NationalSubsidy, opps: []Opportunity{
		{Title: "Ayudas energía solar", DeadlineDate: "2026-05-01"},
		{Title: "Expired solar call", DeadlineDate: "2025-01-01"},
	}}
	intl := &stubSource{name: "EU", kind: InternationalSubsidy, opps: []Opportunity{
		{Title: "Solar energy communities", Description: "solar"},
		{Title: "Fisheries"},
	}}
	broken := &stubSource{name: "TED", kind: InternationalTender, err: errors.New("boom")}
	skipped := &stubSource{name: "PLACSP", kind: NationalTender}

	s := NewSearcher(national, intl, broken, skipped).WithClock(fixedClock)
	res := s.Search(context.Background(), SearchRequest{
		Keywords:   []string{"solar"},
		Translated: []string{"solar"},
		Related:    []string{"photovoltaic"},
		Flags:      Flags{NationalSubsidies: true, InternationalSubsidies: true, InternationalTenders: true},
	})

	assert.Equal(t, []string{"BDNS", "EU", "TED"}, res.SearchedSources)
	assert.Equal(t, []string{"TED"}, res.FailedSources)
	require.Len(t, res.Opportunities, 2)
	assert.Equal(t, "Solar energy communities", res.Opportunities[0].Title)
	assert.Equal(t, "Ayudas energía solar", res.Opportunities[1].Title)
	assert.Equal(t, 2, res.TotalFound)

	assert.Equal(t, []string{"solar"}, national.got.Keywords)
	assert.Empty(t, national.got.Expanded)
	assert.Equal(t, []string{"solar"}, intl.got.Keywords, "translations are deduplicated")
	assert.Equal(t, []string{"photovoltaic"}, intl.got.Expanded)
	assert.Empty(t, skipped.got.Keywords, "disabled source is not queried")
}

func TestSearcherThresholdUsesOriginalKeywords(t *testing.T) {
	intl := &stubSource{name: "EU", kind: InternationalSubsidy, opps: []Opportunity{
		{Title: "Clean Energy Partnership", Description: "Support for electrolysis demonstrators"},
		{Title: "Fisheries"},
	}}

	s := NewSearcher(intl).WithClock(fixedClock)
	res := s.Search(context.Background(), SearchRequest{
		Keywords:   []string{"hidrógeno", "almacenamiento"},
		Translated: []string{"hydrogen", "storage"},
		Related:    []string{"electrolysis"},
		Flags:      Flags{InternationalSubsidies: true},
	})

	require.Len(t, res.Opportunities, 1)
	assert.Equal(t, "Clean Energy Partnership", res.Opportunities[0].Title)
	assert.Equal(t, 1.0, res.Opportunities[0].Relevance)
	assert.Len(t, intl.got.Keywords, 4)
}

func TestSearcherCapsResults(t *testing.T) {
	var opps []Opportunity
	for i := 0; i < 30; i++ {
		opps = append(opps, Opportunity{Title: "solar"})
	}
	s := NewSearcher(&stubSource{name: "BDNS", kind: NationalSubsidy, opps: opps}).WithMaxResults(5)
	res := s.Search(context.Background(), SearchRequest{Keywords: []string{"solar"}, Flags: Flags{NationalSubsidies: true}})
	assert.Len(t, res.Opportunities, 5)
	assert.Equal(t, 30, res.TotalFound)
}

func TestSearcherEmptyResultIsNotNil(t *testing.T) {
	res := NewSearcher().Search(context.Background(), SearchRequest{Flags: Flags{NationalSubsidies: true}})
	assert.NotNil(t, res.Opportunities)
	assert.NotNil(t, res.FailedSources)
}

func newFetcher() *fetch.Client {
	return fetch.NewClient(fetch.Options{MaxRetries: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}, nil)
}

func TestBDNSSourceMapsRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/convocatorias/busqueda", r.URL.Path)
		assert.Equal(t, "hidrógeno verde", r.URL.Query().Get("descripcion"))
		assert.Equal(t, "01/01/2026", r.URL.Query().Get("fechaDesde"))
		_, _ = w.Write([]byte(`{"content":[{"numeroConvocatoria":"812345","descripcion":" Ayudas hidrógeno ","fechaRecepcion":"2026-01-10","nivel1":"ESTADO","nivel2":"MITECO","presupuestoTotal":1500000}]}`))
	}))
	defer srv.Close()

	src := NewBDNSSource(newFetcher(), srv.URL+"/")
	opps, err := src.Search(context.Background(), Query{
		Keywords: []string{"hidrógeno", "verde"},
		From:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, opps, 1)
	assert.Equal(t, Opportunity{
		Source:          "BDNS",
		Title:           "Ayudas hidrógeno",
		URL:             bdnsPortalURL + "812345",
		PublicationDate: "2026-01-10",
		Description:     "ESTADO / MITECO",
		Budget:          "1500000.00 EUR",
		Kind:            NationalSubsidy,
	}, opps[0])
}

func TestTEDSourceReadsLanguageMaps(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req tedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, `FT~("wind" OR "offshore")`, req.Query)
		_, _ = w.Write([]byte(`{"notices":[{"publication-number":"123-2026","notice-title":{"deu":"Wind","eng":"Offshore wind survey"},"deadline-receipt-tender-date-lot":["2026-04-01+01:00"],"description-lot":{"eng":["Survey works"]},"estimated-value-lot":[250000]}]}`))
	}))
	defer srv.Close()

	opps, err := NewTEDSource(newFetcher(), srv.URL).Search(context.Background(), Query{
		Keywords: []string{"wind"}, Expanded: []string{"offshore"},
	})
	require.NoError(t, err)
	require.Len(t, opps, 1)
	assert.Equal(t, "Offshore wind survey", opps[0].Title)
	assert.Equal(t, tedPortalURL+"123-2026", opps[0].URL)
	assert.Equal(t, "2026-04-01+01:00", opps[0].DeadlineDate)
	assert.Equal(t, "Survey works", opps[0].Description)
	assert.Equal(t, "250000", opps[0].Budget)
}

func TestSEDIASourceFallsBackToPortalLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "SEDIA", r.URL.Query().Get("apiKey"))
		_, _ = w.Write([]byte(`{"results":[{"title":"fallback","metadata":{"title":["Clean Hydrogen Partnership"],"identifier":["HORIZON-JTI-CLEANH2-2026-01"],"deadlineDate":["2026-04-20T17:00:00.000+0000"]}}]}`))
	}))
	defer srv.Close()

	opps, err := NewSEDIASource(newFetcher(), srv.URL).Search(context.Background(), Query{Keywords: []string{"hydrogen"}})
	require.NoError(t, err)
	require.Len(t, opps, 1)
	assert.Equal(t, "Clean Hydrogen Partnership", opps[0].Title)
	assert.True(t, strings.HasSuffix(opps[0].URL, "horizon-jti-cleanh2-2026-01"))
}

func TestSourceErrorIsWrapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := NewTenderFeedSource(newFetcher(), srv.URL).Search(context.Background(), Query{Keywords: []string{"x"}})
	require.Error(t, err)
	var status *fetch.StatusError
	assert.ErrorAs(t, err, &status)
	assert.Contains(t, err.Error(), "tender feed search")
}
