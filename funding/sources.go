package funding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

const upstreamPageSize = 50

// Portal pages used when a record carries no direct link.
const (
	bdnsPortalURL  = "https://www.infosubvenciones.es/bdnstrans/GE/es/convocatorias/"
	tenderPortal   = "https://contrataciondelestado.es/wps/portal/plataforma"
	sediaPortalURL = "https://ec.europa.eu/info/funding-tenders/opportunities/portal/screen/opportunities/topic-details/"
	tedPortalURL   = "https://ted.europa.eu/en/notice/-/detail/"
)

// BDNSSource queries the national grants database.
type BDNSSource struct {
	fetcher Fetcher
	baseURL string
}

// NewBDNSSource creates a national subsidies source.
func NewBDNSSource(f Fetcher, baseURL string) *BDNSSource {
	return &BDNSSource{fetcher: f, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *BDNSSource) Name() string { return "BDNS" }
func (s *BDNSSource) Kind() Kind   { return NationalSubsidy }

type bdnsResponse struct {
	Content []struct {
		ID                 int64   `json:"id"`
		NumeroConvocatoria string  `json:"numeroConvocatoria"`
		Descripcion        string  `json:"descripcion"`
		DescripcionLeng    string  `json:"descripcionLeng"`
		FechaRecepcion     string  `json:"fechaRecepcion"`
		FechaFinSolicitud  string  `json:"fechaFinSolicitud"`
		Nivel1             string  `json:"nivel1"`
		Nivel2             string  `json:"nivel2"`
		PresupuestoTotal   float64 `json:"presupuestoTotal"`
	} `json:"content"`
}

func (s *BDNSSource) Search(ctx context.Context, q Query) ([]Opportunity, error) {
	params := url.Values{}
	params.Set("descripcion", strings.Join(q.Keywords, " "))
	params.Set("descripcionTipoBusqueda", "1") // any word
	params.Set("page", "0")
	params.Set("pageSize", strconv.Itoa(upstreamPageSize))
	params.Set("order", "fechaRecepcion")
	params.Set("direccion", "desc")
	if !q.From.IsZero() {
		params.Set("fechaDesde", formatDMY(q.From))
	}
	if !q.To.IsZero() {
		params.Set("fechaHasta", formatDMY(q.To))
	}

	var resp bdnsResponse
	if err := s.fetcher.GetJSON(ctx, s.baseURL+"/convocatorias/busqueda?"+params.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("bdns search: %w", err)
	}

	opps := make([]Opportunity, 0, len(resp.Content))
	for _, c := range resp.Content {
		link := bdnsPortalURL
		if c.NumeroConvocatoria != "" {
			link = bdnsPortalURL + url.PathEscape(c.NumeroConvocatoria)
		}
		desc := joinNonEmpty(" / ", c.Nivel1, c.Nivel2)
		if c.DescripcionLeng != "" {
			desc = joinNonEmpty(". ", c.DescripcionLeng, desc)
		}
		opps = append(opps, Opportunity{
			Source:          s.Name(),
			Title:           strings.TrimSpace(c.Descripcion),
			URL:             link,
			PublicationDate: c.FechaRecepcion,
			DeadlineDate:    c.FechaFinSolicitud,
			Description:     desc,
			Budget:          formatAmount(c.PresupuestoTotal),
			Kind:            s.Kind(),
		})
	}
	return opps, nil
}

// TenderFeedSource queries the national public procurement feed.
type TenderFeedSource struct {
	fetcher Fetcher
	baseURL string
}

// NewTenderFeedSource creates a national tenders source.
func NewTenderFeedSource(f Fetcher, baseURL string) *TenderFeedSource {
	return &TenderFeedSource{fetcher: f, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *TenderFeedSource) Name() string { return "PLACSP" }
func (s *TenderFeedSource) Kind() Kind   { return NationalTender }

type tenderFeedResponse struct {
	Items []struct {
		Title     string `json:"title"`
		Link      string `json:"link"`
		Published string `json:"published"`
		Deadline  string `json:"deadline"`
		Summary   string `json:"summary"`
		Amount    string `json:"amount"`
	} `json:"items"`
}

func (s *TenderFeedSource) Search(ctx context.Context, q Query) ([]Opportunity, error) {
	params := url.Values{}
	params.Set("q", strings.Join(q.Keywords, " "))
	params.Set("limit", strconv.Itoa(upstreamPageSize))
	if !q.From.IsZero() {
		params.Set("from", q.From.Format("2006-01-02"))
	}

	var resp tenderFeedResponse
	if err := s.fetcher.GetJSON(ctx, s.baseURL+"?"+params.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("tender feed search: %w", err)
	}

	opps := make([]Opportunity, 0, len(resp.Items))
	for _, it := range resp.Items {
		link := it.Link
		if link == "" {
			link = tenderPortal
		}
		opps = append(opps, Opportunity{
			Source:          s.Name(),
			Title:           strings.TrimSpace(it.Title),
			URL:             link,
			PublicationDate: it.Published,
			DeadlineDate:    it.Deadline,
			Description:     strings.TrimSpace(it.Summary),
			Budget:          it.Amount,
			Kind:            s.Kind(),
		})
	}
	return opps, nil
}

// SEDIASource queries the EU Funding & Tenders portal search API.
type SEDIASource struct {
	fetcher Fetcher
	baseURL string
}

// NewSEDIASource creates an international subsidies source.
func NewSEDIASource(f Fetcher, baseURL string) *SEDIASource {
	return &SEDIASource{fetcher: f, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *SEDIASource) Name() string { return "EU Funding & Tenders" }
func (s *SEDIASource) Kind() Kind   { return InternationalSubsidy }

type sediaRequest struct {
	Text     string   `json:"text"`
	Types    []string `json:"type"`
	Status   []string `json:"status"`
	PageSize int      `json:"pageSize"`
	Page     int      `json:"pageNumber"`
}

type sediaResponse struct {
	Results []struct {
		Title    string                     `json:"title"`
		URL      string                     `json:"url"`
		Summary  string                     `json:"summary"`
		Content  string                     `json:"content"`
		Metadata map[string]json.RawMessage `json:"metadata"`
	} `json:"results"`
}

func (s *SEDIASource) Search(ctx context.Context, q Query) ([]Opportunity, error) {
	req := sediaRequest{
		Text:     orQuery(q.Keywords, q.Expanded),
		Types:    []string{"1", "2", "8"},          // calls for proposals, topics, cascade funding
		Status:   []string{"31094501", "31094502"}, // forthcoming, open
		PageSize: upstreamPageSize,
		Page:     1,
	}

	var resp sediaResponse
	if err := s.fetcher.PostJSON(ctx, s.baseURL+"?apiKey=SEDIA", req, &resp); err != nil {
		return nil, fmt.Errorf("sedia search: %w", err)
	}

	opps := make([]Opportunity, 0, len(resp.Results))
	for _, r := range resp.Results {
		title := firstText(r.Metadata["title"])
		if title == "" {
			title = r.Title
		}
		link := r.URL
		if id := firstText(r.Metadata["identifier"]); link == "" && id != "" {
			link = sediaPortalURL + strings.ToLower(id)
		}
		if link == "" {
			link = sediaPortalURL
		}
		desc := r.Summary
		if desc == "" {
			desc = firstText(r.Metadata["descriptionByte"])
		}
		if desc == "" {
			desc = r.Content
		}
		opps = append(opps, Opportunity{
			Source:          s.Name(),
			Title:           strings.TrimSpace(title),
			URL:             link,
			PublicationDate: firstText(r.Metadata["startDate"]),
			DeadlineDate:    firstText(r.Metadata["deadlineDate"]),
			Description:     strings.TrimSpace(desc),
			Budget:          firstText(r.Metadata["budget"]),
			Kind:            s.Kind(),
		})
	}
	return opps, nil
}

// TEDSource queries the EU public procurement notices API.
type TEDSource struct {
	fetcher Fetcher
	baseURL string
}

// NewTEDSource creates an international tenders source.
func NewTEDSource(f Fetcher, baseURL string) *TEDSource {
	return &TEDSource{fetcher: f, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *TEDSource) Name() string { return "TED" }
func (s *TEDSource) Kind() Kind   { return InternationalTender }

type tedRequest struct {
	Query  string   `json:"query"`
	Fields []string `json:"fields"`
	Limit  int      `json:"limit"`
	Page   int      `json:"page"`
}

type tedResponse struct {
	Notices []struct {
		PublicationNumber string          `json:"publication-number"`
		Title             json.RawMessage `json:"notice-title"`
		PublicationDate   json.RawMessage `json:"publication-date"`
		Deadline          json.RawMessage `json:"deadline-receipt-tender-date-lot"`
		Description       json.RawMessage `json:"description-lot"`
		Value             json.RawMessage `json:"estimated-value-lot"`
		Links             struct {
			HTML map[string]string `json:"html"`
		} `json:"links"`
	} `json:"notices"`
}

var tedFields = []string{
	"publication-number", "notice-title", "publication-date",
	"deadline-receipt-tender-date-lot", "description-lot", "estimated-value-lot", "links",
}

func (s *TEDSource) Search(ctx context.Context, q Query) ([]Opportunity, error) {
	terms := append(append([]string(nil), q.Keywords...), q.Expanded...)
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			quoted = append(quoted, strconv.Quote(t))
		}
	}
	query := "FT~(" + strings.Join(quoted, " OR ") + ")"
	if !q.From.IsZero() {
		query += " AND PD>=" + q.From.Format("20060102")
	}
	req := tedRequest{Query: query, Fields: tedFields, Limit: upstreamPageSize, Page: 1}

	var resp tedResponse
	if err := s.fetcher.PostJSON(ctx, s.baseURL, req, &resp); err != nil {
		return nil, fmt.Errorf("ted search: %w", err)
	}

	opps := make([]Opportunity, 0, len(resp.Notices))
	for _, n := range resp.Notices {
		link := n.Links.HTML["ENG"]
		if link == "" && n.PublicationNumber != "" {
			link = tedPortalURL + n.PublicationNumber
		}
		if link == "" {
			link = tedPortalURL
		}
		opps = append(opps, Opportunity{
			Source:          s.Name(),
			Title:           strings.TrimSpace(firstText(n.Title)),
			URL:             link,
			PublicationDate: firstText(n.PublicationDate),
			DeadlineDate:    firstText(n.Deadline),
			Description:     strings.TrimSpace(firstText(n.Description)),
			Budget:          firstText(n.Value),
			Kind:            s.Kind(),
		})
	}
	return opps, nil
}

// firstText pulls a display string out of the loosely typed metadata these
// APIs return: a string, a number, a list, or a language map of either.
// English and Spanish entries are preferred in language maps.
func firstText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if json.Unmarshal(raw, &s) == nil {
			return s
		}
	case '[':
		var list []json.RawMessage
		if json.Unmarshal(raw, &list) == nil {
			for _, item := range list {
				if s := firstText(item); s != "" {
					return s
				}
			}
		}
	case '{':
		var m map[string]json.RawMessage
		if json.Unmarshal(raw, &m) == nil {
			for _, lang := range []string{"eng", "ENG", "en", "spa", "SPA", "es"} {
				if s := firstText(m[lang]); s != "" {
					return s
				}
			}
			keys := make([]string, 0, len(m))
			for k := range m {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				if s := firstText(m[k]); s != "" {
					return s
				}
			}
		}
	default:
		var n json.Number
		if json.Unmarshal(raw, &n) == nil {
			return n.String()
		}
	}
	return ""
}

func orQuery(primary, expanded []string) string {
	terms := make([]string, 0, len(primary)+len(expanded))
	for _, t := range append(append([]string(nil), primary...), expanded...) {
		if t = strings.TrimSpace(t); t != "" {
			terms = append(terms, t)
		}
	}
	return strings.Join(terms, " OR ")
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

func formatAmount(v float64) string {
	if v <= 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 2, 64) + " EUR"
}
