package crawlscope

import (
	"errors"
	"strings"
	"time"

	domds "github.com/kailas-cloud/crawlscope/internal/domain/dataset"
	"github.com/kailas-cloud/crawlscope/internal/domain/page"
	"github.com/kailas-cloud/crawlscope/internal/domain/record"
	domsession "github.com/kailas-cloud/crawlscope/internal/domain/session"
	domsummary "github.com/kailas-cloud/crawlscope/internal/domain/summary"
	"github.com/kailas-cloud/crawlscope/internal/domain/tagset"
	"github.com/kailas-cloud/crawlscope/internal/domain/term"
	"github.com/kailas-cloud/crawlscope/internal/usecase/tagging"
)

func fromInternalSession(st domsession.State) Session {
	return Session{
		ID:            st.ID(),
		ActiveDataset: st.ActiveDataset(),
		ActiveFilter:  st.ActiveFilter().Text(),
		PageCountCap:  st.PageCountCap(),
	}
}

func fromInternalDataset(ds domds.Dataset) Dataset {
	return Dataset{ID: ds.ID(), Name: ds.Name(), CreatedAt: ds.CreatedAt()}
}

func fromInternalListing(l page.Listing) Listing {
	pages := make([]Page, len(l.Pages))
	for i, p := range l.Pages {
		pages[i] = Page{
			URL:         p.URL(),
			X:           p.X(),
			Y:           p.Y(),
			Tags:        labels(p.Tags()),
			RetrievedAt: p.RetrievedAt(),
			Phase:       Phase(p.Phase()),
		}
	}
	return Listing{LastRetrievedAt: l.LastRetrievedAt, Pages: pages}
}

func fromInternalTerms(ts []term.Summary) []Term {
	out := make([]Term, len(ts))
	for i, t := range ts {
		out[i] = Term{
			Term:              t.Term,
			PositiveFrequency: t.PositiveFrequency,
			NegativeFrequency: t.NegativeFrequency,
			Tags:              labels(t.Tags),
		}
	}
	return out
}

func fromInternalPlan(p tagging.Plan) TagResult {
	return TagResult{Created: len(p.Creates), Updated: len(p.Updates)}
}

func fromInternalPhaseCounts(c domsummary.PhaseCounts) PhaseCounts {
	return PhaseCounts{Explored: c.Explored, Exploited: c.Exploited, Boosted: c.Boosted}
}

// labels never returns nil, so untagged items carry an empty list.
func labels(s tagset.Set) []string {
	out := s.Labels()
	if out == nil {
		out = []string{}
	}
	return out
}

// toRecord validates a page and builds its stored form.
func toRecord(p PageInput, now time.Time) (record.Record, error) {
	url := strings.TrimSpace(p.URL)
	if url == "" {
		return record.Record{}, errors.New("url is required")
	}
	phase, err := page.ParsePhase(string(p.Phase))
	if err != nil {
		return record.Record{}, err
	}
	tags, err := tagset.New(p.Tags...)
	if err != nil {
		return record.Record{}, err
	}
	retrieved := p.RetrievedAt
	if retrieved.IsZero() {
		retrieved = now
	}

	fields := map[string]string{
		record.FieldText:      p.Text,
		record.FieldRetrieved: record.FormatEpoch(retrieved),
		record.FieldPhase:     string(phase),
	}
	if !tags.IsEmpty() {
		fields[record.FieldTag] = tags.Encode()
	}
	return record.New(url, fields), nil
}
