// Package termstats ranks terms and builds term-frequency vectors for a set of
// crawled pages, and reduces those vectors to display coordinates.
package termstats

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/kailas-cloud/crawlscope/internal/domain"
	"github.com/kailas-cloud/crawlscope/internal/domain/record"
	"github.com/kailas-cloud/crawlscope/internal/domain/termvec"
)

const defaultMaxFeatures = 500

// source fetches page bodies by URL.
type source interface {
	FindByField(
		ctx context.Context, dataset string, docType record.DocType, field string, values, returnFields []string,
	) (map[string]record.Record, error)
}

// Repo computes term statistics over page text fetched from the document store.
type Repo struct {
	src         source
	maxFeatures int
}

// New creates a term statistics adapter.
func New(src source) *Repo {
	return &Repo{src: src, maxFeatures: defaultMaxFeatures}
}

// WithMaxFeatures caps the vocabulary of term-frequency matrices.
func (r *Repo) WithMaxFeatures(n int) *Repo {
	if n > 0 {
		r.maxFeatures = n
	}
	return r
}

// corpus is the tokenized text of a URL set, in URL order. Docs with no
// stored text or no tokens have nil entries.
type corpus struct {
	urls []string
	docs [][]string
}

func (c corpus) nonEmpty() int {
	n := 0
	for _, d := range c.docs {
		if len(d) > 0 {
			n++
		}
	}
	return n
}

func (r *Repo) load(ctx context.Context, dataset string, urls []string) (corpus, error) {
	recs, err := r.src.FindByField(ctx, dataset, record.DocTypePage, record.FieldURL, urls,
		[]string{record.FieldURL, record.FieldText})
	if err != nil {
		return corpus{}, fmt.Errorf("fetch page text: %w", err)
	}
	c := corpus{urls: urls, docs: make([][]string, len(urls))}
	for i, u := range urls {
		rec, ok := recs[u]
		if !ok {
			continue
		}
		if text, ok := rec.String(record.FieldText); ok {
			c.docs[i] = tokenize(text)
		}
	}
	return c, nil
}

// RankTerms orders terms by TF-IDF weight summed over the given pages, most
// relevant first, ties broken lexically. limit <= 0 returns every term.
// Fewer than 2 pages with text is ErrDegenerate.
func (r *Repo) RankTerms(ctx context.Context, dataset string, urls []string, limit int) ([]string, error) {
	c, err := r.load(ctx, dataset, urls)
	if err != nil {
		return nil, err
	}
	if c.nonEmpty() < 2 {
		return nil, fmt.Errorf("rank terms: %d documents with text: %w", c.nonEmpty(), domain.ErrDegenerate)
	}

	weights := tfidf(c.docs)
	terms := make([]string, 0, len(weights))
	for t := range weights {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		wi, wj := weights[terms[i]], weights[terms[j]]
		if wi != wj {
			return wi > wj
		}
		return terms[i] < terms[j]
	})
	if limit > 0 && len(terms) > limit {
		terms = terms[:limit]
	}
	return terms, nil
}

// TermFrequencyMatrix builds raw term counts for the given pages. Rows follow
// urls; pages without text give zero rows. The vocabulary holds the most
// frequent terms (up to the configured cap) in lexical order.
func (r *Repo) TermFrequencyMatrix(ctx context.Context, dataset string, urls []string) (termvec.Matrix, error) {
	c, err := r.load(ctx, dataset, urls)
	if err != nil {
		return termvec.Matrix{}, err
	}
	if c.nonEmpty() < 2 {
		return termvec.Matrix{}, fmt.Errorf("term matrix: %d documents with text: %w", c.nonEmpty(), domain.ErrDegenerate)
	}

	vocab := vocabulary(c.docs, r.maxFeatures)
	col := make(map[string]int, len(vocab))
	for i, t := range vocab {
		col[t] = i
	}

	rows := make([][]float64, len(c.docs))
	for i, doc := range c.docs {
		row := make([]float64, len(vocab))
		for _, t := range doc {
			if j, ok := col[t]; ok {
				row[j]++
			}
		}
		rows[i] = row
	}

	return termvec.Matrix{Rows: rows, Vocabulary: vocab, Corpus: append([]string(nil), urls...)}, nil
}

// TotalTermFrequency counts each term's occurrences across the given pages.
func (r *Repo) TotalTermFrequency(ctx context.Context, dataset string, urls []string) (map[string]int, error) {
	out := make(map[string]int)
	if len(urls) == 0 {
		return out, nil
	}
	c, err := r.load(ctx, dataset, urls)
	if err != nil {
		return nil, err
	}
	for _, doc := range c.docs {
		for _, t := range doc {
			out[t]++
		}
	}
	return out, nil
}

// tfidf sums L2-normalized TF-IDF vectors over docs, using smoothed IDF
// idf(t) = ln((1+n)/(1+df(t))) + 1 so terms in every document still count.
func tfidf(docs [][]string) map[string]float64 {
	n := 0
	df := make(map[string]int)
	for _, doc := range docs {
		if len(doc) == 0 {
			continue
		}
		n++
		seen := make(map[string]struct{}, len(doc))
		for _, t := range doc {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			df[t]++
		}
	}

	weights := make(map[string]float64, len(df))
	for _, doc := range docs {
		if len(doc) == 0 {
			continue
		}
		tf := make(map[string]float64, len(doc))
		order := make([]string, 0, len(doc))
		for _, t := range doc {
			if _, ok := tf[t]; !ok {
				order = append(order, t)
			}
			tf[t]++
		}
		// Accumulate in first-seen order so equal inputs give bit-identical weights.
		var norm float64
		for _, t := range order {
			w := tf[t] * (math.Log(float64(1+n)/float64(1+df[t])) + 1)
			tf[t] = w
			norm += w * w
		}
		norm = math.Sqrt(norm)
		for _, t := range order {
			weights[t] += tf[t] / norm
		}
	}
	return weights
}

// vocabulary picks the limit most frequent terms across docs and returns them sorted.
func vocabulary(docs [][]string, limit int) []string {
	counts := make(map[string]int)
	for _, doc := range docs {
		for _, t := range doc {
			counts[t]++
		}
	}
	terms := make([]string, 0, len(counts))
	for t := range counts {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if limit > 0 && len(terms) > limit {
		terms = terms[:limit]
	}
	sort.Strings(terms)
	return terms
}
