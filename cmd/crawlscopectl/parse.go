package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	crawlscope "github.com/kailas-cloud/crawlscope/pkg/sdk"
)

// maxLineBytes bounds a single JSONL line; page bodies can be large.
const maxLineBytes = 16 << 20

// timestamp accepts RFC 3339 strings and epoch seconds (integer or fractional).
type timestamp struct {
	time.Time
}

func (t *timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			return nil
		}
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("timestamp %q: %w", s, err)
		}
		t.Time = parsed.UTC()
		return nil
	}
	secs, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("timestamp %s: %w", b, err)
	}
	whole := int64(secs)
	t.Time = time.Unix(whole, int64((secs-float64(whole))*1e9)).UTC()
	return nil
}

type registryFile struct {
	Entries []registryEntry `json:"entries"`
}

type registryEntry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Timestamp timestamp `json:"timestamp"`
}

// parseRegistry reads a registry file. A zero Timestamp is left for the
// client to stamp with now.
func parseRegistry(r io.Reader) ([]registryEntry, error) {
	var f registryFile
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode registry: %w", err)
	}
	if len(f.Entries) == 0 {
		return nil, errors.New("registry has no entries")
	}

	seen := make(map[string]bool, len(f.Entries))
	for i, e := range f.Entries {
		if e.ID == "" {
			return nil, fmt.Errorf("entry %d: id is required", i)
		}
		if seen[e.ID] {
			return nil, fmt.Errorf("entry %d: duplicate dataset id %q", i, e.ID)
		}
		seen[e.ID] = true
	}
	return f.Entries, nil
}

type pageLine struct {
	URL       string    `json:"url"`
	Text      string    `json:"text"`
	Retrieved timestamp `json:"retrieved"`
	Phase     string    `json:"phase"`
	Tags      []string  `json:"tags"`
}

// parsePages reads one page per line. Blank lines are skipped. Field
// validation beyond the URL happens in the client.
func parsePages(r io.Reader) ([]crawlscope.PageInput, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var out []crawlscope.PageInput
	seen := make(map[string]int)
	for n := 1; sc.Scan(); n++ {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var p pageLine
		if err := json.Unmarshal(line, &p); err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		url := strings.TrimSpace(p.URL)
		if url == "" {
			return nil, fmt.Errorf("line %d: url is required", n)
		}
		if prev, ok := seen[url]; ok {
			return nil, fmt.Errorf("line %d: url %q already on line %d", n, url, prev)
		}
		seen[url] = n
		out = append(out, crawlscope.PageInput{
			URL:         url,
			Text:        p.Text,
			RetrievedAt: p.Retrieved.Time,
			Phase:       crawlscope.Phase(p.Phase),
			Tags:        p.Tags,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read pages: %w", err)
	}
	return out, nil
}
