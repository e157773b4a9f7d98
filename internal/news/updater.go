// Package news pulls headlines from trusted outlets into the ledger as a
// single low-confidence digest fact.
package news

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ssism/dhammi/internal/cttm"
)

// Source is one outlet to pull headlines from.
type Source struct {
	Name string
	URL  string
}

// DefaultSources are the trusted outlets.
var DefaultSources = []Source{
	{Name: "Irrawaddy", URL: "https://www.irrawaddy.com/news"},
	{Name: "MyanmarNow", URL: "https://www.myanmar-now.org/news"},
	{Name: "DVB", URL: "https://english.dvb.no/category/news"},
	{Name: "BBC_Burmese", URL: "https://www.bbc.com/burmese"},
}

const (
	headlinesPerSource = 3
	digestConfidence   = 0.5
	digestSource       = "headline feed"

	// dailyHeadlinesKey is the fact file key the digest is stored under.
	dailyHeadlinesKey = "FACT_DAILY_HEADLINES"
)

// ErrNoHeadlines is returned when no source yielded a headline.
var ErrNoHeadlines = errors.New("no headlines fetched")

// Appender writes a fact to the ledger.
type Appender interface {
	Append(ctx context.Context, rec cttm.FactRecord) (cttm.FactRecord, error)
}

// FactSetter replaces a keyed fact in the local fact file.
type FactSetter interface {
	SetFact(key string, rec cttm.FactRecord) error
}

type invalidator interface {
	Invalidate(ctx context.Context)
}

// Result is what one source produced.
type Result struct {
	Source    Source
	Headlines []string
	Err       error
}

// Digest is the outcome of one run.
type Digest struct {
	At      time.Time
	Results []Result
	Fact    *cttm.FactRecord // nil when nothing was recorded
}

// Summary renders the run as a report: one line per source followed by
// its headlines.
func (d Digest) Summary() string {
	stamp := d.At.Format("2006-01-02 15:04")
	var lines []string
	for _, r := range d.Results {
		if r.Err != nil {
			lines = append(lines, fmt.Sprintf("Source: %s - Connection Error: %v", r.Source.Name, r.Err))
			continue
		}
		lines = append(lines, fmt.Sprintf("Source: %s (Accessed: %s)", r.Source.Name, stamp))
		for _, h := range r.Headlines {
			lines = append(lines, "- "+h)
		}
	}
	return strings.Join(lines, "\n")
}

// factText renders the headlines on one line for the ledger.
func (d Digest) factText() string {
	var parts []string
	for _, r := range d.Results {
		if r.Err == nil && len(r.Headlines) > 0 {
			parts = append(parts, r.Source.Name+": "+strings.Join(r.Headlines, "; "))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "Headlines on " + d.At.Format("2006-01-02") + ". " + strings.Join(parts, ". ")
}

// Updater fetches every source concurrently and writes the digest.
type Updater struct {
	Sources []Source
	Client  *http.Client
	Timeout time.Duration // per source
	Facts   Appender
	File    FactSetter // optional

	Log *zap.Logger
	Now func() time.Time
}

// NewUpdater returns an updater over DefaultSources.
func NewUpdater(facts Appender, file FactSetter, timeout time.Duration, log *zap.Logger) *Updater {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Updater{
		Sources: DefaultSources,
		Client:  &http.Client{},
		Timeout: timeout,
		Facts:   facts,
		File:    file,
		Log:     log,
		Now:     time.Now,
	}
}

// Run fetches all sources and records what it found. Individual source
// failures are reported in the digest, not as errors.
func (u *Updater) Run(ctx context.Context) (*Digest, error) {
	d := &Digest{At: u.Now(), Results: make([]Result, len(u.Sources))}

	var g errgroup.Group
	for i, src := range u.Sources {
		g.Go(func() error {
			heads, err := u.fetch(ctx, src)
			d.Results[i] = Result{Source: src, Headlines: heads, Err: err}
			if err != nil {
				u.Log.Warn("headline source failed", zap.String("source", src.Name), zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()

	text := d.factText()
	if text == "" {
		return d, ErrNoHeadlines
	}
	rec := cttm.FactRecord{
		Timestamp:  d.At,
		Category:   cttm.CategoryNewsDigest,
		Confidence: digestConfidence,
		Text:       text,
		Source:     digestSource,
	}

	switch {
	case u.File != nil:
		// The fact file keeps one rolling digest under a fixed key.
		if err := u.File.SetFact(dailyHeadlinesKey, rec); err != nil {
			return d, fmt.Errorf("store digest: %w", err)
		}
		if inv, ok := u.Facts.(invalidator); ok {
			inv.Invalidate(ctx)
		}
	case u.Facts != nil:
		var err error
		if rec, err = u.Facts.Append(ctx, rec); err != nil {
			return d, fmt.Errorf("append digest: %w", err)
		}
	default:
		return d, nil
	}
	d.Fact = &rec
	u.Log.Info("headline digest recorded", zap.Int("chars", len(text)))
	return d, nil
}

func (u *Updater) fetch(ctx context.Context, src Source) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, u.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", src.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "dhammi-headlines/1.0")

	resp, err := u.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return ExtractHeadlines(resp.Body, headlinesPerSource)
}
