package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ssism/dhammi/internal/cttm"
)

// Keys with a fixed meaning in the fact file.
const (
	KeyDailyHeadlines = "FACT_DAILY_HEADLINES"
)

// EssentialFacts is written to a fact file that is missing or corrupted.
var EssentialFacts = map[string]string{
	"FACT_UN_REP":   "U Kyaw Moe Tun is the internationally recognized Permanent Representative of Myanmar to the UN.",
	"FACT_GOVT_REP": "The UN still recognizes the representative appointed by the Aung San Suu Kyi-led government (NLD) for the permanent seat, not the military's nominee.",
	"FACT_MILITARY": "The military representative is NOT recognized by the UN General Assembly for the permanent seat.",
	"FACT_CONFLICT": "The core conflict in Myanmar is between the people's mandate for democracy and federalism, and the military's push for authoritarianism and dependence on China/Russia.",
}

// fileEntry is one value in the fact file. Bare strings are essential
// facts; submitted facts are stored as objects so their metadata survives.
type fileEntry struct {
	Text       string  `json:"text"`
	Category   string  `json:"category,omitempty"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source,omitempty"`
	Timestamp  string  `json:"timestamp,omitempty"`
	plain      bool
}

func (e *fileEntry) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*e = fileEntry{Text: s, plain: true}
		return nil
	}
	type raw fileEntry
	var r raw
	if err := json.Unmarshal(b, &r); err != nil {
		return err
	}
	*e = fileEntry(r)
	return nil
}

func (e fileEntry) MarshalJSON() ([]byte, error) {
	if e.plain {
		return json.Marshal(e.Text)
	}
	type raw fileEntry
	return json.Marshal(raw(e))
}

// FactFile is a local JSON object of fact key to fact. It is the fallback
// ledger when no spreadsheet is configured.
type FactFile struct {
	path string
	log  *zap.Logger

	mu sync.Mutex
}

// NewFactFile returns a fact file backend at path.
func NewFactFile(path string, log *zap.Logger) *FactFile {
	if log == nil {
		log = zap.NewNop()
	}
	return &FactFile{path: path, log: log}
}

// Path returns the file location.
func (f *FactFile) Path() string { return f.path }

func (f *FactFile) load() (map[string]fileEntry, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return f.bootstrap()
	}
	if err != nil {
		return nil, fmt.Errorf("read fact file: %w", err)
	}

	var entries map[string]fileEntry
	if err := json.Unmarshal(data, &entries); err != nil || entries == nil {
		f.log.Warn("fact file corrupted, resetting to essential facts",
			zap.String("path", f.path), zap.Error(err))
		return f.bootstrap()
	}
	return entries, nil
}

func (f *FactFile) bootstrap() (map[string]fileEntry, error) {
	entries := make(map[string]fileEntry, len(EssentialFacts))
	for k, v := range EssentialFacts {
		entries[k] = fileEntry{Text: v, plain: true}
	}
	if err := f.save(entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (f *FactFile) save(entries map[string]fileEntry) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("encode fact file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("create fact file dir: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write fact file: %w", err)
	}
	return os.Rename(tmp, f.path)
}

// ReadRows implements cttm.Reader. Plain entries read as essential facts
// with full confidence, keyed sources and no timestamp.
func (f *FactFile) ReadRows(_ context.Context, _ cttm.Table) ([][]string, error) {
	f.mu.Lock()
	entries, err := f.load()
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := [][]string{append([]string(nil), cttm.Columns...)}
	for _, k := range keys {
		e := entries[k]
		if e.plain {
			rows = append(rows, []string{"", cttm.CategoryEssentialFact, "1", e.Text, "cttm:" + k})
			continue
		}
		src := e.Source
		if src == "" {
			src = "cttm:" + k
		}
		conf := fmt.Sprintf("%g", e.Confidence)
		rows = append(rows, []string{e.Timestamp, e.Category, conf, e.Text, src})
	}
	return rows, nil
}

// AppendRow implements cttm.Writer. The row is stored under a new
// FACT_SUBMITTED_<n> key.
func (f *FactFile) AppendRow(_ context.Context, _ cttm.Table, row []string) error {
	facts, _, err := cttm.ParseRows([][]string{cttm.Columns, row})
	if err != nil {
		return err
	}
	if len(facts) == 0 {
		return cttm.ErrEmptyText
	}
	rec := facts[0]

	f.mu.Lock()
	defer f.mu.Unlock()
	entries, err := f.load()
	if err != nil {
		return err
	}

	var key string
	for n := len(entries) + 1; ; n++ {
		key = fmt.Sprintf("FACT_SUBMITTED_%03d", n)
		if _, taken := entries[key]; !taken {
			break
		}
	}

	var ts string
	if len(row) > 0 {
		ts = strings.TrimSpace(row[0])
	}
	entries[key] = recordEntry(rec, ts)
	return f.save(entries)
}

// SetFact stores rec under key with its metadata, replacing whatever was
// there. Repeated calls for the same key keep a single entry.
func (f *FactFile) SetFact(key string, rec cttm.FactRecord) error {
	rec, err := rec.Normalize(time.Now())
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	entries, err := f.load()
	if err != nil {
		return err
	}
	entries[key] = recordEntry(rec, rec.Timestamp.Format(time.RFC3339Nano))
	return f.save(entries)
}

func recordEntry(rec cttm.FactRecord, ts string) fileEntry {
	return fileEntry{
		Text:       rec.Text,
		Category:   rec.Category,
		Confidence: rec.Confidence,
		Source:     rec.Source,
		Timestamp:  ts,
	}
}
