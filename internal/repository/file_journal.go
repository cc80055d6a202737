package repository

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/support-insights/internal/domain"
)

const (
	summaryStart = "--- Summary ---"
	summaryEnd   = "--- End ---"
	metaPrefix   = "# "
	lineEscape   = `\`
)

// FileSummaryJournal appends summaries to a plain text file, one framed block each:
//
//	--- Summary ---
//	# id=... created_at=... issues=... categories=A|B tags=x|y
//	text
//	--- End ---
//
// Text lines that would read as a frame marker are written with a leading
// backslash, as are lines that already start with one.
type FileSummaryJournal struct {
	path string
	mu   sync.Mutex
}

// NewFileSummaryJournal instantiates the journal. The file is created on first append.
func NewFileSummaryJournal(path string) *FileSummaryJournal {
	return &FileSummaryJournal{path: path}
}

func (j *FileSummaryJournal) Append(_ context.Context, s Summary) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open summary journal: %w", err)
	}
	defer f.Close()

	cats := make([]string, 0, len(s.Categories))
	for _, c := range s.Categories {
		cats = append(cats, string(c))
	}
	var b strings.Builder
	b.WriteString("\n" + summaryStart + "\n")
	fmt.Fprintf(&b, "%sid=%s created_at=%s issues=%d categories=%s",
		metaPrefix, s.ID, s.CreatedAt.UTC().Format(time.RFC3339), s.IssueCount, joinMeta(cats))
	if s.Tags != nil {
		tags := make([]string, 0, len(s.Tags))
		for _, t := range s.Tags {
			tags = append(tags, string(t))
		}
		fmt.Fprintf(&b, " tags=%s", joinMeta(tags))
	}
	b.WriteString("\n")
	for _, line := range strings.Split(strings.TrimRight(s.Text, "\n"), "\n") {
		b.WriteString(escapeLine(line) + "\n")
	}
	b.WriteString(summaryEnd + "\n\n")

	if _, err := f.WriteString(b.String()); err != nil {
		return fmt.Errorf("write summary journal: %w", err)
	}
	return nil
}

func (j *FileSummaryJournal) List(_ context.Context, limit int) ([]Summary, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := os.Open(j.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open summary journal: %w", err)
	}
	defer f.Close()

	var (
		all      []Summary
		current  *Summary
		text     []string
		metaSeen bool
	)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == summaryStart:
			current = &Summary{}
			text = text[:0]
			metaSeen = false
		case line == summaryEnd && current != nil:
			current.Text = strings.Join(text, "\n")
			all = append(all, *current)
			current = nil
		case current != nil && !metaSeen && len(text) == 0 && strings.HasPrefix(line, metaPrefix):
			parseMeta(current, strings.TrimPrefix(line, metaPrefix))
			metaSeen = true
		case current != nil:
			text = append(text, strings.TrimPrefix(line, lineEscape))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read summary journal: %w", err)
	}

	out := make([]Summary, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		out = append(out, all[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func escapeLine(line string) string {
	if line == summaryStart || line == summaryEnd || strings.HasPrefix(line, lineEscape) {
		return lineEscape + line
	}
	return line
}

func joinMeta(vals []string) string {
	return strings.ReplaceAll(strings.Join(vals, "|"), " ", "_")
}

func splitMeta(val string) []string {
	out := []string{}
	for _, v := range strings.Split(val, "|") {
		if v != "" {
			out = append(out, strings.ReplaceAll(v, "_", " "))
		}
	}
	return out
}

func parseMeta(s *Summary, meta string) {
	for _, field := range strings.Fields(meta) {
		key, val, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		switch key {
		case "id":
			s.ID = val
		case "created_at":
			if ts, err := time.Parse(time.RFC3339, val); err == nil {
				s.CreatedAt = ts
			}
		case "issues":
			if n, err := strconv.Atoi(val); err == nil {
				s.IssueCount = n
			}
		case "categories":
			for _, c := range splitMeta(val) {
				s.Categories = append(s.Categories, domain.Category(c))
			}
		case "tags":
			s.Tags = []domain.Tag{}
			for _, t := range splitMeta(val) {
				s.Tags = append(s.Tags, domain.Tag(t))
			}
		}
	}
}
