// Package adr renders completed interviews as architecture decision records.
//
// Each interview result becomes one numbered markdown file in the output
// directory, in the conventional NNNN-title.md layout. Numbering continues
// from whatever records already exist in the directory.
package adr

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/nia-vf/pocket-stakeholder/internal/models"
)

// DefaultDirPermissions defines the permissions for created output directories.
const DefaultDirPermissions = 0755

// adrFilePattern matches existing record filenames so the counter can resume.
var adrFilePattern = regexp.MustCompile(`^(\d{4})-.*\.md$`)

// Counter hands out sequential record numbers. Not safe for concurrent use;
// the pipeline writes records one at a time.
type Counter struct {
	next int
}

// NewCounter creates a counter that starts at the given number.
func NewCounter(start int) *Counter {
	if start < 1 {
		start = 1
	}
	return &Counter{next: start}
}

// Next returns the current number and advances the counter.
func (c *Counter) Next() int {
	n := c.next
	c.next++
	return n
}

// Writer renders interview results into an output directory.
type Writer struct {
	dir     string
	counter *Counter
}

// NewWriter creates a Writer for the given directory, creating it if missing
// and seeding the record counter from any existing records.
func NewWriter(dir string) (*Writer, error) {
	if dir == "" {
		return nil, fmt.Errorf("output directory not set")
	}
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	start, err := highestRecordNumber(dir)
	if err != nil {
		return nil, err
	}
	slog.Debug("ADR.NewWriter: writer created", "dir", dir, "next_number", start+1)
	return &Writer{dir: dir, counter: NewCounter(start + 1)}, nil
}

// Write renders one interview result as a decision record and returns the
// path of the file it created.
func (w *Writer) Write(res models.InterviewResult) (string, error) {
	title := fmt.Sprintf("%s interview", res.Role)
	number := w.counter.Next()
	filename := fmt.Sprintf("%04d-%s.md", number, slugify(title))
	path := filepath.Join(w.dir, filename)

	content := render(number, title, res)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		slog.Error("ADR.Write: write failed", "error", err, "path", path)
		return "", fmt.Errorf("failed to write decision record %s: %w", path, err)
	}
	slog.Info("ADR.Write: decision record written", "path", path, "role", res.Role, "exchanges", len(res.Exchanges))
	return path, nil
}

// render produces the markdown body of a decision record.
func render(number int, title string, res models.InterviewResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %d. %s\n\n", number, title)

	date := time.Now()
	if res.CompletedAt != nil {
		date = *res.CompletedAt
	}
	fmt.Fprintf(&b, "Date: %s\n\n", date.Format("2006-01-02"))
	fmt.Fprintf(&b, "## Status\n\n%s\n\n", statusFor(res.State))

	fmt.Fprintf(&b, "## Context\n\nStructured interview with the %s stakeholder", res.Role)
	if res.StartedAt != nil {
		fmt.Fprintf(&b, ", started %s", res.StartedAt.Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(&b, ". %d questions were answered.\n\n", len(res.Exchanges))

	b.WriteString("## Decision\n\n")
	if len(res.Exchanges) == 0 {
		b.WriteString("No answers were recorded.\n")
	}
	for _, ex := range res.Exchanges {
		fmt.Fprintf(&b, "### %s\n\n", ex.Question)
		answer := strings.TrimSpace(ex.Answer)
		if answer == "" {
			answer = "_Skipped._"
		}
		fmt.Fprintf(&b, "%s\n\n", answer)
		if ex.FollowUpTriggered {
			b.WriteString("_This answer triggered follow-up questions._\n\n")
		}
	}

	b.WriteString("## Consequences\n\nThe answers above constrain the design going forward; revisit this record when the underlying requirements change.\n")
	return b.String()
}

func statusFor(state models.SessionState) string {
	switch state {
	case models.StateCompleted:
		return "Accepted"
	case models.StateCancelled:
		return "Superseded by a future interview (session cancelled)"
	default:
		return "Proposed"
	}
}

// highestRecordNumber scans the directory for existing NNNN-*.md files and
// returns the largest number found, or 0 when the directory is empty.
func highestRecordNumber(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read output directory %s: %w", dir, err)
	}
	highest := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := adrFilePattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return highest, nil
}

// slugify lowercases the title and collapses anything non-alphanumeric into
// single hyphens.
func slugify(title string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
