// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jonathan/talent-pool/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintBatch outputs the state and tallies of a screening batch, followed
// by the failed candidates and their reasons.
func (p *Printer) PrintBatch(b *types.Batch) {
	if b == nil {
		return
	}

	s := b.Summary()
	var sb strings.Builder
	fmt.Fprintf(&sb, "Batch:    %s\n", b.ID)
	fmt.Fprintf(&sb, "State:    %s\n", b.State)
	if b.FinishedAt != nil {
		fmt.Fprintf(&sb, "Took:     %s\n", b.FinishedAt.Sub(b.CreatedAt).Round(time.Millisecond))
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Screened: %d of %d\n", s.Succeeded, s.Total)
	if s.Failed > 0 {
		fmt.Fprintf(&sb, "Failed:   %d\n", s.Failed)
	}
	if s.Pending > 0 {
		fmt.Fprintf(&sb, "Skipped:  %d\n", s.Pending)
	}
	if s.AlreadyScreened > 0 {
		fmt.Fprintf(&sb, "Already screened: %d\n", s.AlreadyScreened)
	}

	var failed []string
	for id, o := range b.Outcomes {
		if o.Kind == types.OutcomeFailure {
			failed = append(failed, id)
		}
	}
	sort.Strings(failed)
	if len(failed) > 0 {
		sb.WriteString("\nFailures:\n")
		count := min(len(failed), maxItemsToShow)
		for _, id := range failed[:count] {
			fmt.Fprintf(&sb, "  • %s: %s\n", id, b.Outcomes[id].Reason)
		}
		if len(failed) > maxItemsToShow {
			fmt.Fprintf(&sb, "  ... and %d more\n", len(failed)-maxItemsToShow)
		}
	}

	p.printBox("SCREENING BATCH", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintShortlist outputs the shortlisted candidates, best score first.
func (p *Printer) PrintShortlist(cands []types.Candidate) {
	var shortlisted []types.Candidate
	for _, c := range cands {
		if c.ScreeningStatus == types.StatusShortlisted {
			shortlisted = append(shortlisted, c)
		}
	}
	if len(shortlisted) == 0 {
		return
	}
	sort.SliceStable(shortlisted, func(i, j int) bool {
		return score(shortlisted[i]) > score(shortlisted[j])
	})

	var sb strings.Builder
	fmt.Fprintf(&sb, "Shortlisted: %d\n\n", len(shortlisted))

	count := min(len(shortlisted), maxItemsToShow)
	for i, c := range shortlisted[:count] {
		fmt.Fprintf(&sb, "#%d  %s (%s)\n", i+1, c.Name, c.ID)
		fmt.Fprintf(&sb, "    Score: %.2f\n", score(c))
		if len(c.Skills) > 0 {
			fmt.Fprintf(&sb, "    Skills: %s\n", truncate(strings.Join(c.Skills, ", "), 40))
		}
		if i < count-1 {
			sb.WriteString("\n")
		}
	}
	if len(shortlisted) > maxItemsToShow {
		fmt.Fprintf(&sb, "\n... and %d more", len(shortlisted)-maxItemsToShow)
	}

	p.printBox("SHORTLIST", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintFolders outputs each folder with its member count.
func (p *Printer) PrintFolders(folders []types.Folder) {
	if len(folders) == 0 {
		return
	}

	var sb strings.Builder
	for _, f := range folders {
		marker := ""
		if f.IsDefault {
			marker = " (default)"
		}
		fmt.Fprintf(&sb, "%-30s %5d%s\n", truncate(f.Name, 30), f.Count, marker)
	}
	p.printBox("FOLDERS", strings.TrimSuffix(sb.String(), "\n"))
}

func score(c types.Candidate) float64 {
	if c.ScreeningScore == nil {
		return 0
	}
	return *c.ScreeningScore
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
