// Package report fetches and renders the server-side daily report. The
// document is treated as opaque: counts and buckets come from the backend
// as-is and are never rederived client-side.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/opsdeck/opsdeck/internal/backend"
)

// Placeholder is shown when the report cannot be fetched.
const Placeholder = "Daily report is not available right now."

// Fetcher retrieves the daily report document.
type Fetcher interface {
	DailyReport(ctx context.Context) (*backend.DailyReport, error)
}

// Service wraps report fetching with placeholder degradation.
type Service struct {
	fetcher Fetcher
}

func NewService(fetcher Fetcher) *Service {
	return &Service{fetcher: fetcher}
}

// Render fetches the report and formats it for the console. A failed
// fetch degrades to the placeholder text.
func (s *Service) Render(ctx context.Context) string {
	doc, err := s.fetcher.DailyReport(ctx)
	if err != nil {
		slog.Warn("Daily report fetch failed", "error", err)
		return Placeholder
	}
	return Format(doc)
}

// Format renders one report document as plain text.
func Format(doc *backend.DailyReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Daily report for %s", doc.Date)
	if doc.UserName != "" {
		fmt.Fprintf(&b, " — %s", doc.UserName)
	}
	b.WriteString("\n")

	writeBucket(&b, "Assigned today", doc.AssignedToday)
	writeBucket(&b, "Resolved today", doc.ResolvedToday)
	fmt.Fprintf(&b, "Chatbot actions: %d\n", doc.ChatbotActions)

	return b.String()
}

func writeBucket(b *strings.Builder, label string, bucket backend.ReportBucket) {
	fmt.Fprintf(b, "%s: %d\n", label, bucket.Count)
	for _, t := range bucket.Tickets {
		fmt.Fprintf(b, "  %s", t.Key)
		if t.Summary != "" {
			fmt.Fprintf(b, " — %s", t.Summary)
		}
		b.WriteString("\n")
	}
}
