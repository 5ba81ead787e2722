package app

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"gonarrative/domain/core"
	"gonarrative/domain/narrative"
	"gonarrative/internal/engine"
	"gonarrative/internal/errors"
)

// ReportFormat selects the report encoding
type ReportFormat string

const (
	FormatMarkdown ReportFormat = "markdown"
	FormatHTML     ReportFormat = "html"
)

// SectionReport is one section's narrative inside a report
type SectionReport struct {
	Section narrative.MetricConfig `json:"section"`
	Result  engine.Result          `json:"result"`
}

// Report is the outcome of narrating several sections under the same filters
type Report struct {
	ID          core.ReportID         `json:"id"`
	Title       string                `json:"title"`
	Filters     narrative.FilterState `json:"filters"`
	GeneratedAt time.Time             `json:"generated_at"`
	Sections    []SectionReport       `json:"sections"`
}

// ReportService narrates many sections concurrently
type ReportService struct {
	narratives  *NarrativeService
	concurrency int
	logger      *zap.Logger
}

// NewReportService creates a report service; concurrency below one means one
func NewReportService(narratives *NarrativeService, concurrency int, logger *zap.Logger) *ReportService {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{narratives: narratives, concurrency: concurrency, logger: logger}
}

// Build narrates the given sections (all when empty) in declaration order.
// The first failing section cancels the rest.
func (s *ReportService) Build(ctx context.Context, title string, sectionIDs []string, filters narrative.FilterState) (*Report, error) {
	sections := s.narratives.Sections()
	if len(sectionIDs) > 0 {
		sections = sections[:0:0]
		for _, id := range sectionIDs {
			sec, err := s.narratives.Section(id)
			if err != nil {
				return nil, err
			}
			sections = append(sections, sec)
		}
	}
	if len(sections) == 0 {
		return nil, errors.InvalidInput("report has no sections")
	}

	out := make([]SectionReport, len(sections))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, sec := range sections {
		g.Go(func() error {
			res, err := s.narratives.Narrate(gctx, sec.ID, filters)
			if err != nil {
				return errors.Wrapf(err, "section %s", sec.ID)
			}
			out[i] = SectionReport{Section: sec, Result: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Info("report built",
		zap.String("title", title),
		zap.Int("sections", len(out)),
	)
	return &Report{
		ID:          core.NewReportID(),
		Title:       title,
		Filters:     filters.Active(),
		GeneratedAt: time.Now().UTC(),
		Sections:    out,
	}, nil
}

// Markdown renders the report. Sections with no fragments say so rather
// than being dropped, so readers can see data was insufficient.
func (r *Report) Markdown() string {
	var b strings.Builder
	title := r.Title
	if title == "" {
		title = "Narrative report"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	if keys := r.Filters.Keys(); len(keys) > 0 {
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s: %s", k, r.Filters[k]))
		}
		fmt.Fprintf(&b, "_Filtered to %s._\n\n", strings.Join(parts, ", "))
	}

	for _, sec := range r.Sections {
		fmt.Fprintf(&b, "## %s\n\n", sectionHeading(sec.Section))
		frags := sec.Result.Fragments()
		if len(frags) == 0 {
			b.WriteString("Not enough data to describe this section.\n\n")
		}
		for _, ft := range narrative.FragmentTypes {
			text, ok := frags[ft]
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "**%s.** %s\n\n", fragmentLabel(ft), text)
		}
		if len(sec.Result.Sources) > 0 {
			fmt.Fprintf(&b, "Sources: %s\n\n", strings.Join(sec.Result.Sources, "; "))
		}
	}
	return b.String()
}

// HTML renders the markdown report to HTML
func (r *Report) HTML() []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML([]byte(r.Markdown()), p, renderer)
}

// Render encodes the report in the requested format
func (r *Report) Render(format ReportFormat) ([]byte, error) {
	switch format {
	case FormatMarkdown, "md", "":
		return []byte(r.Markdown()), nil
	case FormatHTML:
		var buf bytes.Buffer
		buf.WriteString("<!doctype html>\n<meta charset=\"utf-8\">\n")
		buf.Write(r.HTML())
		return buf.Bytes(), nil
	default:
		return nil, errors.InvalidInput("unsupported report format " + string(format))
	}
}

func sectionHeading(sec narrative.MetricConfig) string {
	label := sec.Label()
	if label == "" {
		return sec.ID
	}
	return strings.ToUpper(label[:1]) + label[1:]
}

func fragmentLabel(ft narrative.FragmentType) string {
	switch ft {
	case narrative.FragmentSummary:
		return "Summary"
	case narrative.FragmentKeyFinding:
		return "Key finding"
	case narrative.FragmentRecommendation:
		return "Recommendation"
	case narrative.FragmentInvestment:
		return "Investment"
	}
	return string(ft)
}
