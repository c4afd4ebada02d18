// Package engine holds the three interchangeable conversion strategies.
// All engines share one contract: convert a PDF into an EPUB given the
// document analysis and book metadata, and report every failure as data —
// nothing below the orchestrator raises across a component boundary.
package engine

import (
	"context"
	"fmt"
	"html"
	"strings"

	"pdf-epub-converter/internal/domain"
)

// Registry selects an engine by strategy and guards the call so a panic in
// an engine surfaces as a failed ConversionResult instead of killing the
// worker.
type Registry struct {
	engines map[domain.Strategy]domain.Engine
	logger  domain.Logger
}

// NewRegistry creates the engine dispatch table
func NewRegistry(fast, balanced, quality domain.Engine, logger domain.Logger) *Registry {
	return &Registry{
		engines: map[domain.Strategy]domain.Engine{
			domain.StrategyFast:     fast,
			domain.StrategyBalanced: balanced,
			domain.StrategyQuality:  quality,
		},
		logger: logger,
	}
}

// Convert dispatches to the engine for the given strategy.
func (r *Registry) Convert(ctx context.Context, strategy domain.Strategy, inputPath, outputPath string, analysis *domain.DocumentAnalysis, meta domain.Metadata) (result domain.ConversionResult) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Engine panicked", fmt.Errorf("%v", rec), "strategy", strategy)
			result = domain.FailedConversion(fmt.Sprintf("Unexpected error during conversion: %v", rec))
			result.EngineUsed = strategy
		}
	}()

	eng, ok := r.engines[strategy]
	if !ok {
		return domain.FailedConversion("Unknown conversion strategy: " + string(strategy))
	}
	result = eng.Convert(ctx, inputPath, outputPath, analysis, meta)
	result.EngineUsed = strategy
	result.Analysis = analysis
	return result
}

// textDiv renders extracted page text as a single block, preserving
// paragraph breaks.
func textDiv(text string) string {
	return "<div>" + escapeParagraphs(text) + "</div>"
}

// paragraphsHTML splits text on blank lines and renders one <p> per
// paragraph.
func paragraphsHTML(text string) string {
	var b strings.Builder
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(html.EscapeString(para))
		b.WriteString("</p>\n")
	}
	return b.String()
}

func escapeParagraphs(text string) string {
	escaped := html.EscapeString(strings.TrimSpace(text))
	return strings.ReplaceAll(escaped, "\n\n", "<br/><br/>")
}

// imageContainer renders the figure wrapper for an embedded image.
func imageContainer(href string) string {
	return "<div class=\"image-container\"><img src=\"" + href + "\" alt=\"Image\"/></div>\n"
}

func pageTitle(page int) string {
	return fmt.Sprintf("Page %d", page)
}

func imageName(page, index int, ext string) string {
	return fmt.Sprintf("image_p%d_%d.%s", page, index, ext)
}
