package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"

	"github.com/cnosuke/judolhunter/extractor"
	"github.com/cnosuke/judolhunter/types"
)

const (
	maxKeywordLines = 10
	maxLinkLines    = 10
	maxAnchorLines  = 15
	tableURLWidth   = 50
)

var (
	bold  = color.New(color.Bold)
	faint = color.New(color.Faint)
	red   = color.New(color.FgRed)
	green = color.New(color.FgGreen)
	cyan  = color.New(color.FgCyan)
	amber = color.New(color.FgYellow)
)

func printBanner(w io.Writer) {
	fig := figure.NewFigure("JUDOL HUNTER", "doom", true)
	_, _ = red.Fprint(w, fig.String())

	_, _ = cyan.Fprintln(w, "════════════════════════════════════════════════")
	_, _ = green.Fprintln(w, "    Googlebot cloaking and gambling injection scanner")
	_, _ = cyan.Fprintln(w, "════════════════════════════════════════════════")
}

func printHeader(w io.Writer, total int, crawl bool) {
	mode := ""
	if crawl {
		mode = " (crawl mode)"
	}
	_, _ = bold.Fprintf(w, "Total URLs: %d%s\n", total, mode)
}

func statusColor(s types.Status) *color.Color {
	switch s {
	case types.StatusClean:
		return green
	case types.StatusSuspicious:
		return amber
	case types.StatusInfected:
		return red
	default:
		return faint
	}
}

func riskColor(r types.RiskLevel) *color.Color {
	switch r {
	case types.RiskLow:
		return green
	case types.RiskMedium:
		return amber
	case types.RiskHigh:
		return red
	case types.RiskCritical:
		return color.New(color.FgRed, color.Bold)
	default:
		return faint
	}
}

// printResult writes the findings of one scan.
func printResult(w io.Writer, r *types.ScanResult) {
	fmt.Fprintln(w)
	_, _ = bold.Fprintln(w, r.URL)
	fmt.Fprintf(w, "  Status: %s  |  Risk: %s\n",
		statusColor(r.Status).Sprint(strings.ToUpper(string(r.Status))),
		riskColor(r.RiskLevel).Sprint(strings.ToUpper(string(r.RiskLevel))))

	f := r.Findings

	if c := f.Cloaking; c != nil {
		if c.IsCloaking {
			_, _ = red.Fprintln(w, "  ⚠ CLOAKING DETECTED")
			for _, d := range c.Details {
				fmt.Fprintf(w, "    - %s\n", d)
			}
		} else {
			fmt.Fprintf(w, "  %s No cloaking (similarity: %.3f)\n", green.Sprint("✓"), c.Similarity)
		}
	}

	if n := len(f.GamblingKeywords); n > 0 {
		_, _ = red.Fprintf(w, "  ⚠ %d gambling keywords found:\n", n)
		for _, kw := range f.GamblingKeywords[:min(n, maxKeywordLines)] {
			fmt.Fprintf(w, "    - %q (%dx)\n", kw.Keyword, kw.Count)
		}
	} else if r.Status != types.StatusError {
		fmt.Fprintf(w, "  %s No gambling keywords\n", green.Sprint("✓"))
	}

	if len(f.SuspiciousLinks) > 0 {
		printLinks(w, f.SuspiciousLinks)
	}

	if n := len(f.HiddenElements); n > 0 {
		_, _ = amber.Fprintf(w, "  ⚠ %d hidden elements carrying spam\n", n)
	}

	if n := len(f.MetaInjection); n > 0 {
		_, _ = amber.Fprintf(w, "  ⚠ %d injected meta tags\n", n)
		for _, m := range f.MetaInjection {
			fmt.Fprintf(w, "    - <%s>: %s\n", m.Meta, clip(m.Content, 80))
		}
	}

	for _, fe := range []struct {
		label string
		err   string
	}{
		{"googlebot", r.FetchInfo.Googlebot.Error},
		{"browser", r.FetchInfo.Browser.Error},
	} {
		if fe.err != "" {
			_, _ = faint.Fprintf(w, "  ⚠ %s error: %s\n", fe.label, fe.err)
		}
	}
}

// printLinks separates references with a real URL from domains named only in
// anchor text.
func printLinks(w io.Writer, links []types.LinkFinding) {
	var direct, anchors []types.LinkFinding
	for _, l := range links {
		if l.Source == extractor.SourceAnchorText {
			anchors = append(anchors, l)
		} else {
			direct = append(direct, l)
		}
	}

	_, _ = red.Fprintf(w, "  ⚠ %d gambling links/domains found:\n", len(links))

	if len(direct) > 0 {
		_, _ = bold.Fprintf(w, "    Suspicious external URLs (%d):\n", len(direct))
		for _, l := range direct[:min(len(direct), maxLinkLines)] {
			via := ""
			if l.Source != "" {
				via = " " + faint.Sprint("via "+l.Source)
			}
			fmt.Fprintf(w, "      - %s%s\n", bold.Sprint(l.URL), via)
			fmt.Fprintf(w, "        %s\n", l.Reason)
		}
		if len(direct) > maxLinkLines {
			_, _ = faint.Fprintf(w, "      ... and %d more\n", len(direct)-maxLinkLines)
		}
	}

	if len(anchors) > 0 {
		_, _ = bold.Fprintf(w, "    Gambling domains in anchor text (%d):\n", len(anchors))
		for _, l := range anchors[:min(len(anchors), maxAnchorLines)] {
			fmt.Fprintf(w, "      - %s\n", bold.Sprint(l.Domain))
		}
		if len(anchors) > maxAnchorLines {
			_, _ = faint.Fprintf(w, "      ... and %d more\n", len(anchors)-maxAnchorLines)
		}
	}
}

// printSummary writes one row per scanned URL.
func printSummary(w io.Writer, results []*types.ScanResult) {
	width := len("URL")
	for _, r := range results {
		width = max(width, len([]rune(clip(r.URL, tableURLWidth))))
	}

	fmt.Fprintln(w)
	_, _ = bold.Fprintln(w, "Scan summary")
	fmt.Fprintf(w, "%s  %-10s  %-8s  %s\n", pad("URL", width), "STATUS", "RISK", "ISSUES")
	for _, r := range results {
		issues := strings.Join(r.Issues, ", ")
		if issues == "" {
			issues = "-"
		}
		// Pad before coloring so escape codes do not skew the columns.
		fmt.Fprintf(w, "%s  %s  %s  %s\n",
			cyan.Sprint(pad(clip(r.URL, tableURLWidth), width)),
			statusColor(r.Status).Sprint(fmt.Sprintf("%-10s", strings.ToUpper(string(r.Status)))),
			riskColor(r.RiskLevel).Sprint(fmt.Sprintf("%-8s", strings.ToUpper(string(r.RiskLevel)))),
			issues)
	}
}

func printSaved(w io.Writer, path string) {
	_, _ = green.Fprintf(w, "\nResults saved to %s\n", path)
}

func printDiscovery(w io.Writer, res *types.DiscoveryResult) {
	_, _ = bold.Fprintln(w, res.BaseURL)
	if len(res.Candidates) == 0 {
		_, _ = faint.Fprintln(w, "  no internal pages found")
		return
	}
	fmt.Fprintf(w, "  %d candidates, %d linked only for Googlebot\n", len(res.Candidates), res.InjectedCount())
	for _, c := range res.Candidates {
		if c.InjectedOnly {
			fmt.Fprintf(w, "  %s %s\n", red.Sprint("!"), c.URL)
		} else {
			fmt.Fprintf(w, "    %s\n", c.URL)
		}
	}
}

func writeDiscoveryJSON(w io.Writer, res *types.DiscoveryResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(res)
}

func formatProgress(e types.ProgressEvent) string {
	id := e.ScanID
	if len(id) > 8 {
		id = id[:8]
	}
	return faint.Sprintf("[%s]", id) + " " + e.Message
}

// clip shortens s to n runes, marking the cut with "...".
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func pad(s string, width int) string {
	if n := len([]rune(s)); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
