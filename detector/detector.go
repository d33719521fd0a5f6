package detector

import (
	"github.com/cnosuke/judolhunter/extractor"
	"github.com/cnosuke/judolhunter/patterns"
	"github.com/cnosuke/judolhunter/types"
)

// Kind identifies one heuristic detector.
type Kind string

const (
	KindKeyword Kind = "keyword"
	KindLink    Kind = "link"
	KindHidden  Kind = "hidden"
	KindMeta    Kind = "meta"
)

// Kinds lists every detector in reporting order.
var Kinds = []Kind{KindKeyword, KindLink, KindHidden, KindMeta}

// Issue returns the findings key the detector reports under.
func (k Kind) Issue() string {
	switch k {
	case KindKeyword:
		return types.IssueGamblingKeywords
	case KindLink:
		return types.IssueSuspiciousLinks
	case KindHidden:
		return types.IssueHiddenElements
	case KindMeta:
		return types.IssueMetaInjection
	}
	return string(k)
}

// Label is the human-readable detector name used in progress messages.
func (k Kind) Label() string {
	switch k {
	case KindKeyword:
		return "gambling keywords"
	case KindLink:
		return "suspicious links"
	case KindHidden:
		return "hidden elements"
	case KindMeta:
		return "meta injection"
	}
	return string(k)
}

// Input is the read-only page data every detector works on.
type Input struct {
	Doc           *extractor.Document
	BaseURL       string
	Patterns      *patterns.Patterns
	ContextRadius int
}

// Result holds the output of one detector. Only the slice matching Kind is set.
type Result struct {
	Kind     Kind
	Keywords []types.KeywordFinding
	Links    []types.LinkFinding
	Hidden   []types.HiddenFinding
	Meta     []types.MetaFinding
}

// Count returns the number of findings.
func (r Result) Count() int {
	return len(r.Keywords) + len(r.Links) + len(r.Hidden) + len(r.Meta)
}

// Apply stores the findings in f.
func (r Result) Apply(f *types.Findings) {
	switch r.Kind {
	case KindKeyword:
		f.GamblingKeywords = r.Keywords
	case KindLink:
		f.SuspiciousLinks = r.Links
	case KindHidden:
		f.HiddenElements = r.Hidden
	case KindMeta:
		f.MetaInjection = r.Meta
	}
}

// Run dispatches to the detector named by k. A missing document yields no findings.
func Run(k Kind, in Input) Result {
	r := Result{Kind: k}
	if in.Doc == nil || in.Patterns == nil {
		return r
	}
	switch k {
	case KindKeyword:
		r.Keywords = Keywords(in.Doc.Text(), in.Patterns, in.ContextRadius)
	case KindLink:
		r.Links = Links(in.Doc, in.BaseURL, in.Patterns)
	case KindHidden:
		r.Hidden = Hidden(in.Doc, in.Patterns)
	case KindMeta:
		r.Meta = Meta(in.Doc, in.Patterns)
	}
	return r
}
