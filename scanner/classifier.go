package scanner

import "github.com/cnosuke/judolhunter/types"

// DefaultKeywordVolumeThreshold is the keyword finding count that alone makes a page high risk.
const DefaultKeywordVolumeThreshold = 3

// Signals are the detector outcomes the classifier looks at.
type Signals struct {
	BothFailed   bool
	IsCloaking   bool
	KeywordCount int
	// OtherFindings is set when the link, hidden or meta detector fired.
	OtherFindings bool
}

// Classify maps detector outcomes to a verdict. Rules are checked top to
// bottom and the first match wins, so cloaking with keywords outranks
// keyword volume alone.
func Classify(s Signals, volumeThreshold int) (types.Status, types.RiskLevel) {
	if volumeThreshold <= 0 {
		volumeThreshold = DefaultKeywordVolumeThreshold
	}
	switch {
	case s.BothFailed:
		return types.StatusError, types.RiskUnknown
	case s.IsCloaking && s.KeywordCount > 0:
		return types.StatusInfected, types.RiskCritical
	case s.IsCloaking, s.KeywordCount >= volumeThreshold:
		return types.StatusSuspicious, types.RiskHigh
	case s.KeywordCount > 0, s.OtherFindings:
		return types.StatusSuspicious, types.RiskMedium
	default:
		return types.StatusClean, types.RiskLow
	}
}
