package metrics

// StageTimings captures how long each remote evaluation stage took.
type StageTimings struct {
	EstimateMs int64 `json:"estimateMs"`
	CompareMs  int64 `json:"compareMs"`
	SuggestMs  int64 `json:"suggestMs"`
}

// TotalMs is the wall time spent across all stages.
func (t StageTimings) TotalMs() int64 {
	return t.EstimateMs + t.CompareMs + t.SuggestMs
}

// IsZero reports whether timing data is absent.
func (t StageTimings) IsZero() bool {
	return t.EstimateMs == 0 && t.CompareMs == 0 && t.SuggestMs == 0
}
