package analysis

// Summary counts check verdicts by status.
type Summary struct {
	Pass  int `json:"pass"`
	Warn  int `json:"warn"`
	Fail  int `json:"fail"`
	Total int `json:"total"`
}

func (s *Summary) add(status Status) {
	switch status {
	case StatusPass:
		s.Pass++
	case StatusWarn:
		s.Warn++
	default:
		s.Fail++
	}
	s.Total++
}

// Status derives the overall status: any failure wins over any warning,
// which wins over a pass.
func (s Summary) Status() Status {
	switch {
	case s.Fail > 0:
		return StatusFail
	case s.Warn > 0:
		return StatusWarn
	default:
		return StatusPass
	}
}

// CheckReport merges a check's descriptor with its Result.
type CheckReport struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Result
}

// Report is the Analyzer output for one document.
type Report struct {
	Status  Status                 `json:"status"`
	Summary Summary                `json:"summary"`
	Checks  map[string]CheckReport `json:"checks"`

	// Order lists the check ids in the order they ran.
	Order []string `json:"order"`
}
