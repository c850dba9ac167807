package model

// RiskLevel classifies the content risk of a single action.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

var riskRank = map[RiskLevel]int{
	RiskLow:      0,
	RiskMedium:   1,
	RiskHigh:     2,
	RiskCritical: 3,
}

// AtLeast reports whether l is at or above the supplied level.
func (l RiskLevel) AtLeast(min RiskLevel) bool {
	return riskRank[l] >= riskRank[min]
}

// RiskAssessment is the structured risk profile computed per context.  It is
// derived data - never persisted independently of its owning request.
type RiskAssessment struct {
	ContentRisk       RiskLevel `json:"contentRiskLevel"`
	AcademicIntegrity float64   `json:"academicIntegrityRisk"` // [0,1]
	Privacy           float64   `json:"privacyRisk"`           // [0,1]
	Operational       float64   `json:"operationalRisk"`       // [0,1]
}
