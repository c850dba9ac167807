package model

// Tier identifies a human approver group.  Identity and authorization of the
// approvers themselves are external concerns; the engine only routes.
type Tier string

const (
	TierModerator          Tier = "moderator"
	TierAcademicAdvisor    Tier = "academic-advisor"
	TierAcademicSupervisor Tier = "academic-supervisor"
	TierSecurity           Tier = "security"
)

// tierLadder orders tiers for escalation, lowest first.
var tierLadder = []Tier{TierModerator, TierAcademicAdvisor, TierAcademicSupervisor, TierSecurity}

// NextTier returns the tier one step above t; the top tier escalates to
// itself.  An unknown tier resolves to the bottom of the ladder.
func NextTier(t Tier) Tier {
	for i, candidate := range tierLadder {
		if candidate == t {
			if i+1 < len(tierLadder) {
				return tierLadder[i+1]
			}
			return candidate
		}
	}
	return tierLadder[0]
}
