package intent

// Branch identifies the specialized handler a classified turn is routed to.
type Branch string

const (
	BranchMedical   Branch = "medical"
	BranchScheduler Branch = "scheduler"
	BranchCloser    Branch = "closer"
	BranchFAQ       Branch = "faq"
	// BranchNone ends the turn with no specialized handling.
	BranchNone Branch = ""
)

// Dispatch precedence, highest first. Medical safety always wins; then
// time-sensitive scheduling actions, then commercial conversion, then
// informational questions. The table is a contract, not configuration.
var dispatchOrder = []struct {
	branch     Branch
	categories []Category
}{
	{BranchMedical, []Category{MedicalAssessment, ImageAssessment}},
	{BranchScheduler, []Category{ServiceScheduling, ServiceRescheduling, ServiceCancellation}},
	{BranchCloser, []Category{AdConversion, OfferConversion, OrganicInquiry, ReengagementRecovery}},
	{BranchFAQ, []Category{ProcedureInquiry, GeneralInfo}},
}

// Dispatch selects the single next branch for a normalized category set.
// Only the first match in precedence order decides; additional categories
// ride along in the response payload but never fork the flow. A set with
// no routable category (greetings, closures, UNCLASSIFIED) returns
// BranchNone.
func Dispatch(categories []Category) Branch {
	present := make(map[Category]struct{}, len(categories))
	for _, c := range categories {
		present[c] = struct{}{}
	}

	for _, entry := range dispatchOrder {
		for _, c := range entry.categories {
			if _, ok := present[c]; ok {
				return entry.branch
			}
		}
	}
	return BranchNone
}
