package billing

// SaleStatus is the lifecycle state of a sale
type SaleStatus string

const (
	SaleStatusDraft     SaleStatus = "DRAFT"
	SaleStatusPending   SaleStatus = "PENDING"
	SaleStatusPaid      SaleStatus = "PAID"
	SaleStatusCancelled SaleStatus = "CANCELLED"
	SaleStatusRefunded  SaleStatus = "REFUNDED"
)

// IsValid reports whether the status is a known sale status
func (s SaleStatus) IsValid() bool {
	switch s {
	case SaleStatusDraft, SaleStatusPending, SaleStatusPaid, SaleStatusCancelled, SaleStatusRefunded:
		return true
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions
func (s SaleStatus) IsTerminal() bool {
	return len(allowedTransitions[s]) == 0
}

// allowedTransitions is the complete sale state graph. A transition not
// listed here is illegal; in particular paid→paid is rejected, so a
// re-submitted payment surfaces as InvalidTransition rather than silently
// re-triggering stock consumption.
var allowedTransitions = map[SaleStatus][]SaleStatus{
	SaleStatusDraft:     {SaleStatusPending, SaleStatusCancelled},
	SaleStatusPending:   {SaleStatusPaid, SaleStatusCancelled},
	SaleStatusPaid:      {SaleStatusRefunded},
	SaleStatusCancelled: {},
	SaleStatusRefunded:  {},
}

// CanTransition reports whether the edge from→to is in the state graph
func CanTransition(from, to SaleStatus) bool {
	for _, t := range allowedTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}
