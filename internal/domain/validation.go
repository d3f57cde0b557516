package domain

import "fmt"

// ValidationIssue classifies why a cart line cannot be purchased as
// requested. The empty string means the line is fine.
type ValidationIssue string

const (
	IssueNone              ValidationIssue = ""
	IssueOutOfStock        ValidationIssue = "out_of_stock"
	IssueInsufficientStock ValidationIssue = "insufficient_stock"
	IssueUnavailable       ValidationIssue = "unavailable"

	// IssueLookupFailed marks a line whose availability lookup errored.
	// It blocks checkout like the other issues; the line is not silently
	// assumed to be fine.
	IssueLookupFailed ValidationIssue = "lookup_failed"
)

// UnknownStock is the AvailableStock value when no live count was resolved.
const UnknownStock = -1

// ItemValidation is the validation outcome for a single cart line.
type ItemValidation struct {
	ItemID         string          `json:"itemId"`
	Issue          ValidationIssue `json:"issue,omitempty"`
	AvailableStock int             `json:"availableStock"`
	ProductName    string          `json:"productName"`
	VariantName    string          `json:"variantName,omitempty"`
}

func (v ItemValidation) OK() bool {
	return v.Issue == IssueNone
}

func (v ItemValidation) name() string {
	if v.VariantName != "" {
		return v.ProductName + " (" + v.VariantName + ")"
	}
	return v.ProductName
}

// Message renders the issue as a human-readable string. It is derived
// purely from the captured state, never from a fresh lookup.
func (v ItemValidation) Message() string {
	switch v.Issue {
	case IssueNone:
		return ""
	case IssueOutOfStock:
		return fmt.Sprintf("%s está agotado", v.name())
	case IssueInsufficientStock:
		return fmt.Sprintf("%s: solo quedan %d disponibles", v.name(), v.AvailableStock)
	case IssueUnavailable:
		return fmt.Sprintf("%s ya no está disponible", v.name())
	case IssueLookupFailed:
		return fmt.Sprintf("no se pudo verificar la disponibilidad de %s", v.name())
	default:
		return fmt.Sprintf("%s no se puede comprar", v.name())
	}
}

// ValidationResult is a derived, recomputable snapshot of a full cart
// validation pass. It is never persisted.
type ValidationResult struct {
	Items []ItemValidation `json:"items"`
}

// HasIssues reports whether any line carries a non-empty issue.
func (r ValidationResult) HasIssues() bool {
	for _, it := range r.Items {
		if !it.OK() {
			return true
		}
	}
	return false
}

// Item returns the validation entry for the given cart line.
func (r ValidationResult) Item(itemID string) (ItemValidation, bool) {
	for _, it := range r.Items {
		if it.ItemID == itemID {
			return it, true
		}
	}
	return ItemValidation{}, false
}

// HasItemIssue reports whether the given line has a blocking issue.
func (r ValidationResult) HasItemIssue(itemID string) bool {
	it, ok := r.Item(itemID)
	return ok && !it.OK()
}

// ItemErrorMessage returns the human-readable message for the given line,
// or the empty string when the line is fine or unknown.
func (r ValidationResult) ItemErrorMessage(itemID string) string {
	it, ok := r.Item(itemID)
	if !ok {
		return ""
	}
	return it.Message()
}

// Messages returns one message per offending line, in cart order.
func (r ValidationResult) Messages() []string {
	var msgs []string
	for _, it := range r.Items {
		if !it.OK() {
			msgs = append(msgs, it.Message())
		}
	}
	return msgs
}
