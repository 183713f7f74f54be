package requirements

// StatusMissing is the implicit status of a requirement with no submission.
const StatusMissing = "MISSING"

// StatusVerified is the submission status that satisfies a requirement.
const StatusVerified = "VERIFIED"

// ChecklistItem is a resolved requirement paired with its current status.
type ChecklistItem struct {
	Item
	Status       string `json:"status"`
	SubmissionID string `json:"submission_id,omitempty"`
}

// Checklist is the target checklist of a case evaluated against the
// submissions actually made.
type Checklist struct {
	Items []ChecklistItem `json:"items"`
}

// Latest describes the most recent submission made for one requirement.
type Latest struct {
	SubmissionID string
	Status       string
}

// Evaluate pairs every item with the status of its latest submission, or
// MISSING when latest has no entry for it.
func Evaluate(items []Item, latest map[string]Latest) *Checklist {
	out := &Checklist{Items: make([]ChecklistItem, 0, len(items))}
	for _, it := range items {
		ci := ChecklistItem{Item: it, Status: StatusMissing}
		if l, ok := latest[it.ID]; ok && l.Status != "" {
			ci.Status = l.Status
			ci.SubmissionID = l.SubmissionID
		}
		out.Items = append(out.Items, ci)
	}
	return out
}

// Complete reports whether every required item is VERIFIED.
func (c *Checklist) Complete() bool {
	return len(c.Missing()) == 0
}

// Missing returns the required items that are not yet VERIFIED.
func (c *Checklist) Missing() []ChecklistItem {
	var out []ChecklistItem
	for _, it := range c.Items {
		if it.Required && it.Status != StatusVerified {
			out = append(out, it)
		}
	}
	return out
}

// GroupVerified reports whether every item of kind is VERIFIED, required or not.
func (c *Checklist) GroupVerified(kind Kind) bool {
	for _, it := range c.Items {
		if it.Kind == kind && it.Status != StatusVerified {
			return false
		}
	}
	return true
}

// Find returns the checklist entry for a requirement id.
func (c *Checklist) Find(requirementID string) (ChecklistItem, bool) {
	for _, it := range c.Items {
		if it.ID == requirementID {
			return it, true
		}
	}
	return ChecklistItem{}, false
}
