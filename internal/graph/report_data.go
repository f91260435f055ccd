package graph

// ReportData is the assembled graph handed to renderers. It is read-only
// once Assemble returns.
type ReportData struct {
	Issues    *Store
	Epics     *Store
	Relations RelationSet
}

// EpicOf returns the resolved epic of issue, if any.
func (d *ReportData) EpicOf(issue *Issue) (*Issue, bool) {
	subject, ok := issue.EpicSubject()
	if !ok {
		return nil, false
	}
	return d.Epics.Get(subject.Identity())
}

// Members lists ReportMember issues ordered by instance then key.
func (d *ReportData) Members() []*Issue {
	var out []*Issue
	for _, issue := range d.Issues.Sorted() {
		if issue.Kind == ReportMember {
			out = append(out, issue)
		}
	}
	return out
}
