package graph

// Direction tells how a link's pair is ordered relative to the issue that
// owns it.
type Direction int

const (
	// Inward links pair as (issue, other).
	Inward Direction = iota
	// Outward links pair as (other, issue).
	Outward
)

// Link is an unclassified edge seen from one issue.
type Link struct {
	Direction Direction
	Term      string
	Other     Subject
}

// Pair returns the ordered identities the link's term applies to.
func (l Link) Pair(self Identity) (Identity, Identity) {
	other := l.Other.Identity()
	if l.Direction == Outward {
		return other, self
	}
	return self, other
}

// ForeignRelation is a declared relation between issues that may live on
// different instances. Kind is classified like a native term with the
// pair (From, To).
type ForeignRelation struct {
	From Subject
	To   Subject
	Kind string
}

// LinksOf lists the native links of issue, worded with the link type's
// inward term after the instance remap, followed by any foreign relations
// touching issue.
func LinksOf(issue *Issue, foreign []ForeignRelation) []Link {
	var links []Link

	for _, l := range issue.Raw.Fields.IssueLinks {
		if l.Type.Inward == "" {
			continue
		}
		term := issue.Instance.Remap(l.Type.Inward)

		switch {
		case l.InwardIssue != nil && l.InwardIssue.Key != "":
			links = append(links, Link{
				Direction: Inward,
				Term:      term,
				Other:     Subject{Instance: issue.Instance, Key: l.InwardIssue.Key},
			})
		case l.OutwardIssue != nil && l.OutwardIssue.Key != "":
			links = append(links, Link{
				Direction: Outward,
				Term:      term,
				Other:     Subject{Instance: issue.Instance, Key: l.OutwardIssue.Key},
			})
		}
	}

	self := issue.Identity()
	for _, fr := range foreign {
		if fr.From.Identity() == self {
			links = append(links, Link{Direction: Inward, Term: fr.Kind, Other: fr.To})
		}
		if fr.To.Identity() == self {
			links = append(links, Link{Direction: Outward, Term: fr.Kind, Other: fr.From})
		}
	}
	return links
}
