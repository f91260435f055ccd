package jira

import (
	"fmt"
	"strings"

	"github.com/andywolf/uprava/internal/printer"
)

// FormatIssue renders issue in the requested format.
func FormatIssue(issue *Issue, f printer.Format) (string, error) {
	if f == printer.FormatEmail {
		return issueEmail(issue), nil
	}
	return printer.Marshal(issue, f)
}

// FormatComment renders a single comment.
func FormatComment(c *Comment, f printer.Format) (string, error) {
	if f == printer.FormatEmail {
		return commentEmail(c), nil
	}
	return printer.Marshal(c, f)
}

func mailbox(u *User) string {
	name, email := "No username", "no-email"
	if u != nil {
		if u.DisplayName != "" {
			name = u.DisplayName
		}
		if u.EmailAddress != "" {
			email = u.EmailAddress
		}
	}
	return fmt.Sprintf("%q <%s>", name, email)
}

func issueEmail(issue *Issue) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\n", mailbox(issue.Fields.Creator))
	if issue.Fields.Assignee != nil {
		fmt.Fprintf(&b, "To: %s\n", mailbox(issue.Fields.Assignee))
	}
	fmt.Fprintf(&b, "Subject: %s\n\n", issue.Fields.Summary)
	b.WriteString(issue.Fields.Description)
	b.WriteString("\n")

	if issue.Fields.Comment != nil {
		for i := range issue.Fields.Comment.Comments {
			b.WriteString("\n")
			b.WriteString(commentEmail(&issue.Fields.Comment.Comments[i]))
		}
	}
	return b.String()
}

func commentEmail(c *Comment) string {
	var b strings.Builder
	b.WriteString("== Comment =======================================\n")
	fmt.Fprintf(&b, "From %s\n", mailbox(c.Author))
	fmt.Fprintf(&b, "Date: %s\n", c.Created)
	if c.UpdateAuthor != nil {
		fmt.Fprintf(&b, "UpdatedBy: %s\n", mailbox(c.UpdateAuthor))
	}
	if c.Updated != "" {
		fmt.Fprintf(&b, "UpdatedAt: %s\n", c.Updated)
	}
	fmt.Fprintf(&b, "\n%s\n", c.Body)
	return b.String()
}
