package domain

import (
	"strings"
	"time"
)

// Category enumerates the fixed classification assigned when a ticket is opened.
type Category string

const (
	CategoryLoginIssue      Category = "Login Issue"
	CategoryPaymentFailed   Category = "Payment Failed"
	CategoryAccountLocked   Category = "Account Locked"
	CategoryAppCrash        Category = "App Crash"
	CategorySlowApp         Category = "Slow App"
	CategoryMissingFeatures Category = "Missing Features"
	CategoryBugReport       Category = "Bug Report"
	CategoryPoorSupport     Category = "Poor Support"
	CategoryUIConfusion     Category = "UI Confusion"
)

// Categories lists every known category in declaration order.
func Categories() []Category {
	return []Category{
		CategoryLoginIssue,
		CategoryPaymentFailed,
		CategoryAccountLocked,
		CategoryAppCrash,
		CategorySlowApp,
		CategoryMissingFeatures,
		CategoryBugReport,
		CategoryPoorSupport,
		CategoryUIConfusion,
	}
}

// ParseCategory resolves a label to a known category. Labels are matched exactly
// after trimming surrounding whitespace.
func ParseCategory(label string) (Category, bool) {
	label = strings.TrimSpace(label)
	for _, c := range Categories() {
		if string(c) == label {
			return c, true
		}
	}
	return "", false
}

// Tag is a single-word classification assigned after creation by an external classifier.
type Tag string

// ParseTag validates a tag supplied at the tagging boundary.
func ParseTag(raw string) (Tag, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.ContainsAny(raw, " \t\r\n") {
		return "", false
	}
	return Tag(raw), true
}

// Ticket is one support request. Values are treated as immutable once they enter a table.
type Ticket struct {
	ID        string
	Submitter string
	IssueText string
	Category  Category
	Tag       *Tag
	CreatedAt time.Time
}

// Tagged reports whether a classifier tag has been assigned.
func (t Ticket) Tagged() bool {
	return t.Tag != nil
}

// Period returns the calendar month containing CreatedAt.
func (t Ticket) Period() Period {
	return PeriodOf(t.CreatedAt)
}

// WithTag returns a copy of the ticket carrying tag.
func (t Ticket) WithTag(tag Tag) Ticket {
	t.Tag = &tag
	return t
}
