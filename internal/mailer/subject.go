package mailer

import "time"

const (
	subjectPrefix = "General Enquiry_"
	subjectLayout = "02_01_2006_150405"
)

// Subject formats t as General Enquiry_DD_MM_YYYY_HHMMSS in t's location.
// Two submissions in the same second share a subject.
func Subject(t time.Time) string {
	return subjectPrefix + t.Format(subjectLayout)
}
