package hermes

import "strings"

const (
	SubjectWildcard        = "appraisal.>"
	SubjectAnomalyWildcard = "appraisal.anomaly.>"

	StreamName   = "APPRAISAL_EVENTS"
	StreamMaxAge = "720h" // 30 days
)

var tokenReplacer = strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_", "\t", "_")

// Token makes a target usable as a single subject token.
func Token(target string) string {
	if target == "" {
		return "_"
	}
	return tokenReplacer.Replace(target)
}

func SubjectReviewRecorded(target string) string {
	return "appraisal.review." + Token(target) + ".recorded"
}

func SubjectAnomalyDetected(target string) string {
	return "appraisal.anomaly." + Token(target) + ".detected"
}
