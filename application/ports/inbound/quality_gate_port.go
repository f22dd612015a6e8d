package inbound

import "github.com/jonghyeuk/auto-mpeg/domain"

// QualityGatePort scores reviewer issues into a verdict. Pure: the same
// issue list always yields the same verdict, regardless of order.
type QualityGatePort interface {
	Evaluate(issues []domain.QualityIssue) domain.QualityVerdict
}
