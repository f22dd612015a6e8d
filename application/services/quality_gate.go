package services

import (
	"github.com/jonghyeuk/auto-mpeg/application/ports/inbound"
	"github.com/jonghyeuk/auto-mpeg/domain"
)

const (
	baseScore        = 100
	approveThreshold = 80
	reviseThreshold  = 60
)

var severityPenalty = map[domain.IssueSeverity]int{
	domain.SeverityCritical: 30,
	domain.SeverityHigh:     20,
	domain.SeverityMedium:   10,
	domain.SeverityLow:      5,
}

type qualityGate struct{}

func NewQualityGate() inbound.QualityGatePort {
	return &qualityGate{}
}

// Evaluate subtracts a fixed penalty per issue from the base score, floors
// at zero, and maps the result to a recommendation. Summation makes the
// score independent of issue order.
func (q *qualityGate) Evaluate(issues []domain.QualityIssue) domain.QualityVerdict {
	score := baseScore
	for _, issue := range issues {
		score -= severityPenalty[issue.Severity]
	}
	if score < 0 {
		score = 0
	}

	recommendation := domain.RecommendReject
	switch {
	case score >= approveThreshold:
		recommendation = domain.RecommendApprove
	case score >= reviseThreshold:
		recommendation = domain.RecommendRevise
	}

	return domain.QualityVerdict{
		Score:          score,
		Issues:         issues,
		Recommendation: recommendation,
	}
}
