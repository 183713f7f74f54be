package domain

import (
	"strings"

	dErrors "casedesk/pkg/domain-errors"
)

// RiskLevel is the case risk rating supplied by the external screening process.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// riskOrder ranks levels for comparison. Higher is riskier.
var riskOrder = map[RiskLevel]int{
	RiskLow:      1,
	RiskMedium:   2,
	RiskHigh:     3,
	RiskCritical: 4,
}

func ParseRiskLevel(s string) (RiskLevel, error) {
	r := RiskLevel(strings.ToUpper(strings.TrimSpace(s)))
	if r == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "risk level cannot be empty")
	}
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid risk level")
	}
	return r, nil
}

func (r RiskLevel) IsValid() bool {
	_, ok := riskOrder[r]
	return ok
}

func (r RiskLevel) String() string {
	return string(r)
}

// IsAtLeast returns true if r is as risky as other or riskier.
// Unknown levels rank below every known level.
func (r RiskLevel) IsAtLeast(other RiskLevel) bool {
	return riskOrder[r] >= riskOrder[other] && riskOrder[r] > 0
}

// IsElevated reports HIGH or CRITICAL, the levels that need enhanced due diligence.
func (r RiskLevel) IsElevated() bool {
	return r.IsAtLeast(RiskHigh)
}

// Priority orders work queues; it never affects workflow gates.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToUpper(strings.TrimSpace(s)))
	if p == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "priority cannot be empty")
	}
	if !p.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid priority")
	}
	return p, nil
}

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}
