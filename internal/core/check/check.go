// Package check classifies d20 rolls against difficulty classes.
package check

import "github.com/arvenwood/loomfall/internal/core/dice"

// Degree is the four-way classification of a check result.
type Degree string

const (
	// DegreeCriticalFailure is a natural 1 or a miss by 10 or more.
	DegreeCriticalFailure Degree = "critical-failure"
	// DegreeFailure is a total below the difficulty class.
	DegreeFailure Degree = "failure"
	// DegreeSuccess is a total meeting the difficulty class.
	DegreeSuccess Degree = "success"
	// DegreeCriticalSuccess is a natural 20 or a beat by 10 or more.
	DegreeCriticalSuccess Degree = "critical-success"
)

// Classify grades a rolled d20 against a difficulty class.
//
// Natural 20 and natural 1 override the arithmetic regardless of modifier
// or difficulty. Otherwise the total decides: DC+10 and above is a critical
// success, DC and above a success, DC-10 and below a critical failure.
func Classify(roll dice.D20Result, dc int) Degree {
	switch {
	case roll.Nat20:
		return DegreeCriticalSuccess
	case roll.Nat1:
		return DegreeCriticalFailure
	case roll.Total >= dc+10:
		return DegreeCriticalSuccess
	case roll.Total >= dc:
		return DegreeSuccess
	case roll.Total <= dc-10:
		return DegreeCriticalFailure
	default:
		return DegreeFailure
	}
}

// IsSuccess reports whether the degree counts as a success.
func (d Degree) IsSuccess() bool {
	return d == DegreeSuccess || d == DegreeCriticalSuccess
}

// MeetsDifficulty returns true if total >= difficulty.
// This is the most common difficulty check in tabletop RPGs.
func MeetsDifficulty(total, difficulty int) bool {
	return total >= difficulty
}

// Margin calculates the margin of success or failure.
// Positive values indicate success, negative indicate failure.
func Margin(total, difficulty int) int {
	return total - difficulty
}
