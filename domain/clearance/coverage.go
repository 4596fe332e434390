package clearance

import (
	"fmt"
	"pdis/common"
	"strings"

	"github.com/fundwit/go-commons/types"
	"github.com/shopspring/decimal"
)

const (
	ReasonPackagedOverlap    = "Same project with overlapping packaged fee coverage dates"
	ReasonDailyOverlapFormat = "Same project with overlapping daily fees on: %s"
	ReasonPackagedOverDaily  = "Same project: packaged fee overlaps with existing daily fees"
	ReasonDailyOverPackaged  = "Same project: daily fees overlap with existing packaged fee"
)

// FeeAssignment is one person's compensation terms on one existing clearance
// form, detached from storage for coverage checking and client rendering.
type FeeAssignment struct {
	FormID        types.ID `json:"formId"`
	FormReference string   `json:"formReference"`
	ProjectID     types.ID `json:"projectId"`
	ProjectName   string   `json:"projectName"`

	PersonnelName string      `json:"personnelName"`
	CoverageFrom  common.Date `json:"coverageFrom"`
	CoverageTo    common.Date `json:"coverageTo"`

	PackagedFee decimal.Decimal `json:"packagedFee"`
	DailyFees   WeekdayFees     `json:"dailyFees"`
}

// FeeType derives the fee arrangement: packaged when the flat fee is
// positive, else daily when any weekday fee is positive, else none.
func (a *FeeAssignment) FeeType() FeeType {
	if a.PackagedFee.GreaterThan(decimal.Zero) {
		return FeeTypePackaged
	}
	if a.DailyFees.AnyPositive() {
		return FeeTypeDaily
	}
	return FeeTypeNone
}

type CandidateAssignment struct {
	FeeAssignment

	// ExcludeFormID suppresses the candidate's own form when editing.
	ExcludeFormID types.ID
}

type ConflictReport struct {
	Source         FeeAssignment `json:"source"`
	Reason         string        `json:"reason"`
	RequiresRemark bool          `json:"requiresRemark"`

	// OverlappingDays is populated for daily-vs-daily conflicts only,
	// weekday display names in first-encounter order.
	OverlappingDays []string `json:"overlappingDays"`
}

// CheckCoverage scans existing assignments of the same project for coverage
// conflicts with candidate. Callers pre-filter existing to the candidate's
// project, to non-draft forms and to records whose coverage range overlaps
// the candidate's. Report order follows the order of existing; identical
// inputs always produce identical reports.
func CheckCoverage(candidate CandidateAssignment, existing []FeeAssignment) []ConflictReport {
	reports := []ConflictReport{}

	candidateName := canonicalKey(candidate.PersonnelName)
	if candidateName == "" {
		return reports
	}
	candidateType := candidate.FeeType()
	if candidateType == FeeTypeNone {
		return reports
	}

	for _, e := range existing {
		if !candidate.ExcludeFormID.IsZero() && e.FormID == candidate.ExcludeFormID {
			continue
		}
		if canonicalKey(e.PersonnelName) != candidateName {
			continue
		}

		existingType := e.FeeType()
		if existingType == FeeTypeNone {
			// zero-fee placeholder rows represent no actual compensation
			continue
		}

		switch {
		case candidateType == FeeTypePackaged && existingType == FeeTypePackaged:
			reports = append(reports, ConflictReport{
				Source: e, Reason: ReasonPackagedOverlap, RequiresRemark: true, OverlappingDays: []string{},
			})
		case candidateType == FeeTypeDaily && existingType == FeeTypeDaily:
			days := overlappingWeekdays(candidate.CoverageFrom, candidate.CoverageTo, &e)
			if len(days) == 0 {
				continue
			}
			reports = append(reports, ConflictReport{
				Source: e, Reason: fmt.Sprintf(ReasonDailyOverlapFormat, strings.Join(days, ", ")),
				RequiresRemark: true, OverlappingDays: days,
			})
		case candidateType == FeeTypePackaged && existingType == FeeTypeDaily:
			reports = append(reports, ConflictReport{
				Source: e, Reason: ReasonPackagedOverDaily, RequiresRemark: false, OverlappingDays: []string{},
			})
		default: // daily candidate over packaged existing
			reports = append(reports, ConflictReport{
				Source: e, Reason: ReasonDailyOverPackaged, RequiresRemark: true, OverlappingDays: []string{},
			})
		}
	}
	return reports
}

// RequiresRemark aggregates the save-gate decision over all reports.
func RequiresRemark(reports []ConflictReport) bool {
	for _, r := range reports {
		if r.RequiresRemark {
			return true
		}
	}
	return false
}

// overlappingWeekdays walks every calendar date of the candidate range and
// collects weekday names on which the existing record charges a positive
// daily fee, deduplicated in first-encounter order. An inverted candidate
// range walks zero days.
func overlappingWeekdays(from, to common.Date, e *FeeAssignment) []string {
	var days []string
	seen := [7]bool{}
	for d := from; !d.After(to.Time); d = d.AddDays(1) {
		if d.Before(e.CoverageFrom.Time) || d.After(e.CoverageTo.Time) {
			continue
		}
		weekday := d.Weekday()
		if seen[weekday] {
			continue
		}
		if e.DailyFees.Fee(weekday).GreaterThan(decimal.Zero) {
			seen[weekday] = true
			days = append(days, weekday.String())
		}
	}
	return days
}

func canonicalKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
