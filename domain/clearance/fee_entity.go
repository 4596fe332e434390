package clearance

import (
	"pdis/common"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/shopspring/decimal"
)

type FeeType string

const (
	FeeTypePackaged = FeeType("packaged")
	FeeTypeDaily    = FeeType("daily")
	FeeTypeNone     = FeeType("")
)

// WeekdayFees holds the recurring per-weekday amounts of a daily fee
// arrangement. Lookup goes through Fee to keep weekday access explicit.
type WeekdayFees struct {
	Mon decimal.Decimal `json:"monday"`
	Tue decimal.Decimal `json:"tuesday"`
	Wed decimal.Decimal `json:"wednesday"`
	Thu decimal.Decimal `json:"thursday"`
	Fri decimal.Decimal `json:"friday"`
	Sat decimal.Decimal `json:"saturday"`
	Sun decimal.Decimal `json:"sunday"`
}

func (w WeekdayFees) Fee(day time.Weekday) decimal.Decimal {
	switch day {
	case time.Monday:
		return w.Mon
	case time.Tuesday:
		return w.Tue
	case time.Wednesday:
		return w.Wed
	case time.Thursday:
		return w.Thu
	case time.Friday:
		return w.Fri
	case time.Saturday:
		return w.Sat
	case time.Sunday:
		return w.Sun
	}
	return decimal.Zero
}

func (w WeekdayFees) AnyPositive() bool {
	for _, fee := range []decimal.Decimal{w.Mon, w.Tue, w.Wed, w.Thu, w.Fri, w.Sat, w.Sun} {
		if fee.GreaterThan(decimal.Zero) {
			return true
		}
	}
	return false
}

// PersonnelFee is one person's compensation terms on one clearance form
// over one coverage period.
type PersonnelFee struct {
	ID     types.ID `json:"id" gorm:"primary_key"`
	FormID types.ID `json:"formId" sql:"type:BIGINT UNSIGNED NOT NULL"`

	PersonnelName string `json:"personnelName"`

	CoverageFrom common.Date `json:"coverageFrom" sql:"type:DATE NOT NULL"`
	CoverageTo   common.Date `json:"coverageTo" sql:"type:DATE NOT NULL"`

	PackagedFee decimal.Decimal `json:"packagedFee" sql:"type:DECIMAL(14,2) NOT NULL"`

	MonFee decimal.Decimal `json:"monFee" sql:"type:DECIMAL(14,2) NOT NULL"`
	TueFee decimal.Decimal `json:"tueFee" sql:"type:DECIMAL(14,2) NOT NULL"`
	WedFee decimal.Decimal `json:"wedFee" sql:"type:DECIMAL(14,2) NOT NULL"`
	ThuFee decimal.Decimal `json:"thuFee" sql:"type:DECIMAL(14,2) NOT NULL"`
	FriFee decimal.Decimal `json:"friFee" sql:"type:DECIMAL(14,2) NOT NULL"`
	SatFee decimal.Decimal `json:"satFee" sql:"type:DECIMAL(14,2) NOT NULL"`
	SunFee decimal.Decimal `json:"sunFee" sql:"type:DECIMAL(14,2) NOT NULL"`
}

func (f *PersonnelFee) WeekdayFees() WeekdayFees {
	return WeekdayFees{
		Mon: f.MonFee, Tue: f.TueFee, Wed: f.WedFee, Thu: f.ThuFee,
		Fri: f.FriFee, Sat: f.SatFee, Sun: f.SunFee,
	}
}
