package clearance

import (
	"pdis/common"

	"github.com/fundwit/go-commons/types"
	"github.com/shopspring/decimal"
)

type FormState string

const (
	FormStateDraft       = FormState("DRAFT")
	FormStateSubmitted   = FormState("SUBMITTED")
	FormStateUnderReview = FormState("UNDER_REVIEW")
	FormStateApproved    = FormState("APPROVED")
	FormStateRejected    = FormState("REJECTED")
)

// coverageStates are the lifecycle states whose fee rows count as existing
// coverage in duplicate checks.
var coverageStates = []FormState{FormStateSubmitted, FormStateUnderReview, FormStateApproved}

// ClearanceForm is an Independent Manpower Clearance Form: a set of
// personnel fee assignments for one project.
type ClearanceForm struct {
	ID         types.ID `json:"id" gorm:"primary_key"`
	Identifier string   `json:"identifier" gorm:"unique_index:form_identifier_unique"`
	ProjectID  types.ID `json:"projectId" sql:"type:BIGINT UNSIGNED NOT NULL"`

	State  FormState `json:"state"`
	Remark string    `json:"remark" sql:"type:TEXT"`

	CreateTime  types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
	CreatorID   types.ID        `json:"creatorId"`
	CreatorName string          `json:"creatorName"`

	SubmitTime types.Timestamp `json:"submitTime" sql:"type:DATETIME(6)"`
	DecideTime types.Timestamp `json:"decideTime" sql:"type:DATETIME(6)"`
}

type ClearanceFormDetail struct {
	ClearanceForm

	ProjectName string         `json:"projectName"`
	Personnel   []PersonnelFee `json:"personnel"`
}

type PersonnelFeeCreation struct {
	PersonnelName string      `json:"personnelName" binding:"required"`
	CoverageFrom  common.Date `json:"coverageFrom" binding:"required"`
	CoverageTo    common.Date `json:"coverageTo" binding:"required"`

	PackagedFee decimal.Decimal `json:"packagedFee"`
	DailyFees   WeekdayFees     `json:"dailyFees"`
}

type FormCreation struct {
	ProjectID types.ID               `json:"projectId" binding:"required"`
	Remark    string                 `json:"remark"`
	Personnel []PersonnelFeeCreation `json:"personnel" binding:"required,gt=0,dive"`
}

type FormUpdating struct {
	Remark    string                 `json:"remark"`
	Personnel []PersonnelFeeCreation `json:"personnel" binding:"required,gt=0,dive"`
}

type FormQuery struct {
	ProjectID types.ID    `form:"projectId" binding:"required"`
	States    []FormState `form:"state"`
}

type FormReview struct {
	Action string `json:"action" binding:"required,oneof=review approve reject"`
}

// DuplicateCheckRequest is the candidate assignment being validated before a
// form is saved or submitted.
type DuplicateCheckRequest struct {
	PersonnelName string      `json:"personnelName" binding:"required"`
	ProjectID     types.ID    `json:"projectId" binding:"required"`
	CoverageFrom  common.Date `json:"coverageFromDate" binding:"required"`
	CoverageTo    common.Date `json:"coverageToDate" binding:"required"`
	FeeType       FeeType     `json:"feeType" binding:"required,oneof=packaged daily"`

	PackagedFee decimal.Decimal `json:"packagedFee"`
	DailyFees   WeekdayFees     `json:"dailyFees"`

	ExcludeFormID types.ID `json:"excludeFormId"`
}

type DuplicateCheckResult struct {
	HasDuplicates bool             `json:"hasDuplicates"`
	Duplicates    []ConflictReport `json:"duplicates"`
}
