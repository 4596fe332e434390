package budget

import (
	"pdis/common"

	"github.com/fundwit/go-commons/types"
	"github.com/shopspring/decimal"
)

type EntryType string

const (
	EntryTypeAllocation = EntryType("allocation")
	EntryTypeExpense    = EntryType("expense")
)

// BudgetLine is one allocation or expense entry against a project budget
// category.
type BudgetLine struct {
	ID        types.ID `json:"id" gorm:"primary_key"`
	ProjectID types.ID `json:"projectId" sql:"type:BIGINT UNSIGNED NOT NULL"`

	Category    string    `json:"category"`
	Description string    `json:"description" sql:"type:TEXT"`
	EntryType   EntryType `json:"entryType"`

	Amount       decimal.Decimal `json:"amount" sql:"type:DECIMAL(14,2) NOT NULL"`
	OccurredDate common.Date     `json:"occurredDate" sql:"type:DATE"`

	CreateTime  types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
	CreatorID   types.ID        `json:"creatorId"`
	CreatorName string          `json:"creatorName"`
}

type BudgetLineCreation struct {
	ProjectID types.ID `json:"projectId" binding:"required"`

	Category    string    `json:"category" binding:"required"`
	Description string    `json:"description"`
	EntryType   EntryType `json:"entryType" binding:"required,oneof=allocation expense"`

	Amount       decimal.Decimal `json:"amount" binding:"required"`
	OccurredDate common.Date     `json:"occurredDate" binding:"required"`
}

type BudgetLineUpdating struct {
	Category    string `json:"category" binding:"required"`
	Description string `json:"description"`

	Amount       decimal.Decimal `json:"amount" binding:"required"`
	OccurredDate common.Date     `json:"occurredDate" binding:"required"`
}

type BudgetLineQuery struct {
	ProjectID types.ID  `form:"projectId" binding:"required"`
	Category  string    `form:"category"`
	EntryType EntryType `form:"entryType"`
}

// CategorySummary carries the allocated/spent/remaining state of one budget
// category of a project.
type CategorySummary struct {
	Category  string          `json:"category"`
	Allocated decimal.Decimal `json:"allocated"`
	Spent     decimal.Decimal `json:"spent"`
	Remaining decimal.Decimal `json:"remaining"`
}
