package budget

import (
	"errors"
	"pdis/bizerror"
	"pdis/idgen"
	"pdis/persistence"
	"pdis/session"
	"sort"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"
	"github.com/sony/sonyflake"
)

var (
	budgetIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateBudgetLineFunc   = CreateBudgetLine
	UpdateBudgetLineFunc   = UpdateBudgetLine
	QueryBudgetLinesFunc   = QueryBudgetLines
	DeleteBudgetLineFunc   = DeleteBudgetLine
	QueryBudgetSummaryFunc = QueryBudgetSummary
)

func CreateBudgetLine(c *BudgetLineCreation, s *session.Session) (*BudgetLine, error) {
	if !s.Perms.HasRoleSuffix("_" + c.ProjectID.String()) {
		return nil, bizerror.ErrForbidden
	}
	if c.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, &bizerror.ErrBadParam{Cause: errors.New("amount must be positive")}
	}

	line := BudgetLine{
		ID: idgen.NextID(budgetIdWorker), ProjectID: c.ProjectID,
		Category: c.Category, Description: c.Description, EntryType: c.EntryType,
		Amount: c.Amount, OccurredDate: c.OccurredDate,
		CreateTime: types.CurrentTimestamp(), CreatorID: s.Identity.ID, CreatorName: s.Identity.Nickname,
	}
	if err := persistence.ActiveDataSourceManager.GormDB(s.Context).Create(line).Error; err != nil {
		return nil, err
	}
	return &line, nil
}

func UpdateBudgetLine(id types.ID, u *BudgetLineUpdating, s *session.Session) (*BudgetLine, error) {
	if u.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, &bizerror.ErrBadParam{Cause: errors.New("amount must be positive")}
	}

	var updated *BudgetLine
	txErr := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		line := BudgetLine{}
		if err := tx.Where(&BudgetLine{ID: id}).First(&line).Error; err != nil {
			return err
		}
		if !s.Perms.HasRoleSuffix("_" + line.ProjectID.String()) {
			return bizerror.ErrForbidden
		}

		changes := map[string]interface{}{
			"category": u.Category, "description": u.Description,
			"amount": u.Amount, "occurred_date": u.OccurredDate,
		}
		if err := tx.Model(&BudgetLine{ID: line.ID}).Update(changes).Error; err != nil {
			return err
		}

		line.Category, line.Description = u.Category, u.Description
		line.Amount, line.OccurredDate = u.Amount, u.OccurredDate
		updated = &line
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return updated, nil
}

func QueryBudgetLines(q *BudgetLineQuery, s *session.Session) ([]BudgetLine, error) {
	if !s.Perms.HasProjectViewPerm(q.ProjectID) {
		return []BudgetLine{}, nil
	}

	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	query := db.Where(&BudgetLine{ProjectID: q.ProjectID, Category: q.Category, EntryType: q.EntryType})

	var lines []BudgetLine
	if err := query.Order("occurred_date ASC, id ASC").Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

func DeleteBudgetLine(id types.ID, s *session.Session) error {
	return persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		line := BudgetLine{}
		if err := tx.Where(&BudgetLine{ID: id}).First(&line).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if !s.Perms.HasRoleSuffix("_" + line.ProjectID.String()) {
			return bizerror.ErrForbidden
		}
		return tx.Delete(&BudgetLine{}, &BudgetLine{ID: line.ID}).Error
	})
}

// QueryBudgetSummary aggregates allocation and expense lines of a project
// into per-category allocated/spent/remaining figures, category name order.
func QueryBudgetSummary(projectId types.ID, s *session.Session) ([]CategorySummary, error) {
	if !s.Perms.HasProjectViewPerm(projectId) {
		return []CategorySummary{}, nil
	}

	var lines []BudgetLine
	if err := persistence.ActiveDataSourceManager.GormDB(s.Context).
		Where(&BudgetLine{ProjectID: projectId}).Find(&lines).Error; err != nil {
		return nil, err
	}

	index := map[string]*CategorySummary{}
	for i := range lines {
		line := &lines[i]
		summary := index[line.Category]
		if summary == nil {
			summary = &CategorySummary{Category: line.Category}
			index[line.Category] = summary
		}
		if line.EntryType == EntryTypeAllocation {
			summary.Allocated = summary.Allocated.Add(line.Amount)
		} else {
			summary.Spent = summary.Spent.Add(line.Amount)
		}
	}

	summaries := make([]CategorySummary, 0, len(index))
	for _, summary := range index {
		summary.Remaining = summary.Allocated.Sub(summary.Spent)
		summaries = append(summaries, *summary)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Category < summaries[j].Category })
	return summaries, nil
}
