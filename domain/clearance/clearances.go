package clearance

import (
	"errors"
	"pdis/bizerror"
	"pdis/common"
	"pdis/domain"
	"pdis/domain/directory"
	"pdis/domain/namespace"
	"pdis/event"
	"pdis/idgen"
	"pdis/persistence"
	"pdis/session"
	"strings"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	formIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateClearanceFormFunc = CreateClearanceForm
	UpdateClearanceFormFunc = UpdateClearanceForm
	DetailClearanceFormFunc = DetailClearanceForm
	QueryClearanceFormsFunc = QueryClearanceForms
	DeleteClearanceFormFunc = DeleteClearanceForm
	SubmitClearanceFormFunc = SubmitClearanceForm
	ReviewClearanceFormFunc = ReviewClearanceForm

	CheckDuplicatesFunc            = CheckDuplicates
	LoadOverlappingAssignmentsFunc = LoadOverlappingAssignments
)

const formSourceType = "clearance_form"

func CreateClearanceForm(c *FormCreation, s *session.Session) (*ClearanceFormDetail, error) {
	if !s.Perms.HasRoleSuffix("_" + c.ProjectID.String()) {
		return nil, bizerror.ErrForbidden
	}
	if err := validateCoverageRanges(c.Personnel); err != nil {
		return nil, err
	}

	var detail *ClearanceFormDetail
	var ev *event.EventRecord
	txErr := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		identifier, err := namespace.NextFormIdentifier(c.ProjectID, tx)
		if err != nil {
			return err
		}

		form := ClearanceForm{
			ID: idgen.NextID(formIdWorker), Identifier: identifier, ProjectID: c.ProjectID,
			State: FormStateDraft, Remark: c.Remark,
			CreateTime: types.CurrentTimestamp(), CreatorID: s.Identity.ID, CreatorName: s.Identity.Nickname,
		}
		if err := tx.Create(form).Error; err != nil {
			return err
		}

		personnel, err := createPersonnelRows(tx, form.ID, c.Personnel, s)
		if err != nil {
			return err
		}

		ev, err = event.CreateEvent(formSourceType, form.ID, form.Identifier, event.EventCategoryCreated, nil, &s.Identity, tx)
		if err != nil {
			return err
		}

		detail = &ClearanceFormDetail{ClearanceForm: form, Personnel: personnel}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	if names, err := namespace.QueryProjectNames([]types.ID{detail.ProjectID}); err == nil {
		detail.ProjectName = names[detail.ProjectID]
	}

	if event.InvokeHandlersFunc != nil {
		event.InvokeHandlersFunc(ev)
	}
	return detail, nil
}

func UpdateClearanceForm(id types.ID, u *FormUpdating, s *session.Session) (*ClearanceFormDetail, error) {
	if err := validateCoverageRanges(u.Personnel); err != nil {
		return nil, err
	}

	var detail *ClearanceFormDetail
	var ev *event.EventRecord
	txErr := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		form, err := findFormAndCheckPerms(tx, id, s)
		if err != nil {
			return err
		}
		if form.State != FormStateDraft {
			return bizerror.ErrStateInvalid
		}

		if err := tx.Model(&ClearanceForm{ID: form.ID}).Update(map[string]interface{}{"remark": u.Remark}).Error; err != nil {
			return err
		}
		form.Remark = u.Remark

		if err := tx.Delete(&PersonnelFee{}, &PersonnelFee{FormID: form.ID}).Error; err != nil {
			return err
		}
		personnel, err := createPersonnelRows(tx, form.ID, u.Personnel, s)
		if err != nil {
			return err
		}

		ev, err = event.CreateEvent(formSourceType, form.ID, form.Identifier, event.EventCategoryPropertyUpdated,
			[]event.UpdatedProperty{{PropertyName: "personnel", PropertyDesc: "personnel fee rows replaced"}}, &s.Identity, tx)
		if err != nil {
			return err
		}

		detail = &ClearanceFormDetail{ClearanceForm: *form, Personnel: personnel}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	if names, err := namespace.QueryProjectNames([]types.ID{detail.ProjectID}); err == nil {
		detail.ProjectName = names[detail.ProjectID]
	}

	if event.InvokeHandlersFunc != nil {
		event.InvokeHandlersFunc(ev)
	}
	return detail, nil
}

func DetailClearanceForm(id types.ID, s *session.Session) (*ClearanceFormDetail, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)

	form := ClearanceForm{}
	if err := db.Where(&ClearanceForm{ID: id}).First(&form).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerror.ErrNotFound
		}
		return nil, err
	}
	if !s.Perms.HasProjectViewPerm(form.ProjectID) {
		return nil, bizerror.ErrForbidden
	}

	var personnel []PersonnelFee
	if err := db.Where(&PersonnelFee{FormID: form.ID}).Order("id ASC").Find(&personnel).Error; err != nil {
		return nil, err
	}

	detail := ClearanceFormDetail{ClearanceForm: form, Personnel: personnel}
	if names, err := namespace.QueryProjectNames([]types.ID{form.ProjectID}); err == nil {
		detail.ProjectName = names[form.ProjectID]
	}
	return &detail, nil
}

func QueryClearanceForms(q *FormQuery, s *session.Session) ([]ClearanceForm, error) {
	if !s.Perms.HasProjectViewPerm(q.ProjectID) {
		return []ClearanceForm{}, nil
	}

	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	query := db.Where(&ClearanceForm{ProjectID: q.ProjectID})
	if len(q.States) > 0 {
		query = query.Where("state IN (?)", q.States)
	}

	var forms []ClearanceForm
	if err := query.Order("id ASC").Find(&forms).Error; err != nil {
		return nil, err
	}
	return forms, nil
}

func DeleteClearanceForm(id types.ID, s *session.Session) error {
	return persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		form, err := findFormAndCheckPerms(tx, id, s)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if form.State != FormStateDraft {
			return bizerror.ErrStateInvalid
		}

		if err := tx.Delete(&PersonnelFee{}, &PersonnelFee{FormID: form.ID}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&ClearanceForm{}, &ClearanceForm{ID: form.ID}).Error; err != nil {
			return err
		}
		_, err = event.CreateEvent(formSourceType, form.ID, form.Identifier, event.EventCategoryDeleted, nil, &s.Identity, tx)
		return err
	})
}

// SubmitClearanceForm moves a draft into SUBMITTED. Submission is gated on
// the duplicate coverage check: when any conflict requires a remark and the
// form carries none, the submit fails and the conflicts are returned.
func SubmitClearanceForm(id types.ID, s *session.Session) (*ClearanceFormDetail, error) {
	var detail *ClearanceFormDetail
	var ev *event.EventRecord
	txErr := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		form, err := findFormAndCheckPerms(tx, id, s)
		if err != nil {
			return err
		}
		if form.State != FormStateDraft {
			return bizerror.ErrStateInvalid
		}

		var personnel []PersonnelFee
		if err := tx.Where(&PersonnelFee{FormID: form.ID}).Order("id ASC").Find(&personnel).Error; err != nil {
			return err
		}

		allReports := []ConflictReport{}
		for i := range personnel {
			row := &personnel[i]
			existing, err := loadOverlappingAssignments(tx, form.ProjectID, row.CoverageFrom, row.CoverageTo, form.ID)
			if err != nil {
				return err
			}
			candidate := CandidateAssignment{
				FeeAssignment: FeeAssignment{
					FormID: form.ID, ProjectID: form.ProjectID,
					PersonnelName: row.PersonnelName,
					CoverageFrom:  row.CoverageFrom, CoverageTo: row.CoverageTo,
					PackagedFee: row.PackagedFee, DailyFees: row.WeekdayFees(),
				},
				ExcludeFormID: form.ID,
			}
			allReports = append(allReports, CheckCoverage(candidate, existing)...)
		}

		if RequiresRemark(allReports) && strings.TrimSpace(form.Remark) == "" {
			return &bizerror.ErrRemarkRequired{Conflicts: allReports}
		}

		now := types.CurrentTimestamp()
		if err := tx.Model(&ClearanceForm{ID: form.ID}).
			Update(&ClearanceForm{State: FormStateSubmitted, SubmitTime: now}).Error; err != nil {
			return err
		}
		form.State = FormStateSubmitted
		form.SubmitTime = now

		ev, err = event.CreateEvent(formSourceType, form.ID, form.Identifier, event.EventCategoryStateTransited,
			[]event.UpdatedProperty{{PropertyName: "state", OldValue: string(FormStateDraft), NewValue: string(FormStateSubmitted)}},
			&s.Identity, tx)
		if err != nil {
			return err
		}

		detail = &ClearanceFormDetail{ClearanceForm: *form, Personnel: personnel}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	if event.InvokeHandlersFunc != nil {
		event.InvokeHandlersFunc(ev)
	}
	return detail, nil
}

var reviewTransitions = map[string]struct {
	from []FormState
	to   FormState
}{
	"review":  {from: []FormState{FormStateSubmitted}, to: FormStateUnderReview},
	"approve": {from: []FormState{FormStateSubmitted, FormStateUnderReview}, to: FormStateApproved},
	"reject":  {from: []FormState{FormStateSubmitted, FormStateUnderReview}, to: FormStateRejected},
}

func ReviewClearanceForm(id types.ID, r *FormReview, s *session.Session) (*ClearanceForm, error) {
	transition, found := reviewTransitions[r.Action]
	if !found {
		return nil, bizerror.ErrInvalidArguments
	}

	var reviewed *ClearanceForm
	var ev *event.EventRecord
	txErr := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		form := ClearanceForm{}
		if err := tx.Where(&ClearanceForm{ID: id}).First(&form).Error; err != nil {
			return err
		}
		if !s.Perms.HasRole(domain.ProjectRoleManager + "_" + form.ProjectID.String()) {
			return bizerror.ErrForbidden
		}

		fromStateValid := false
		for _, state := range transition.from {
			if form.State == state {
				fromStateValid = true
				break
			}
		}
		if !fromStateValid {
			return bizerror.ErrStateInvalid
		}

		changes := ClearanceForm{State: transition.to}
		if transition.to == FormStateApproved || transition.to == FormStateRejected {
			changes.DecideTime = types.CurrentTimestamp()
		}
		if err := tx.Model(&ClearanceForm{ID: form.ID}).Where(&ClearanceForm{ID: form.ID, State: form.State}).
			Update(&changes).Error; err != nil {
			return err
		}

		var err error
		ev, err = event.CreateEvent(formSourceType, form.ID, form.Identifier, event.EventCategoryStateTransited,
			[]event.UpdatedProperty{{PropertyName: "state", OldValue: string(form.State), NewValue: string(transition.to)}},
			&s.Identity, tx)
		if err != nil {
			return err
		}

		form.State = transition.to
		form.DecideTime = changes.DecideTime
		reviewed = &form
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	if event.InvokeHandlersFunc != nil {
		event.InvokeHandlersFunc(ev)
	}
	return reviewed, nil
}

// CheckDuplicates validates a candidate assignment against the coverage of
// non-draft forms of the same project.
func CheckDuplicates(req *DuplicateCheckRequest, s *session.Session) (*DuplicateCheckResult, error) {
	if !s.Perms.HasProjectViewPerm(req.ProjectID) {
		return nil, bizerror.ErrForbidden
	}
	if req.CoverageFrom.After(req.CoverageTo.Time) {
		return nil, &bizerror.ErrBadParam{Cause: errors.New("coverageFromDate is after coverageToDate")}
	}

	existing, err := LoadOverlappingAssignmentsFunc(req.ProjectID, req.CoverageFrom, req.CoverageTo, req.ExcludeFormID, s)
	if err != nil {
		return nil, err
	}

	candidate := CandidateAssignment{
		FeeAssignment: FeeAssignment{
			ProjectID:     req.ProjectID,
			PersonnelName: req.PersonnelName,
			CoverageFrom:  req.CoverageFrom, CoverageTo: req.CoverageTo,
		},
		ExcludeFormID: req.ExcludeFormID,
	}
	if req.FeeType == FeeTypePackaged {
		candidate.PackagedFee = req.PackagedFee
	} else {
		candidate.DailyFees = req.DailyFees
	}

	duplicates := CheckCoverage(candidate, existing)
	return &DuplicateCheckResult{HasDuplicates: len(duplicates) > 0, Duplicates: duplicates}, nil
}

// LoadOverlappingAssignments loads fee rows of non-draft forms of projectId
// whose coverage overlaps [from, to], excluding excludeFormId. Row order is
// stable: ascending row id.
func LoadOverlappingAssignments(projectId types.ID, from, to common.Date, excludeFormId types.ID, s *session.Session) ([]FeeAssignment, error) {
	return loadOverlappingAssignments(persistence.ActiveDataSourceManager.GormDB(s.Context), projectId, from, to, excludeFormId)
}

func loadOverlappingAssignments(db *gorm.DB, projectId types.ID, from, to common.Date, excludeFormId types.ID) ([]FeeAssignment, error) {
	query := db.Where("project_id = ? AND state IN (?)", projectId, coverageStates)
	if !excludeFormId.IsZero() {
		query = query.Where("id != ?", excludeFormId)
	}
	var forms []ClearanceForm
	if err := query.Order("id ASC").Find(&forms).Error; err != nil {
		return nil, err
	}
	if len(forms) == 0 {
		return []FeeAssignment{}, nil
	}

	formIndex := map[types.ID]*ClearanceForm{}
	formIds := make([]types.ID, 0, len(forms))
	for i := range forms {
		formIndex[forms[i].ID] = &forms[i]
		formIds = append(formIds, forms[i].ID)
	}

	projectName := ""
	if names, err := namespace.QueryProjectNames([]types.ID{projectId}); err == nil {
		projectName = names[projectId]
	}

	var fees []PersonnelFee
	if err := db.Where("form_id IN (?) AND coverage_from <= ? AND coverage_to >= ?", formIds, to, from).
		Order("id ASC").Find(&fees).Error; err != nil {
		return nil, err
	}

	assignments := make([]FeeAssignment, 0, len(fees))
	for i := range fees {
		row := &fees[i]
		form := formIndex[row.FormID]
		if form == nil {
			continue
		}
		assignments = append(assignments, FeeAssignment{
			FormID: form.ID, FormReference: form.Identifier,
			ProjectID: form.ProjectID, ProjectName: projectName,
			PersonnelName: row.PersonnelName,
			CoverageFrom:  row.CoverageFrom, CoverageTo: row.CoverageTo,
			PackagedFee: row.PackagedFee, DailyFees: row.WeekdayFees(),
		})
	}
	return assignments, nil
}

func findFormAndCheckPerms(tx *gorm.DB, id types.ID, s *session.Session) (*ClearanceForm, error) {
	form := ClearanceForm{}
	if err := tx.Where(&ClearanceForm{ID: id}).First(&form).Error; err != nil {
		return nil, err
	}
	if !s.Perms.HasRoleSuffix("_" + form.ProjectID.String()) {
		return nil, bizerror.ErrForbidden
	}
	return &form, nil
}

func validateCoverageRanges(rows []PersonnelFeeCreation) error {
	for i := range rows {
		if rows[i].CoverageFrom.After(rows[i].CoverageTo.Time) {
			return &bizerror.ErrBadParam{Cause: errors.New("coverageFrom is after coverageTo for '" + rows[i].PersonnelName + "'")}
		}
	}
	return nil
}

func createPersonnelRows(tx *gorm.DB, formId types.ID, rows []PersonnelFeeCreation, s *session.Session) ([]PersonnelFee, error) {
	personnel := make([]PersonnelFee, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		name, err := directory.ResolveNameFunc(r.PersonnelName, s)
		if err != nil {
			return nil, err
		}
		fee := PersonnelFee{
			ID: idgen.NextID(formIdWorker), FormID: formId,
			PersonnelName: name,
			CoverageFrom:  r.CoverageFrom, CoverageTo: r.CoverageTo,
			PackagedFee: r.PackagedFee,
			MonFee:      r.DailyFees.Mon, TueFee: r.DailyFees.Tue, WedFee: r.DailyFees.Wed,
			ThuFee: r.DailyFees.Thu, FriFee: r.DailyFees.Fri, SatFee: r.DailyFees.Sat, SunFee: r.DailyFees.Sun,
		}
		if err := tx.Create(fee).Error; err != nil {
			return nil, err
		}
		personnel = append(personnel, fee)
	}
	return personnel, nil
}
