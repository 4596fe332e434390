package clearance_test

import (
	"context"
	"pdis/bizerror"
	"pdis/domain"
	"pdis/domain/clearance"
	"pdis/domain/directory"
	"pdis/event"
	"pdis/persistence"
	"pdis/session"
	"pdis/testinfra"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
)

func setup(t *testing.T, testDatabase **testinfra.TestDatabase) {
	db := testinfra.StartMysqlTestDatabase("pdis")
	assert.Nil(t, db.DS.GormDB(context.Background()).AutoMigrate(
		&domain.Project{}, &domain.ProjectMember{},
		&clearance.ClearanceForm{}, &clearance.PersonnelFee{},
		&event.EventRecord{}).Error)
	persistence.ActiveDataSourceManager = db.DS
	*testDatabase = db

	directory.ResolveNameFunc = func(name string, s *session.Session) (string, error) {
		return directory.CanonicalName(name), nil
	}

	assert.Nil(t, db.DS.GormDB(context.Background()).Create(&domain.Project{
		ID: 1, Identifier: "TES", Name: "project one", NextFormId: 1, Creator: 999}).Error)
}

func teardown(t *testing.T, testDatabase *testinfra.TestDatabase) {
	directory.ResolveNameFunc = directory.ResolveName
	if testDatabase != nil {
		testinfra.StopMysqlTestDatabase(testDatabase)
	}
}

func buildForm(t *testing.T, s *session.Session, rows ...clearance.PersonnelFeeCreation) *clearance.ClearanceFormDetail {
	detail, err := clearance.CreateClearanceForm(&clearance.FormCreation{ProjectID: 1, Personnel: rows}, s)
	assert.Nil(t, err)
	assert.NotNil(t, detail)
	return detail
}

func dailyRow(name string, from, to string, monday int64) clearance.PersonnelFeeCreation {
	return clearance.PersonnelFeeCreation{
		PersonnelName: name, CoverageFrom: date(from), CoverageTo: date(to),
		DailyFees: clearance.WeekdayFees{Mon: fee(monday)},
	}
}

func packagedRow(name string, from, to string, amount int64) clearance.PersonnelFeeCreation {
	return clearance.PersonnelFeeCreation{
		PersonnelName: name, CoverageFrom: date(from), CoverageTo: date(to),
		PackagedFee: fee(amount),
	}
}

func TestCreateClearanceForm(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should forbid creating for a project outside the session roles", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		detail, err := clearance.CreateClearanceForm(&clearance.FormCreation{ProjectID: 1,
			Personnel: []clearance.PersonnelFeeCreation{packagedRow("Dela Cruz, Juan", "2025-08-04", "2025-08-10", 5000)}},
			testinfra.BuildSession(100, domain.ProjectRoleManager+"_2"))
		Expect(detail).To(BeNil())
		Expect(err).To(Equal(bizerror.ErrForbidden))
	})

	t.Run("should reject inverted coverage ranges", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		_, err := clearance.CreateClearanceForm(&clearance.FormCreation{ProjectID: 1,
			Personnel: []clearance.PersonnelFeeCreation{packagedRow("Dela Cruz, Juan", "2025-08-10", "2025-08-04", 5000)}},
			testinfra.BuildSession(100, domain.ProjectRoleManager+"_1"))
		Expect(err).ToNot(BeNil())
		_, isBadParam := err.(*bizerror.ErrBadParam)
		Expect(isBadParam).To(BeTrue())
	})

	t.Run("should persist form with sequenced identifier and canonicalized rows", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		s := testinfra.BuildSession(100, domain.ProjectRoleManager+"_1")
		detail := buildForm(t, s, packagedRow("  Dela   Cruz, Juan ", "2025-08-04", "2025-08-10", 5000))
		Expect(detail.Identifier).To(Equal("TES-1"))
		Expect(detail.State).To(Equal(clearance.FormStateDraft))
		Expect(detail.ProjectName).To(Equal("project one"))
		Expect(detail.Personnel).To(HaveLen(1))
		Expect(detail.Personnel[0].PersonnelName).To(Equal("Dela Cruz, Juan"))

		second := buildForm(t, s, packagedRow("Reyes, Maria", "2025-09-01", "2025-09-30", 8000))
		Expect(second.Identifier).To(Equal("TES-2"))

		var forms []clearance.ClearanceForm
		Expect(persistence.ActiveDataSourceManager.GormDB(context.Background()).
			Order("id ASC").Find(&forms).Error).To(BeNil())
		Expect(forms).To(HaveLen(2))

		var events []event.EventRecord
		Expect(persistence.ActiveDataSourceManager.GormDB(context.Background()).
			Find(&events).Error).To(BeNil())
		Expect(len(events)).To(Equal(2))
		Expect(events[0].EventCategory).To(Equal(event.EventCategory(event.EventCategoryCreated)))
	})
}

func TestSubmitClearanceForm(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should submit a draft without conflicts", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		s := testinfra.BuildSession(100, domain.ProjectRoleManager+"_1")
		draft := buildForm(t, s, packagedRow("Dela Cruz, Juan", "2025-08-04", "2025-08-10", 5000))

		submitted, err := clearance.SubmitClearanceForm(draft.ID, s)
		Expect(err).To(BeNil())
		Expect(submitted.State).To(Equal(clearance.FormStateSubmitted))
		Expect(submitted.SubmitTime.Time().IsZero()).To(BeFalse())
	})

	t.Run("should refuse submitting a remark-requiring conflict without remark", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		s := testinfra.BuildSession(100, domain.ProjectRoleManager+"_1")
		first := buildForm(t, s, packagedRow("Dela Cruz, Juan", "2025-08-04", "2025-08-10", 5000))
		_, err := clearance.SubmitClearanceForm(first.ID, s)
		Expect(err).To(BeNil())

		second := buildForm(t, s, packagedRow("dela cruz, juan", "2025-08-08", "2025-08-20", 3000))
		_, err = clearance.SubmitClearanceForm(second.ID, s)
		Expect(err).ToNot(BeNil())
		remarkErr, ok := err.(*bizerror.ErrRemarkRequired)
		Expect(ok).To(BeTrue())
		conflicts, ok := remarkErr.Conflicts.([]clearance.ConflictReport)
		Expect(ok).To(BeTrue())
		Expect(conflicts).To(HaveLen(1))
		Expect(conflicts[0].Source.FormID).To(Equal(first.ID))

		// still a draft
		reloaded, err := clearance.DetailClearanceForm(second.ID, s)
		Expect(err).To(BeNil())
		Expect(reloaded.State).To(Equal(clearance.FormStateDraft))
	})

	t.Run("should submit a remark-requiring conflict when a remark is present", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		s := testinfra.BuildSession(100, domain.ProjectRoleManager+"_1")
		first := buildForm(t, s, packagedRow("Dela Cruz, Juan", "2025-08-04", "2025-08-10", 5000))
		_, err := clearance.SubmitClearanceForm(first.ID, s)
		Expect(err).To(BeNil())

		second, err := clearance.CreateClearanceForm(&clearance.FormCreation{ProjectID: 1,
			Remark: "continuation of the previous engagement",
			Personnel: []clearance.PersonnelFeeCreation{
				packagedRow("Dela Cruz, Juan", "2025-08-08", "2025-08-20", 3000)}}, s)
		Expect(err).To(BeNil())

		submitted, err := clearance.SubmitClearanceForm(second.ID, s)
		Expect(err).To(BeNil())
		Expect(submitted.State).To(Equal(clearance.FormStateSubmitted))
	})

	t.Run("should submit when conflicts are advisory only", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		s := testinfra.BuildSession(100, domain.ProjectRoleManager+"_1")
		first := buildForm(t, s, dailyRow("Dela Cruz, Juan", "2025-08-04", "2025-08-10", 300))
		_, err := clearance.SubmitClearanceForm(first.ID, s)
		Expect(err).To(BeNil())

		// packaged over daily existing does not require a remark
		second := buildForm(t, s, packagedRow("Dela Cruz, Juan", "2025-08-04", "2025-08-10", 5000))
		submitted, err := clearance.SubmitClearanceForm(second.ID, s)
		Expect(err).To(BeNil())
		Expect(submitted.State).To(Equal(clearance.FormStateSubmitted))
	})

	t.Run("should refuse submitting a non-draft form", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		s := testinfra.BuildSession(100, domain.ProjectRoleManager+"_1")
		draft := buildForm(t, s, packagedRow("Dela Cruz, Juan", "2025-08-04", "2025-08-10", 5000))
		_, err := clearance.SubmitClearanceForm(draft.ID, s)
		Expect(err).To(BeNil())

		_, err = clearance.SubmitClearanceForm(draft.ID, s)
		Expect(err).To(Equal(bizerror.ErrStateInvalid))
	})
}

func TestReviewClearanceForm(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should walk the review lifecycle", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		s := testinfra.BuildSession(100, domain.ProjectRoleManager+"_1")
		draft := buildForm(t, s, packagedRow("Dela Cruz, Juan", "2025-08-04", "2025-08-10", 5000))
		_, err := clearance.SubmitClearanceForm(draft.ID, s)
		Expect(err).To(BeNil())

		reviewing, err := clearance.ReviewClearanceForm(draft.ID, &clearance.FormReview{Action: "review"}, s)
		Expect(err).To(BeNil())
		Expect(reviewing.State).To(Equal(clearance.FormStateUnderReview))

		approved, err := clearance.ReviewClearanceForm(draft.ID, &clearance.FormReview{Action: "approve"}, s)
		Expect(err).To(BeNil())
		Expect(approved.State).To(Equal(clearance.FormStateApproved))
		Expect(approved.DecideTime.Time().IsZero()).To(BeFalse())

		_, err = clearance.ReviewClearanceForm(draft.ID, &clearance.FormReview{Action: "reject"}, s)
		Expect(err).To(Equal(bizerror.ErrStateInvalid))
	})

	t.Run("should forbid non-manager members to review", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		manager := testinfra.BuildSession(100, domain.ProjectRoleManager+"_1")
		draft := buildForm(t, manager, packagedRow("Dela Cruz, Juan", "2025-08-04", "2025-08-10", 5000))
		_, err := clearance.SubmitClearanceForm(draft.ID, manager)
		Expect(err).To(BeNil())

		_, err = clearance.ReviewClearanceForm(draft.ID, &clearance.FormReview{Action: "approve"},
			testinfra.BuildSession(200, domain.ProjectRoleCommon+"_1"))
		Expect(err).To(Equal(bizerror.ErrForbidden))
	})
}

func TestCheckDuplicates(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should reject inverted candidate ranges", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		_, err := clearance.CheckDuplicates(&clearance.DuplicateCheckRequest{
			PersonnelName: "Dela Cruz, Juan", ProjectID: 1,
			CoverageFrom: date("2025-08-10"), CoverageTo: date("2025-08-04"),
			FeeType: clearance.FeeTypePackaged, PackagedFee: fee(5000),
		}, testinfra.BuildSession(100, domain.ProjectRoleManager+"_1"))
		Expect(err).ToNot(BeNil())
		_, isBadParam := err.(*bizerror.ErrBadParam)
		Expect(isBadParam).To(BeTrue())
	})

	t.Run("should only see coverage of non-draft forms", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		s := testinfra.BuildSession(100, domain.ProjectRoleManager+"_1")
		form := buildForm(t, s, packagedRow("Dela Cruz, Juan", "2025-08-04", "2025-08-10", 5000))

		request := &clearance.DuplicateCheckRequest{
			PersonnelName: "DELA CRUZ, JUAN", ProjectID: 1,
			CoverageFrom: date("2025-08-08"), CoverageTo: date("2025-08-20"),
			FeeType: clearance.FeeTypePackaged, PackagedFee: fee(3000),
		}

		result, err := clearance.CheckDuplicates(request, s)
		Expect(err).To(BeNil())
		Expect(result.HasDuplicates).To(BeFalse())

		_, err = clearance.SubmitClearanceForm(form.ID, s)
		Expect(err).To(BeNil())

		result, err = clearance.CheckDuplicates(request, s)
		Expect(err).To(BeNil())
		Expect(result.HasDuplicates).To(BeTrue())
		Expect(result.Duplicates).To(HaveLen(1))
		Expect(result.Duplicates[0].Source.FormID).To(Equal(form.ID))
		Expect(result.Duplicates[0].Source.FormReference).To(Equal("TES-1"))
		Expect(result.Duplicates[0].Source.ProjectName).To(Equal("project one"))
		Expect(result.Duplicates[0].RequiresRemark).To(BeTrue())
	})

	t.Run("should suppress the excluded form when editing", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		s := testinfra.BuildSession(100, domain.ProjectRoleManager+"_1")
		form := buildForm(t, s, packagedRow("Dela Cruz, Juan", "2025-08-04", "2025-08-10", 5000))
		_, err := clearance.SubmitClearanceForm(form.ID, s)
		Expect(err).To(BeNil())

		result, err := clearance.CheckDuplicates(&clearance.DuplicateCheckRequest{
			PersonnelName: "Dela Cruz, Juan", ProjectID: 1,
			CoverageFrom: date("2025-08-04"), CoverageTo: date("2025-08-10"),
			FeeType: clearance.FeeTypePackaged, PackagedFee: fee(5000),
			ExcludeFormID: form.ID,
		}, s)
		Expect(err).To(BeNil())
		Expect(result.HasDuplicates).To(BeFalse())
		Expect(result.Duplicates).To(BeEmpty())
	})

	t.Run("should report daily records charged inside the window regardless of the candidate's weekdays", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		s := testinfra.BuildSession(100, domain.ProjectRoleManager+"_1")
		form := buildForm(t, s, dailyRow("Dela Cruz, Juan", "2025-08-04", "2025-08-10", 300))
		_, err := clearance.SubmitClearanceForm(form.ID, s)
		Expect(err).To(BeNil())

		// candidate charges Fridays only, but the existing record charges
		// Monday 2025-08-04 inside the shared range
		result, err := clearance.CheckDuplicates(&clearance.DuplicateCheckRequest{
			PersonnelName: "Dela Cruz, Juan", ProjectID: 1,
			CoverageFrom: date("2025-08-04"), CoverageTo: date("2025-08-10"),
			FeeType: clearance.FeeTypeDaily, DailyFees: clearance.WeekdayFees{Fri: fee(400)},
		}, s)
		Expect(err).To(BeNil())
		Expect(result.HasDuplicates).To(BeTrue())
		Expect(result.Duplicates).To(HaveLen(1))
		Expect(result.Duplicates[0].OverlappingDays).To(Equal([]string{"Monday"}))
		Expect(result.Duplicates[0].RequiresRemark).To(BeTrue())
	})

	t.Run("should not report daily records never charged inside the window", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		s := testinfra.BuildSession(100, domain.ProjectRoleManager+"_1")
		form := buildForm(t, s, dailyRow("Dela Cruz, Juan", "2025-08-04", "2025-08-10", 300))
		_, err := clearance.SubmitClearanceForm(form.ID, s)
		Expect(err).To(BeNil())

		// 2025-08-05..08 is Tuesday through Friday, so the existing
		// Monday-only record is never charged inside the shared range
		result, err := clearance.CheckDuplicates(&clearance.DuplicateCheckRequest{
			PersonnelName: "Dela Cruz, Juan", ProjectID: 1,
			CoverageFrom: date("2025-08-05"), CoverageTo: date("2025-08-08"),
			FeeType: clearance.FeeTypeDaily, DailyFees: clearance.WeekdayFees{Fri: fee(400)},
		}, s)
		Expect(err).To(BeNil())
		Expect(result.HasDuplicates).To(BeFalse())
	})

	t.Run("should forbid checking projects outside the session", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		_, err := clearance.CheckDuplicates(&clearance.DuplicateCheckRequest{
			PersonnelName: "Dela Cruz, Juan", ProjectID: 1,
			CoverageFrom: date("2025-08-04"), CoverageTo: date("2025-08-10"),
			FeeType: clearance.FeeTypePackaged, PackagedFee: fee(5000),
		}, testinfra.BuildSession(100, domain.ProjectRoleManager+"_2"))
		Expect(err).To(Equal(bizerror.ErrForbidden))
	})
}

func TestDeleteClearanceForm(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should delete drafts with their rows and tolerate missing forms", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		s := testinfra.BuildSession(100, domain.ProjectRoleManager+"_1")
		draft := buildForm(t, s, packagedRow("Dela Cruz, Juan", "2025-08-04", "2025-08-10", 5000))

		Expect(clearance.DeleteClearanceForm(draft.ID, s)).To(BeNil())
		Expect(clearance.DeleteClearanceForm(draft.ID, s)).To(BeNil())

		var fees []clearance.PersonnelFee
		Expect(persistence.ActiveDataSourceManager.GormDB(context.Background()).Find(&fees).Error).To(BeNil())
		Expect(fees).To(BeEmpty())
	})

	t.Run("should refuse deleting submitted forms", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		s := testinfra.BuildSession(100, domain.ProjectRoleManager+"_1")
		draft := buildForm(t, s, packagedRow("Dela Cruz, Juan", "2025-08-04", "2025-08-10", 5000))
		_, err := clearance.SubmitClearanceForm(draft.ID, s)
		Expect(err).To(BeNil())

		Expect(clearance.DeleteClearanceForm(draft.ID, s)).To(Equal(bizerror.ErrStateInvalid))
	})
}

func TestQueryClearanceForms(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should list project forms filtered by state", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		s := testinfra.BuildSession(100, domain.ProjectRoleManager+"_1")
		first := buildForm(t, s, packagedRow("Dela Cruz, Juan", "2025-08-04", "2025-08-10", 5000))
		buildForm(t, s, packagedRow("Reyes, Maria", "2025-09-01", "2025-09-30", 8000))
		_, err := clearance.SubmitClearanceForm(first.ID, s)
		Expect(err).To(BeNil())

		forms, err := clearance.QueryClearanceForms(&clearance.FormQuery{ProjectID: 1}, s)
		Expect(err).To(BeNil())
		Expect(forms).To(HaveLen(2))

		forms, err = clearance.QueryClearanceForms(&clearance.FormQuery{ProjectID: 1,
			States: []clearance.FormState{clearance.FormStateSubmitted}}, s)
		Expect(err).To(BeNil())
		Expect(forms).To(HaveLen(1))
		Expect(forms[0].ID).To(Equal(first.ID))
	})

	t.Run("should hide projects outside the session", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		s := testinfra.BuildSession(100, domain.ProjectRoleManager+"_1")
		buildForm(t, s, packagedRow("Dela Cruz, Juan", "2025-08-04", "2025-08-10", 5000))

		forms, err := clearance.QueryClearanceForms(&clearance.FormQuery{ProjectID: 1},
			testinfra.BuildSession(200, domain.ProjectRoleManager+"_2"))
		Expect(err).To(BeNil())
		Expect(forms).To(BeEmpty())
	})
}

func TestUpdateClearanceForm(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should replace rows and remark on drafts only", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		s := testinfra.BuildSession(100, domain.ProjectRoleManager+"_1")
		draft := buildForm(t, s, packagedRow("Dela Cruz, Juan", "2025-08-04", "2025-08-10", 5000))

		updated, err := clearance.UpdateClearanceForm(draft.ID, &clearance.FormUpdating{
			Remark: "re-scoped",
			Personnel: []clearance.PersonnelFeeCreation{
				dailyRow("Reyes, Maria", "2025-09-01", "2025-09-30", 700)}}, s)
		Expect(err).To(BeNil())
		Expect(updated.Remark).To(Equal("re-scoped"))
		Expect(updated.Personnel).To(HaveLen(1))
		Expect(updated.Personnel[0].PersonnelName).To(Equal("Reyes, Maria"))

		_, err = clearance.SubmitClearanceForm(draft.ID, s)
		Expect(err).To(BeNil())

		_, err = clearance.UpdateClearanceForm(draft.ID, &clearance.FormUpdating{
			Personnel: []clearance.PersonnelFeeCreation{
				dailyRow("Reyes, Maria", "2025-09-01", "2025-09-30", 700)}}, s)
		Expect(err).To(Equal(bizerror.ErrStateInvalid))
	})
}
