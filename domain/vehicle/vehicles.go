package vehicle

import (
	"errors"
	"pdis/bizerror"
	"pdis/domain"
	"pdis/event"
	"pdis/idgen"
	"pdis/persistence"
	"pdis/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	requisitionIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateRequisitionFunc = CreateRequisition
	UpdateRequisitionFunc = UpdateRequisition
	QueryRequisitionsFunc = QueryRequisitions
	DetailRequisitionFunc = DetailRequisition
	DeleteRequisitionFunc = DeleteRequisition
	DecideRequisitionFunc = DecideRequisition
)

const requisitionSourceType = "vehicle_requisition"

func CreateRequisition(c *RequisitionCreation, s *session.Session) (*VehicleRequisition, error) {
	if !s.Perms.HasRoleSuffix("_" + c.ProjectID.String()) {
		return nil, bizerror.ErrForbidden
	}
	if c.ReturnTime.Time().Before(c.DepartTime.Time()) {
		return nil, &bizerror.ErrBadParam{Cause: errors.New("returnTime is before departTime")}
	}

	r := VehicleRequisition{
		ID: idgen.NextID(requisitionIdWorker), ProjectID: c.ProjectID,
		Purpose: c.Purpose, Passengers: c.Passengers, Destination: c.Destination,
		DepartTime: c.DepartTime, ReturnTime: c.ReturnTime,
		State:      RequisitionStatePending,
		CreateTime: types.CurrentTimestamp(), CreatorID: s.Identity.ID, CreatorName: s.Identity.Nickname,
	}

	var ev *event.EventRecord
	txErr := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(r).Error; err != nil {
			return err
		}
		var err error
		ev, err = event.CreateEvent(requisitionSourceType, r.ID, r.Purpose, event.EventCategoryCreated, nil, &s.Identity, tx)
		return err
	})
	if txErr != nil {
		return nil, txErr
	}

	if event.InvokeHandlersFunc != nil {
		event.InvokeHandlersFunc(ev)
	}
	return &r, nil
}

func UpdateRequisition(id types.ID, u *RequisitionUpdating, s *session.Session) (*VehicleRequisition, error) {
	if u.ReturnTime.Time().Before(u.DepartTime.Time()) {
		return nil, &bizerror.ErrBadParam{Cause: errors.New("returnTime is before departTime")}
	}

	var updated *VehicleRequisition
	txErr := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		r := VehicleRequisition{}
		if err := tx.Where(&VehicleRequisition{ID: id}).First(&r).Error; err != nil {
			return err
		}
		if !s.Perms.HasRoleSuffix("_" + r.ProjectID.String()) {
			return bizerror.ErrForbidden
		}
		if r.State != RequisitionStatePending {
			return bizerror.ErrStateInvalid
		}

		changes := map[string]interface{}{
			"purpose": u.Purpose, "passengers": u.Passengers, "destination": u.Destination,
			"depart_time": u.DepartTime, "return_time": u.ReturnTime,
		}
		if err := tx.Model(&VehicleRequisition{ID: r.ID}).Update(changes).Error; err != nil {
			return err
		}

		r.Purpose, r.Passengers, r.Destination = u.Purpose, u.Passengers, u.Destination
		r.DepartTime, r.ReturnTime = u.DepartTime, u.ReturnTime
		updated = &r
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return updated, nil
}

func QueryRequisitions(q *RequisitionQuery, s *session.Session) ([]VehicleRequisition, error) {
	if !s.Perms.HasProjectViewPerm(q.ProjectID) {
		return []VehicleRequisition{}, nil
	}

	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	query := db.Where(&VehicleRequisition{ProjectID: q.ProjectID})
	if len(q.States) > 0 {
		query = query.Where("state IN (?)", q.States)
	}

	var requisitions []VehicleRequisition
	if err := query.Order("id ASC").Find(&requisitions).Error; err != nil {
		return nil, err
	}
	return requisitions, nil
}

func DetailRequisition(id types.ID, s *session.Session) (*VehicleRequisition, error) {
	r := VehicleRequisition{}
	if err := persistence.ActiveDataSourceManager.GormDB(s.Context).
		Where(&VehicleRequisition{ID: id}).First(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerror.ErrNotFound
		}
		return nil, err
	}
	if !s.Perms.HasProjectViewPerm(r.ProjectID) {
		return nil, bizerror.ErrForbidden
	}
	return &r, nil
}

func DeleteRequisition(id types.ID, s *session.Session) error {
	return persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		r := VehicleRequisition{}
		if err := tx.Where(&VehicleRequisition{ID: id}).First(&r).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if !s.Perms.HasRoleSuffix("_" + r.ProjectID.String()) {
			return bizerror.ErrForbidden
		}
		if r.State != RequisitionStatePending {
			return bizerror.ErrStateInvalid
		}

		if err := tx.Delete(&VehicleRequisition{}, &VehicleRequisition{ID: r.ID}).Error; err != nil {
			return err
		}
		_, err := event.CreateEvent(requisitionSourceType, r.ID, r.Purpose, event.EventCategoryDeleted, nil, &s.Identity, tx)
		return err
	})
}

var decisionTransitions = map[string]struct {
	from RequisitionState
	to   RequisitionState
}{
	"approve": {from: RequisitionStatePending, to: RequisitionStateApproved},
	"reject":  {from: RequisitionStatePending, to: RequisitionStateRejected},
	"release": {from: RequisitionStateApproved, to: RequisitionStateReleased},
}

// DecideRequisition moves a requisition through its approval lifecycle.
// Only project managers decide.
func DecideRequisition(id types.ID, d *RequisitionDecision, s *session.Session) (*VehicleRequisition, error) {
	transition, found := decisionTransitions[d.Action]
	if !found {
		return nil, bizerror.ErrInvalidArguments
	}

	var decided *VehicleRequisition
	var ev *event.EventRecord
	txErr := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		r := VehicleRequisition{}
		if err := tx.Where(&VehicleRequisition{ID: id}).First(&r).Error; err != nil {
			return err
		}
		if !s.Perms.HasRole(domain.ProjectRoleManager + "_" + r.ProjectID.String()) {
			return bizerror.ErrForbidden
		}
		if r.State != transition.from {
			return bizerror.ErrStateInvalid
		}

		if err := tx.Model(&VehicleRequisition{ID: r.ID}).
			Where(&VehicleRequisition{ID: r.ID, State: transition.from}).
			Update(&VehicleRequisition{State: transition.to}).Error; err != nil {
			return err
		}

		var err error
		ev, err = event.CreateEvent(requisitionSourceType, r.ID, r.Purpose, event.EventCategoryStateTransited,
			[]event.UpdatedProperty{{PropertyName: "state", OldValue: string(transition.from), NewValue: string(transition.to)}},
			&s.Identity, tx)
		if err != nil {
			return err
		}

		r.State = transition.to
		decided = &r
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	if event.InvokeHandlersFunc != nil {
		event.InvokeHandlersFunc(ev)
	}
	return decided, nil
}
