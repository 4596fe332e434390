package calendar

import (
	"errors"
	"pdis/bizerror"
	"pdis/idgen"
	"pdis/persistence"
	"pdis/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	eventIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateEventFunc = CreateEvent
	UpdateEventFunc = UpdateEvent
	QueryEventsFunc = QueryEvents
	DeleteEventFunc = DeleteEvent
)

func CreateEvent(c *EventCreation, s *session.Session) (*CalendarEvent, error) {
	if !c.ProjectID.IsZero() && !s.Perms.HasRoleSuffix("_"+c.ProjectID.String()) {
		return nil, bizerror.ErrForbidden
	}
	if c.EndTime.Time().Before(c.StartTime.Time()) {
		return nil, &bizerror.ErrBadParam{Cause: errors.New("endTime is before startTime")}
	}

	e := CalendarEvent{
		ID: idgen.NextID(eventIdWorker), ProjectID: c.ProjectID,
		Title: c.Title, Location: c.Location,
		StartTime: c.StartTime, EndTime: c.EndTime, AllDay: c.AllDay,
		CreateTime: types.CurrentTimestamp(), CreatorID: s.Identity.ID, CreatorName: s.Identity.Nickname,
	}
	if err := persistence.ActiveDataSourceManager.GormDB(s.Context).Create(e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func UpdateEvent(id types.ID, u *EventUpdating, s *session.Session) (*CalendarEvent, error) {
	if u.EndTime.Time().Before(u.StartTime.Time()) {
		return nil, &bizerror.ErrBadParam{Cause: errors.New("endTime is before startTime")}
	}

	var updated *CalendarEvent
	txErr := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		e := CalendarEvent{}
		if err := tx.Where(&CalendarEvent{ID: id}).First(&e).Error; err != nil {
			return err
		}
		if err := checkEditPerm(&e, s); err != nil {
			return err
		}

		changes := map[string]interface{}{
			"title": u.Title, "location": u.Location,
			"start_time": u.StartTime, "end_time": u.EndTime, "all_day": u.AllDay,
		}
		if err := tx.Model(&CalendarEvent{ID: e.ID}).Update(changes).Error; err != nil {
			return err
		}

		e.Title, e.Location = u.Title, u.Location
		e.StartTime, e.EndTime, e.AllDay = u.StartTime, u.EndTime, u.AllDay
		updated = &e
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return updated, nil
}

// QueryEvents lists events overlapping the inclusive query window. Project
// events of projects the session can not view are filtered out; events
// without a project are visible to every signed-in user.
func QueryEvents(q *EventQuery, s *session.Session) ([]CalendarEvent, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	query := db.Where("start_time <= ? AND end_time >= ?", q.To, q.From)
	if !q.ProjectID.IsZero() {
		if !s.Perms.HasProjectViewPerm(q.ProjectID) {
			return []CalendarEvent{}, nil
		}
		query = query.Where(&CalendarEvent{ProjectID: q.ProjectID})
	}

	var events []CalendarEvent
	if err := query.Order("start_time ASC, id ASC").Find(&events).Error; err != nil {
		return nil, err
	}

	visible := make([]CalendarEvent, 0, len(events))
	for i := range events {
		if events[i].ProjectID.IsZero() || s.Perms.HasProjectViewPerm(events[i].ProjectID) {
			visible = append(visible, events[i])
		}
	}
	return visible, nil
}

func DeleteEvent(id types.ID, s *session.Session) error {
	return persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		e := CalendarEvent{}
		if err := tx.Where(&CalendarEvent{ID: id}).First(&e).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if err := checkEditPerm(&e, s); err != nil {
			return err
		}
		return tx.Delete(&CalendarEvent{}, &CalendarEvent{ID: e.ID}).Error
	})
}

func checkEditPerm(e *CalendarEvent, s *session.Session) error {
	if e.ProjectID.IsZero() {
		if e.CreatorID != s.Identity.ID {
			return bizerror.ErrForbidden
		}
		return nil
	}
	if !s.Perms.HasRoleSuffix("_" + e.ProjectID.String()) {
		return bizerror.ErrForbidden
	}
	return nil
}
