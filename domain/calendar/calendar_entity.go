package calendar

import (
	"github.com/fundwit/go-commons/types"
)

// CalendarEvent is a scheduled portal event, optionally attached to a
// project.
type CalendarEvent struct {
	ID        types.ID `json:"id" gorm:"primary_key"`
	ProjectID types.ID `json:"projectId"`

	Title    string `json:"title"`
	Location string `json:"location"`

	StartTime types.Timestamp `json:"startTime" sql:"type:DATETIME(6) NOT NULL"`
	EndTime   types.Timestamp `json:"endTime" sql:"type:DATETIME(6) NOT NULL"`
	AllDay    bool            `json:"allDay"`

	CreateTime  types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
	CreatorID   types.ID        `json:"creatorId"`
	CreatorName string          `json:"creatorName"`
}

type EventCreation struct {
	ProjectID types.ID `json:"projectId"`

	Title    string `json:"title" binding:"required"`
	Location string `json:"location"`

	StartTime types.Timestamp `json:"startTime" binding:"required"`
	EndTime   types.Timestamp `json:"endTime" binding:"required"`
	AllDay    bool            `json:"allDay"`
}

type EventUpdating struct {
	Title    string `json:"title" binding:"required"`
	Location string `json:"location"`

	StartTime types.Timestamp `json:"startTime" binding:"required"`
	EndTime   types.Timestamp `json:"endTime" binding:"required"`
	AllDay    bool            `json:"allDay"`
}

// EventQuery selects events whose [startTime, endTime] span overlaps the
// inclusive [from, to] window.
type EventQuery struct {
	ProjectID types.ID `form:"projectId"`

	From types.Timestamp `form:"from" binding:"required"`
	To   types.Timestamp `form:"to" binding:"required"`
}
