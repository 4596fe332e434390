package calendarrest

import (
	"net/http"
	"pdis/bizerror"
	"pdis/common"
	"pdis/domain/calendar"
	"pdis/misc"
	"pdis/session"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var PathCalendarEvents = "/v1/calendar-events"

func RegisterCalendarRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathCalendarEvents, middleWares...)
	g.GET("", handleQuery)
	g.POST("", handleCreate)
	g.PUT(":id", handleUpdate)
	g.DELETE(":id", handleDelete)
}

func handleQuery(c *gin.Context) {
	query := calendar.EventQuery{}
	if err := c.MustBindWith(&query, binding.Query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	events, err := calendar.QueryEventsFunc(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, &misc.PagedBody{List: events, Total: uint64(len(events))})
}

func handleCreate(c *gin.Context) {
	creation := calendar.EventCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	event, err := calendar.CreateEventFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, event)
}

func handleUpdate(c *gin.Context) {
	id, err := common.BindingPathID(c)
	if err != nil {
		panic(err)
	}

	updating := calendar.EventUpdating{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	event, err := calendar.UpdateEventFunc(id, &updating, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, event)
}

func handleDelete(c *gin.Context) {
	id, err := common.BindingPathID(c)
	if err != nil {
		panic(err)
	}

	if err := calendar.DeleteEventFunc(id, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.AbortWithStatus(http.StatusNoContent)
}
