package vehiclerest

import (
	"net/http"
	"pdis/bizerror"
	"pdis/common"
	"pdis/domain/vehicle"
	"pdis/misc"
	"pdis/session"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var PathVehicleRequisitions = "/v1/vehicle-requisitions"

func RegisterVehicleRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathVehicleRequisitions, middleWares...)
	g.GET("", handleQuery)
	g.POST("", handleCreate)
	g.GET(":id", handleDetail)
	g.PUT(":id", handleUpdate)
	g.DELETE(":id", handleDelete)
	g.POST(":id/decisions", handleDecide)
}

func handleQuery(c *gin.Context) {
	query := vehicle.RequisitionQuery{}
	if err := c.MustBindWith(&query, binding.Query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	requisitions, err := vehicle.QueryRequisitionsFunc(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, &misc.PagedBody{List: requisitions, Total: uint64(len(requisitions))})
}

func handleCreate(c *gin.Context) {
	creation := vehicle.RequisitionCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	requisition, err := vehicle.CreateRequisitionFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, requisition)
}

func handleDetail(c *gin.Context) {
	id, err := common.BindingPathID(c)
	if err != nil {
		panic(err)
	}

	requisition, err := vehicle.DetailRequisitionFunc(id, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, requisition)
}

func handleUpdate(c *gin.Context) {
	id, err := common.BindingPathID(c)
	if err != nil {
		panic(err)
	}

	updating := vehicle.RequisitionUpdating{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	requisition, err := vehicle.UpdateRequisitionFunc(id, &updating, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, requisition)
}

func handleDelete(c *gin.Context) {
	id, err := common.BindingPathID(c)
	if err != nil {
		panic(err)
	}

	if err := vehicle.DeleteRequisitionFunc(id, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.AbortWithStatus(http.StatusNoContent)
}

func handleDecide(c *gin.Context) {
	id, err := common.BindingPathID(c)
	if err != nil {
		panic(err)
	}

	decision := vehicle.RequisitionDecision{}
	if err := c.ShouldBindBodyWith(&decision, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	requisition, err := vehicle.DecideRequisitionFunc(id, &decision, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, requisition)
}
