package vehicle

import (
	"github.com/fundwit/go-commons/types"
)

type RequisitionState string

const (
	RequisitionStatePending  = RequisitionState("PENDING")
	RequisitionStateApproved = RequisitionState("APPROVED")
	RequisitionStateRejected = RequisitionState("REJECTED")
	RequisitionStateReleased = RequisitionState("RELEASED")
)

// VehicleRequisition is a request for a company vehicle on behalf of a
// project.
type VehicleRequisition struct {
	ID        types.ID `json:"id" gorm:"primary_key"`
	ProjectID types.ID `json:"projectId" sql:"type:BIGINT UNSIGNED NOT NULL"`

	Purpose     string `json:"purpose" sql:"type:TEXT"`
	Passengers  int    `json:"passengers"`
	Destination string `json:"destination"`

	DepartTime types.Timestamp `json:"departTime" sql:"type:DATETIME(6) NOT NULL"`
	ReturnTime types.Timestamp `json:"returnTime" sql:"type:DATETIME(6) NOT NULL"`

	State RequisitionState `json:"state"`

	CreateTime  types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
	CreatorID   types.ID        `json:"creatorId"`
	CreatorName string          `json:"creatorName"`
}

type RequisitionCreation struct {
	ProjectID types.ID `json:"projectId" binding:"required"`

	Purpose     string `json:"purpose" binding:"required"`
	Passengers  int    `json:"passengers" binding:"required,gt=0"`
	Destination string `json:"destination" binding:"required"`

	DepartTime types.Timestamp `json:"departTime" binding:"required"`
	ReturnTime types.Timestamp `json:"returnTime" binding:"required"`
}

type RequisitionUpdating struct {
	Purpose     string `json:"purpose" binding:"required"`
	Passengers  int    `json:"passengers" binding:"required,gt=0"`
	Destination string `json:"destination" binding:"required"`

	DepartTime types.Timestamp `json:"departTime" binding:"required"`
	ReturnTime types.Timestamp `json:"returnTime" binding:"required"`
}

type RequisitionQuery struct {
	ProjectID types.ID           `form:"projectId" binding:"required"`
	States    []RequisitionState `form:"state"`
}

type RequisitionDecision struct {
	Action string `json:"action" binding:"required,oneof=approve reject release"`
}
