package bizerror

import (
	"errors"
	"net/http"
)

var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrInvalidArguments = errors.New("invalid arguments")

	ErrStateInvalid           = errors.New("lifecycle state is invalid for this action")
	ErrProjectMemberSelfGrant = errors.New("project members can not grant for themselves")
)

type BizError interface {
	Respond() *BizErrorDetail
}

type BizErrorDetail struct {
	Status  int
	Code    string
	Message string

	Data  interface{}
	Cause error
}

type ErrBadParam struct {
	Cause error
}

func (e *ErrBadParam) Unwrap() error {
	return e.Cause
}
func (e *ErrBadParam) Error() string {
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return "common.bad_param"
}
func (e *ErrBadParam) Respond() *BizErrorDetail {
	message := "common.bad_param"
	if e.Cause != nil {
		message = e.Cause.Error()
	}
	return &BizErrorDetail{Status: http.StatusBadRequest, Code: "common.bad_param", Message: message, Data: nil}
}

// ErrRemarkRequired blocks a clearance form submission until a justification
// remark is supplied. It carries the conflict reports for client rendering.
type ErrRemarkRequired struct {
	Conflicts interface{}
}

func (e *ErrRemarkRequired) Error() string {
	return "clearance.remark_required"
}
func (e *ErrRemarkRequired) Respond() *BizErrorDetail {
	return &BizErrorDetail{Status: http.StatusConflict, Code: "clearance.remark_required",
		Message: "a justification remark is required for overlapping fee coverage", Data: e.Conflicts}
}
