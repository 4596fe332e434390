package namespace

import (
	"net/http"
	"pdis/bizerror"
	"pdis/domain"
	"pdis/session"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var (
	PathProjectMembers = "/v1/project-members"
)

func RegisterProjectMembersRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	members := r.Group(PathProjectMembers, middleWares...)
	members.GET("", handleQueryProjectMembers)
	members.POST("", handleCreateProjectMember)
	members.DELETE("", handleDeleteProjectMember)
}

func handleQueryProjectMembers(c *gin.Context) {
	query := domain.ProjectMemberQuery{}
	if err := c.MustBindWith(&query, binding.Query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	result, err := QueryProjectMemberDetailsFunc(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, result)
}

func handleCreateProjectMember(c *gin.Context) {
	payload := domain.ProjectMemberCreation{}
	if err := c.ShouldBindBodyWith(&payload, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := CreateProjectMemberFunc(&payload, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusOK)
}

func handleDeleteProjectMember(c *gin.Context) {
	payload := domain.ProjectMemberDeletion{}
	if err := c.MustBindWith(&payload, binding.Query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := DeleteProjectMemberFunc(&payload, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.AbortWithStatus(http.StatusNoContent)
}
