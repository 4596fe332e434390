package avatar

import (
	"net/http"
	"pdis/common"
	"pdis/session"

	"github.com/gin-gonic/gin"
)

var (
	PathAccountAvatars = "/v1/account-avatars"

	DetailAvatarFunc = DetailAvatar
	CreateAvatarFunc = CreateAvatar
)

func RegisterAvatarAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathAccountAvatars, middleWares...)
	g.GET(":id", handleGetAvatar)
	g.POST(":id", handleCreateAvatar)
}

func handleGetAvatar(c *gin.Context) {
	id, err := common.BindingPathID(c)
	if err != nil {
		panic(err)
	}

	bytes, err := DetailAvatarFunc(id, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}

	c.Data(http.StatusOK, "image/png", bytes)
}

func handleCreateAvatar(c *gin.Context) {
	id, err := common.BindingPathID(c)
	if err != nil {
		panic(err)
	}

	file, err := c.FormFile("file")
	if err != nil {
		panic(err)
	}
	src, err := file.Open()
	if err != nil {
		panic(err)
	}
	defer src.Close()

	if err := CreateAvatarFunc(id, src, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}

	c.JSON(http.StatusOK, gin.H{})
}
