package common

import (
	"errors"
	"pdis/bizerror"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
)

func BindingPathID(c *gin.Context) (types.ID, error) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		return 0, &bizerror.ErrBadParam{Cause: errors.New("invalid id '" + c.Param("id") + "'")}
	}
	return id, nil
}
