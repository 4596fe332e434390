package directoryrest

import (
	"net/http"
	"pdis/bizerror"
	"pdis/common"
	"pdis/domain/directory"
	"pdis/misc"
	"pdis/session"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"golang.org/x/time/rate"
)

var (
	PathDirectoryEntries      = "/v1/directory-entries"
	PathDirectoryIndexRequest = "/v1/directory-index-requests"
)

func RegisterDirectoryRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathDirectoryEntries, middleWares...)
	g.GET("", handleSearch)
	g.POST("", handleCreate)
	g.GET(":id", handleDetail)
	g.PUT(":id", handleUpdate)
	g.DELETE(":id", handleDelete)

	i := r.Group(PathDirectoryIndexRequest, middleWares...)
	i.POST("", handleReindex)
}

func handleSearch(c *gin.Context) {
	query := directory.EntryQuery{}
	if err := c.MustBindWith(&query, binding.Query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	entries, err := directory.SearchEntriesFunc(query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, &misc.PagedBody{List: entries, Total: uint64(len(entries))})
}

func handleCreate(c *gin.Context) {
	creation := directory.EntryCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	entry, err := directory.CreateEntryFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, entry)
}

func handleDetail(c *gin.Context) {
	id, err := common.BindingPathID(c)
	if err != nil {
		panic(err)
	}

	entry, err := directory.DetailEntryFunc(id, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, entry)
}

func handleUpdate(c *gin.Context) {
	id, err := common.BindingPathID(c)
	if err != nil {
		panic(err)
	}

	updating := directory.EntryUpdating{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	entry, err := directory.UpdateEntryFunc(id, &updating, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, entry)
}

func handleDelete(c *gin.Context) {
	id, err := common.BindingPathID(c)
	if err != nil {
		panic(err)
	}

	if err := directory.DeleteEntryFunc(id, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.AbortWithStatus(http.StatusNoContent)
}

// reindexLimiter throttles full directory reindex requests.
var reindexLimiter = rate.NewLimiter(rate.Every(10*time.Second), 1)

func handleReindex(c *gin.Context) {
	if !reindexLimiter.Allow() {
		c.JSON(http.StatusOK, gin.H{"result": "request rate limited"})
		return
	}

	indexed, err := directory.ReindexEntriesFunc(session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, gin.H{"result": "finished", "indexed": indexed})
}
