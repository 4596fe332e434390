package budgetrest

import (
	"net/http"
	"pdis/bizerror"
	"pdis/common"
	"pdis/domain/budget"
	"pdis/misc"
	"pdis/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var (
	PathBudgetLines   = "/v1/budget-lines"
	PathBudgetSummary = "/v1/budget-summary"
)

func RegisterBudgetRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathBudgetLines, middleWares...)
	g.GET("", handleQuery)
	g.POST("", handleCreate)
	g.PUT(":id", handleUpdate)
	g.DELETE(":id", handleDelete)

	s := r.Group(PathBudgetSummary, middleWares...)
	s.GET("", handleSummary)
}

func handleQuery(c *gin.Context) {
	query := budget.BudgetLineQuery{}
	if err := c.MustBindWith(&query, binding.Query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	lines, err := budget.QueryBudgetLinesFunc(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, &misc.PagedBody{List: lines, Total: uint64(len(lines))})
}

func handleCreate(c *gin.Context) {
	creation := budget.BudgetLineCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	line, err := budget.CreateBudgetLineFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, line)
}

func handleUpdate(c *gin.Context) {
	id, err := common.BindingPathID(c)
	if err != nil {
		panic(err)
	}

	updating := budget.BudgetLineUpdating{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	line, err := budget.UpdateBudgetLineFunc(id, &updating, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, line)
}

func handleDelete(c *gin.Context) {
	id, err := common.BindingPathID(c)
	if err != nil {
		panic(err)
	}

	if err := budget.DeleteBudgetLineFunc(id, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.AbortWithStatus(http.StatusNoContent)
}

func handleSummary(c *gin.Context) {
	projectId, err := types.ParseID(c.Query("projectId"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	summaries, err := budget.QueryBudgetSummaryFunc(projectId, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, &misc.PagedBody{List: summaries, Total: uint64(len(summaries))})
}
