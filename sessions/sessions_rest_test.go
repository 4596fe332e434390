package sessions_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"pdis/account"
	"pdis/authority"
	"pdis/bizerror"
	"pdis/domain"
	"pdis/persistence"
	"pdis/session"
	"pdis/sessions"
	"pdis/testinfra"
	"testing"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	. "github.com/onsi/gomega"
	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
)

func setup(t *testing.T, testDatabase **testinfra.TestDatabase) {
	db := testinfra.StartMysqlTestDatabase("pdis")
	assert.Nil(t, db.DS.GormDB(context.Background()).AutoMigrate(&account.User{}).Error)
	persistence.ActiveDataSourceManager = db.DS
	*testDatabase = db

	account.LoadPermFunc = func(uid types.ID) (authority.Permissions, authority.ProjectRoles) {
		return authority.Permissions{domain.ProjectRoleManager + "_1"},
			authority.ProjectRoles{{ProjectID: 1, ProjectName: "project one", Role: domain.ProjectRoleManager}}
	}
}

func teardown(t *testing.T, testDatabase *testinfra.TestDatabase) {
	account.LoadPermFuncReset()
	if testDatabase != nil {
		testinfra.StopMysqlTestDatabase(testDatabase)
	}
}

func prepareRouter() *gin.Engine {
	router := gin.Default()
	router.Use(bizerror.ErrorHandling())
	sessions.RegisterSessionsHandler(router)
	sessions.RegisterSessionHandler(router, session.SimpleAuthFilter())
	return router
}

func TestSimpleLoginHandler(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should login with correct name and password", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)
		router := prepareRouter()

		Expect(persistence.ActiveDataSourceManager.GormDB(context.Background()).Create(&account.User{
			ID: 1, Name: "ann", Nickname: "Ann", Secret: account.HashSha256("abc123")}).Error).To(BeNil())

		req := httptest.NewRequest(http.MethodPost, "/v1/sessions",
			bytes.NewReader([]byte(`{"name":"ann","password":"abc123"}`)))
		status, body, resp := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(ContainSubstring(`"name":"ann"`))
		Expect(body).To(ContainSubstring(domain.ProjectRoleManager + `_1`))

		cookies := resp.Result().Cookies()
		Expect(len(cookies)).To(Equal(1))
		Expect(cookies[0].Name).To(Equal(session.KeySecToken))
		_, found := session.TokenCache.Get(cookies[0].Value)
		Expect(found).To(BeTrue())
	})

	t.Run("should refuse wrong passwords", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)
		router := prepareRouter()

		Expect(persistence.ActiveDataSourceManager.GormDB(context.Background()).Create(&account.User{
			ID: 1, Name: "ann", Nickname: "Ann", Secret: account.HashSha256("abc123")}).Error).To(BeNil())

		req := httptest.NewRequest(http.MethodPost, "/v1/sessions",
			bytes.NewReader([]byte(`{"name":"ann","password":"wrong"}`)))
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusUnauthorized))
		Expect(body).To(MatchJSON(`{"code":"common.unauthenticated","message":"unauthenticated","data":null}`))
	})
}

func TestSimpleLogoutHandler(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should drop the cached token and expire the cookie", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)
		router := prepareRouter()

		token := uuid.New().String()
		session.TokenCache.Set(token, &session.Session{Token: token,
			Identity: session.Identity{ID: 1, Name: "ann"}}, cache.DefaultExpiration)

		req := httptest.NewRequest(http.MethodDelete, "/v1/sessions", nil)
		req.AddCookie(&http.Cookie{Name: session.KeySecToken, Value: token})
		status, _, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusNoContent))

		_, found := session.TokenCache.Get(token)
		Expect(found).To(BeFalse())
	})
}

func TestDetailSessionHandler(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should renew the session with refreshed perms", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)
		router := prepareRouter()

		token := uuid.New().String()
		session.TokenCache.Set(token, &session.Session{Token: token,
			Identity: session.Identity{ID: 1, Name: "ann"}, SigningTime: time.Now()}, cache.DefaultExpiration)

		req := httptest.NewRequest(http.MethodGet, "/v1/session", nil)
		req.AddCookie(&http.Cookie{Name: session.KeySecToken, Value: token})
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(ContainSubstring(domain.ProjectRoleManager + `_1`))
	})

	t.Run("should refuse requests without a valid token", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)
		router := prepareRouter()

		req := httptest.NewRequest(http.MethodGet, "/v1/session", nil)
		status, _, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusUnauthorized))
	})
}
