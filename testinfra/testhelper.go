package testinfra

import (
	"context"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"pdis/authority"
	"pdis/session"
	"strings"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
)

// BuildSession builds a signed-in session carrying the given permissions,
// with project roles derived from "role_projectId" shaped perms.
func BuildSession(uid types.ID, perms ...string) *session.Session {
	projectRoles := authority.ProjectRoles{}
	for _, perm := range perms {
		idx := strings.LastIndex(perm, "_")
		if idx > 0 {
			projectId, err := types.ParseID(perm[idx+1:])
			if err != nil {
				continue
			}
			projectRoles = append(projectRoles, authority.ProjectRole{ProjectID: projectId, Role: perm[0:idx]})
		}
	}

	return &session.Session{
		Identity:     session.Identity{ID: uid},
		Perms:        perms,
		ProjectRoles: projectRoles,
		Context:      context.Background(),
	}
}

func ExecuteRequest(req *http.Request, router *gin.Engine) (int, string, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	bodyBytes, _ := ioutil.ReadAll(w.Body)
	return w.Code, string(bodyBytes), w
}
