package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nurpe/opsdesk/internal/model"
)

type stubParser struct {
	principal model.Principal
	err       error
}

func (s stubParser) ParsePrincipal(token string) (model.Principal, error) {
	if token != "good" {
		return model.Principal{}, errors.New("bad token")
	}
	return s.principal, s.err
}

type stubChecker struct {
	allowed map[string]bool
	paths   []string
}

func (s *stubChecker) Check(ctx context.Context, principal model.Principal, pagePath string) bool {
	s.paths = append(s.paths, pagePath)
	return s.allowed[pagePath]
}

func newTestRouter(parser TokenParser, checker PageChecker, page string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth(parser))
	router.GET("/resource", RequirePage(checker, page), func(c *gin.Context) {
		principal, ok := MustPrincipal(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, principal.UserID.String())
	})
	return router
}

func TestAuthAndRequirePage(t *testing.T) {
	principal := model.Principal{UserID: uuid.New(), OrgID: uuid.New()}
	parser := stubParser{principal: principal}

	cases := []struct {
		name    string
		header  string
		allowed bool
		status  int
	}{
		{name: "missing header", header: "", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic good", status: http.StatusUnauthorized},
		{name: "invalid token", header: "Bearer bad", status: http.StatusUnauthorized},
		{name: "denied page", header: "Bearer good", allowed: false, status: http.StatusForbidden},
		{name: "allowed page", header: "Bearer good", allowed: true, status: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			checker := &stubChecker{allowed: map[string]bool{"/admin/users": tc.allowed}}
			router := newTestRouter(parser, checker, "/admin/users")

			req := httptest.NewRequest(http.MethodGet, "/resource", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, rec.Code)
			}
			if tc.status == http.StatusOK && rec.Body.String() != principal.UserID.String() {
				t.Fatalf("expected principal in context, got %q", rec.Body.String())
			}
		})
	}
}

func TestMustPrincipalWithoutAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if _, ok := MustPrincipal(c); ok {
		t.Fatalf("expected no principal")
	}
}

func TestRequirePagePathUsesRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	principal := model.Principal{UserID: uuid.New(), OrgID: uuid.New()}
	checker := &stubChecker{allowed: map[string]bool{"/vehicles/42": true}}

	router := gin.New()
	router.Use(Auth(stubParser{principal: principal}))
	router.GET("/vehicles/:id", RequirePagePath(checker, func(c *gin.Context) string {
		return "/vehicles/" + c.Param("id")
	}), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	for id, status := range map[string]int{"42": http.StatusNoContent, "43": http.StatusForbidden} {
		req := httptest.NewRequest(http.MethodGet, "/vehicles/"+id, nil)
		req.Header.Set("Authorization", "Bearer good")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != status {
			t.Fatalf("vehicle %s: expected status %d, got %d", id, status, rec.Code)
		}
	}
	if len(checker.paths) != 2 {
		t.Fatalf("expected two checks, got %v", checker.paths)
	}
}
