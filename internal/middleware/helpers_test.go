package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/eventup/api/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newRouter mounts handlers on GET and POST /test, ending with one that answers 200 {"ok":true}
func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	final := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) }
	chain := append(handlers, final)
	r.GET("/test", chain...)
	r.POST("/test", chain...)
	return r
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func decodeProblem(t *testing.T, body io.Reader) *model.ProblemDetails {
	t.Helper()
	var p model.ProblemDetails
	require.NoError(t, json.NewDecoder(body).Decode(&p))
	return &p
}
