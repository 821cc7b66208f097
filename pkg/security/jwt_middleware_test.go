package security

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func middlewareContext(t *testing.T, authHeader string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		c.Request.Header.Set("Authorization", authHeader)
	}
	return c, recorder
}

func TestGenerateJWTWithoutSecretFails(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := GenerateJWT("7", "admin", "jsmith")

	assert.Error(t, err)
}

func TestJWTMiddlewareAcceptsIssuedToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := GenerateJWT("7", "admin", "jsmith")
	assert.NoError(t, err)

	c, recorder := middlewareContext(t, "Bearer "+token)
	JWTMiddleware()(c)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "7", c.GetString("userID"))
	assert.Equal(t, "admin", c.GetString("role"))

	actorID, err := ActorID(c)
	assert.NoError(t, err)
	assert.Equal(t, 7, actorID)
}

func TestJWTMiddlewareRejectsMissingHeader(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	c, recorder := middlewareContext(t, "")
	JWTMiddleware()(c)

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestJWTMiddlewareWithoutSecretFailsClosed(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	c, recorder := middlewareContext(t, "Bearer whatever")
	JWTMiddleware()(c)

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
}
