package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/AdityaDas31/Whisp-Backend/internal/hub"
)

func TestGetOnlineUsersEmptyRegistry(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/api/online-users", NewPresenceHandler(hub.NewPresenceRegistry()).GetOnlineUsers)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/online-users", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"onlineUsers":[]}`, w.Body.String())
}
