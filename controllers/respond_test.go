package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/cppla/engage/services"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{services.ErrEmptyContent, http.StatusBadRequest, "40031"},
		{services.ErrInvalidCredentials, http.StatusUnauthorized, "40101"},
		{services.ErrNotApproved, http.StatusForbidden, "40302"},
		{fmt.Errorf("load: %w", services.ErrPostNotFound), http.StatusNotFound, "40402"},
		{services.ErrEmailDenyListed, http.StatusConflict, "40901"},
		{gorm.ErrRecordNotFound, http.StatusNotFound, "40400"},
		{gorm.ErrDuplicatedKey, http.StatusConflict, "40900"},
		{errors.New("connection reset"), http.StatusServiceUnavailable, "50300"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		ctx, _ := gin.CreateTestContext(w)
		ctx.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		respondError(ctx, tc.err)
		assert.Equal(t, tc.status, w.Code, tc.err.Error())
		assert.Contains(t, w.Body.String(), `"code":`+tc.code, tc.err.Error())
	}
}

func TestParsePagination(t *testing.T) {
	page, size := parsePagination("3", "50")
	assert.Equal(t, 3, page)
	assert.Equal(t, 50, size)

	page, size = parsePagination("-1", "1000")
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, size)
}

func TestParamID(t *testing.T) {
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	ctx.Params = gin.Params{{Key: "id", Value: "0"}}
	_, ok := paramID(ctx, "id")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	ctx, _ = gin.CreateTestContext(httptest.NewRecorder())
	ctx.Params = gin.Params{{Key: "id", Value: "42"}}
	id, ok := paramID(ctx, "id")
	assert.True(t, ok)
	assert.Equal(t, uint(42), id)
}
