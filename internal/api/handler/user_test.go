package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/fable_go_server/internal/api/middleware"
	"github.com/qs3c/fable_go_server/internal/model/dto"
	"github.com/qs3c/fable_go_server/internal/pkg/response"
	"github.com/qs3c/fable_go_server/internal/repository"
	"github.com/qs3c/fable_go_server/internal/service"
	"github.com/qs3c/fable_go_server/internal/testutil"
)

// testContext 本地测试上下文
type testContext struct {
	DB *gorm.DB
}

// mockAuth 模拟认证中间件
func mockAuth(userID int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
		c.Next()
	}
}

func setupUserHandler(t *testing.T) (*UserHandler, *testContext, func()) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	userRepo := repository.NewUserRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)
	cfg := testConfig()

	authService := service.NewAuthService(userRepo, cfg)
	creditService := service.NewCreditService(userRepo, purchaseRepo, cfg)
	handler := NewUserHandler(authService, creditService)

	ctx := &testContext{DB: db}

	cleanup := func() {
		testutil.CleanupTestDB(t, db)
	}

	return handler, ctx, cleanup
}

func TestUserHandler_Profile_Success(t *testing.T) {
	handler, ctx, cleanup := setupUserHandler(t)
	defer cleanup()

	user := testutil.TestUser(t, ctx.DB, testutil.WithName("Perfil"))

	router := gin.New()
	router.Use(mockAuth(user.ID))
	router.GET("/profile", handler.Profile)

	req := httptest.NewRequest("GET", "/profile", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	resp := parseResponse(t, w)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, response.CodeSuccess, resp.Code)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Perfil", data["name"])
}

func TestUserHandler_Profile_Unauthorized(t *testing.T) {
	handler, _, cleanup := setupUserHandler(t)
	defer cleanup()

	router := gin.New()
	router.GET("/profile", handler.Profile)

	req := httptest.NewRequest("GET", "/profile", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, response.CodeAuthFailed, parseResponse(t, w).Code)
}

func TestUserHandler_Credits(t *testing.T) {
	handler, ctx, cleanup := setupUserHandler(t)
	defer cleanup()

	user := testutil.TestUser(t, ctx.DB, testutil.WithMonthlyUsage(2, 1))

	router := gin.New()
	router.Use(mockAuth(user.ID))
	router.GET("/credits", handler.Credits)

	req := httptest.NewRequest("GET", "/credits", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	resp := parseResponse(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(2), data["monthly_free_used"])
	assert.Equal(t, float64(3), data["monthly_free_limit"])
	assert.Equal(t, true, data["can_create"])
}

func TestUserHandler_ListPacks(t *testing.T) {
	handler, _, cleanup := setupUserHandler(t)
	defer cleanup()

	router := gin.New()
	router.GET("/packs", handler.ListPacks)

	req := httptest.NewRequest("GET", "/packs", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	resp := parseResponse(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)

	packs, ok := resp.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, packs, 1)
}

func TestUserHandler_BuyPack(t *testing.T) {
	handler, ctx, cleanup := setupUserHandler(t)
	defer cleanup()

	user := testutil.TestUser(t, ctx.DB)

	router := gin.New()
	router.Use(mockAuth(user.ID))
	router.POST("/packs/buy", handler.BuyPack)

	w := performRequest(router, "POST", "/packs/buy", dto.BuyPackRequest{PackID: "premium_10"})
	resp := parseResponse(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "premium", data["plan"])
	assert.Equal(t, float64(10), data["credits"])
}

func TestUserHandler_BuyPack_Unknown(t *testing.T) {
	handler, ctx, cleanup := setupUserHandler(t)
	defer cleanup()

	user := testutil.TestUser(t, ctx.DB)

	router := gin.New()
	router.Use(mockAuth(user.ID))
	router.POST("/packs/buy", handler.BuyPack)

	w := performRequest(router, "POST", "/packs/buy", dto.BuyPackRequest{PackID: "no-such-pack"})
	assert.Equal(t, response.CodeParamError, parseResponse(t, w).Code)
}
