package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/authz"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/storage"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

var pngURI = "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png bytes"))

type testAPI struct {
	t       *testing.T
	db      *gorm.DB
	auth    *service.AuthService
	handler http.Handler
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestAPI(t *testing.T, opts ...func(*Options)) *testAPI {
	t.Helper()
	db := testhelpers.SetupTestDB(t)
	enforcer := authz.MustNewEnforcer()
	images, err := storage.NewLocalStore(t.TempDir(), "/media/")
	require.NoError(t, err)

	auth := service.NewAuthService(db, enforcer, service.NewMemoryTokenStore(), "test-secret", time.Hour)
	svc := Services{
		Auth:     auth,
		Users:    service.NewUserService(db, enforcer),
		Recipes:  service.NewRecipeService(db, enforcer, images),
		Toggles:  service.NewToggleService(db, enforcer),
		Shopping: service.NewShoppingService(db, enforcer),
		Catalog:  service.NewCatalogService(db, enforcer),
	}
	o := Options{Pagination: Pagination{PageSize: 6, MaxSize: 100}}
	for _, fn := range opts {
		fn(&o)
	}

	router := gin.New()
	router.RedirectTrailingSlash = false
	router.Use(middleware.ErrorHandler())
	RegisterRoutes(router, svc, o)

	return &testAPI{t: t, db: db, auth: auth, handler: middleware.StripTrailingSlash(router)}
}

func (a *testAPI) token(u *models.User) string {
	a.t.Helper()
	token, _, err := a.auth.GenerateToken(u)
	require.NoError(a.t, err)
	return token
}

// do sends body as JSON with an optional token and returns the recorder.
func (a *testAPI) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type page[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}
