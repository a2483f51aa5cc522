package router

import (
	"admin-service/internal/model"
	"admin-service/internal/revocation"
	"admin-service/internal/service"
	"admin-service/internal/store"
	"admin-service/pkg/config"
	"admin-service/pkg/database"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/benbjohnson/clock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

type testServer struct {
	e     *echo.Echo
	store *store.GormStore
	clock *clock.Mock
}

func testConfig() *config.Config {
	return &config.Config{
		DB:     config.DBConfig{URL: "sqlite://:memory:", LogLevel: logger.Silent},
		Server: config.ServerConfig{Env: config.EnvTesting},
		JWT: config.JWTConfig{
			SigningKey:             "router-test-key",
			AccessTokenExpiration:  time.Hour,
			RefreshTokenExpiration: 30 * 24 * time.Hour,
		},
		CORS:   config.CORSConfig{AllowOrigins: []string{"*"}},
		Upload: config.UploadConfig{MaxContentLength: 16 * 1024},
	}
}

func newTestServer(t *testing.T, cfg *config.Config, revoked revocation.Store) *testServer {
	t.Helper()

	db, err := database.InitDB(cfg.DB)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	s := store.NewGormStore(db)
	_, err = service.NewSeeder(s, nil).Seed(context.Background(), service.AdminAccount{
		Username: "admin", Email: "admin@example.com", Password: "admin123",
	})
	require.NoError(t, err)

	clk := clock.NewMock()
	clk.Set(time.Now().UTC().Truncate(time.Second))

	return &testServer{
		e:     New(Options{Config: cfg, Store: s, DB: sqlDB, Revoked: revoked, Clock: clk}),
		store: s,
		clock: clk,
	}
}

func (ts *testServer) do(t *testing.T, method, path, token, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded), rec.Body.String())
	}
	return rec, decoded
}

func (ts *testServer) login(t *testing.T, username, password string) (string, string) {
	t.Helper()
	rec, body := ts.do(t, http.MethodPost, "/auth/login", "", `{"username":"`+username+`","password":"`+password+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return body["access_token"].(string), body["refresh_token"].(string)
}

func TestPublicEndpoints(t *testing.T) {
	ts := newTestServer(t, testConfig(), nil)

	rec, body := ts.do(t, http.MethodGet, "/", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Student SaaS Admin API", body["message"])

	for _, path := range []string{"/health", "/health/"} {
		rec, body = ts.do(t, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "healthy", body["status"])
		assert.True(t, strings.HasSuffix(body["timestamp"].(string), "Z"))
	}

	rec, body = ts.do(t, http.MethodGet, "/health?check=db", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["db_status"])

	rec, body = ts.do(t, http.MethodGet, "/api/plans/", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	plans := body["plans"].([]interface{})
	require.Len(t, plans, 3)
	assert.Equal(t, "basic", plans[0].(map[string]interface{})["code"])

	rec, _ = ts.do(t, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "admin_http_requests_total")

	rec, body = ts.do(t, http.MethodGet, "/no/such/route", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not found", body["code"])
	assert.Len(t, rec.Header().Get("X-Request-ID"), 36)

	// Unknown paths under protected prefixes are 404 even without a token
	for _, path := range []string{"/api/tenants/1/frobnicate", "/api/nothing", "/auth/nothing"} {
		rec, body = ts.do(t, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Equal(t, "not found", body["code"], path)
	}
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t, testConfig(), nil)
	ctx := context.Background()

	disabled := &model.User{Username: "dormant", Email: "dormant@example.com"}
	require.NoError(t, disabled.SetPassword("pw123456"))
	require.NoError(t, ts.store.CreateUser(ctx, disabled))

	rec, body := ts.do(t, http.MethodPost, "/auth/login", "", `{"username":"admin","password":"admin123"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, body["access_token"])
	assert.NotEmpty(t, body["refresh_token"])
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "admin", user["username"])
	assert.Equal(t, true, user["is_superuser"])

	admin, err := ts.store.FindUserByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.NotNil(t, admin.LastLogin)

	var first string
	for _, creds := range []string{
		`{"username":"admin","password":"wrong"}`,
		`{"username":"ghost","password":"admin123"}`,
		`{"username":"dormant","password":"pw123456"}`,
	} {
		rec, _ := ts.do(t, http.MethodPost, "/auth/login", "", creds)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, creds)
		if first == "" {
			first = rec.Body.String()
		}
		assert.Equal(t, first, rec.Body.String(), "failure bodies must match")
	}

	rec, body = ts.do(t, http.MethodPost, "/auth/login", "", `{"username":"admin"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid", body["code"])
}

func TestTokens(t *testing.T) {
	ts := newTestServer(t, testConfig(), nil)
	access, refresh := ts.login(t, "admin", "admin123")

	rec, body := ts.do(t, http.MethodGet, "/api/tenants", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", body["code"])

	rec, _ = ts.do(t, http.MethodGet, "/api/tenants", refresh, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "refresh token on api")

	rec, _ = ts.do(t, http.MethodPost, "/auth/refresh", access, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "access token on refresh")

	ts.clock.Add(59 * time.Minute)
	rec, _ = ts.do(t, http.MethodGet, "/api/tenants", access, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	ts.clock.Add(time.Minute)
	rec, body = ts.do(t, http.MethodGet, "/api/tenants", access, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "token has expired", body["message"])

	rec, body = ts.do(t, http.MethodPost, "/auth/refresh", refresh, "")
	require.Equal(t, http.StatusOK, rec.Code)
	fresh := body["access_token"].(string)

	rec, _ = ts.do(t, http.MethodGet, "/api/users/", fresh, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body = ts.do(t, http.MethodPost, "/auth/logout", fresh, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Successfully logged out", body["message"])

	// Stateless logout leaves the token usable until it expires
	rec, _ = ts.do(t, http.MethodGet, "/api/roles", fresh, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogoutWithDenylist(t *testing.T) {
	mr := miniredis.RunT(t)
	revoked, err := revocation.Dial(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { revoked.Close() })

	ts := newTestServer(t, testConfig(), revoked)
	access, _ := ts.login(t, "admin", "admin123")

	rec, _ := ts.do(t, http.MethodPost, "/auth/logout", access, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body := ts.do(t, http.MethodGet, "/api/tenants", access, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "token has been revoked", body["message"])
}

func TestTenantLifecycle(t *testing.T) {
	ts := newTestServer(t, testConfig(), nil)
	access, _ := ts.login(t, "admin", "admin123")

	rec, body := ts.do(t, http.MethodPost, "/api/tenants/", access,
		`{"name":"Acme","subdomain":"acme","contact_email":"a@acme.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Tenant created successfully", body["message"])
	created := body["tenant"].(map[string]interface{})
	id := int(body["tenant_id"].(float64))
	path := "/api/tenants/" + strconv.Itoa(id)

	rec, body = ts.do(t, http.MethodGet, path, access, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created, body, "create response matches a later read")
	assert.Equal(t, "Acme", body["name"])
	assert.Equal(t, "a@acme.com", body["contact_email"])
	assert.EqualValues(t, 10, body["max_users"])
	assert.Equal(t, true, body["is_active"])
	assert.Equal(t, "basic", body["subscription_plan"])

	rec, body = ts.do(t, http.MethodPost, "/api/tenants", access,
		`{"name":"Acme","subdomain":"acme-2","contact_email":"b@acme.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "conflict", body["code"])

	rec, body = ts.do(t, http.MethodPut, path, access, `{"contact_email":"bad-email"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid email format", body["message"])
	_, body = ts.do(t, http.MethodGet, path, access, "")
	assert.Equal(t, "a@acme.com", body["contact_email"])

	rec, body = ts.do(t, http.MethodPut, path, access, `{"max_users":25,"subscription_expires":"2030-01-01"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	tenant := body["tenant"].(map[string]interface{})
	assert.EqualValues(t, 25, tenant["max_users"])
	assert.Equal(t, "2030-01-01T00:00:00Z", tenant["subscription_expires"])

	rec, body = ts.do(t, http.MethodPut, path, access, `{"subscription_expires":null}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	tenant = body["tenant"].(map[string]interface{})
	assert.Nil(t, tenant["subscription_expires"])
	assert.EqualValues(t, 25, tenant["max_users"])

	for i := 0; i < 2; i++ {
		rec, body = ts.do(t, http.MethodPost, path+"/activate", access, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, true, body["tenant"].(map[string]interface{})["is_active"])
	}
	rec, body = ts.do(t, http.MethodPost, path+"/deactivate", access, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["tenant"].(map[string]interface{})["is_active"])

	rec, body = ts.do(t, http.MethodGet, "/api/tenants?search=ACM&per_page=500", access, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["total"])
	assert.EqualValues(t, 1, body["pages"])
	assert.EqualValues(t, 1, body["current_page"])

	rec, body = ts.do(t, http.MethodGet, "/api/tenants?page=4611686018427387904&per_page=4", access, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, body["tenants"], "huge page numbers must not wrap to the first page")

	// A tenant with users cannot be deleted
	tenantID := uint(id)
	member := &model.User{Username: "bob", Email: "bob@acme.com", IsActive: true, TenantID: &tenantID}
	require.NoError(t, member.SetPassword("bobpass"))
	require.NoError(t, ts.store.CreateUser(context.Background(), member))

	rec, body = ts.do(t, http.MethodDelete, path, access, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "conflict", body["code"])
	rec, _ = ts.do(t, http.MethodGet, path, access, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body = ts.do(t, http.MethodPost, "/api/tenants", access,
		`{"name":"Empty","subdomain":"empty","contact_email":"e@empty.io"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	emptyPath := "/api/tenants/" + strconv.Itoa(int(body["tenant_id"].(float64)))

	rec, _ = ts.do(t, http.MethodDelete, emptyPath, access, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = ts.do(t, http.MethodGet, emptyPath, access, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTenantRequestErrors(t *testing.T) {
	cfg := testConfig()
	cfg.Upload.MaxContentLength = 256
	ts := newTestServer(t, cfg, nil)
	access, _ := ts.login(t, "admin", "admin123")

	rec, body := ts.do(t, http.MethodGet, "/api/tenants/abc", access, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid", body["code"])

	rec, _ = ts.do(t, http.MethodGet, "/api/tenants/999", access, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = ts.do(t, http.MethodPost, "/api/tenants", access, `{"subdomain":"x","contact_email":"x@x.io"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "missing required field: name", body["message"])

	rec, body = ts.do(t, http.MethodPost, "/api/tenants", access, `{"name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid request body", body["message"])

	big := `{"name":"` + strings.Repeat("x", 512) + `","subdomain":"big","contact_email":"b@big.io"}`
	rec, body = ts.do(t, http.MethodPost, "/api/tenants", access, big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "request too large", body["code"])
}
