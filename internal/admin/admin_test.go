package admin

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"sunduqi-backend/internal/auth"
	"sunduqi-backend/internal/config"
	"sunduqi-backend/internal/database/dbtest"
	"sunduqi-backend/internal/httpx"
	"sunduqi-backend/internal/models"
)

var testJWT = config.JWTConfig{Secret: "0123456789abcdef0123456789abcdef", Expiration: time.Hour}

type fixture struct {
	db    *gorm.DB
	app   *fiber.App
	admin *models.User
	token string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.New(t)

	app := fiber.New(fiber.Config{ErrorHandler: httpx.ErrorHandler(zap.NewNop())})
	g := app.Group("/admin", auth.JWTMiddleware(testJWT), auth.RequireRole(models.RoleAdmin))
	g.Post("/branches", CreateBranchHandler(db))
	g.Get("/branches", ListBranchesHandler(db))
	g.Get("/branches/:id", GetBranchHandler(db))
	g.Put("/branches/:id", UpdateBranchHandler(db))
	g.Delete("/branches/:id", DeleteBranchHandler(db))
	g.Post("/users", CreateUserHandler(db))
	g.Get("/users", ListUsersHandler(db))
	g.Get("/users/:id", GetUserHandler(db))
	g.Put("/users/:id", UpdateUserHandler(db))
	g.Put("/users/:id/password", ResetPasswordHandler(db))
	g.Delete("/users/:id", DeleteUserHandler(db))

	admin := dbtest.User(t, db, "admin", models.RoleAdmin, nil)
	token, err := auth.GenerateToken(testJWT.Secret, testJWT.Expiration, admin)
	require.NoError(t, err)

	return &fixture{db: db, app: app, admin: admin, token: token}
}

func (f *fixture) do(t *testing.T, method, path, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Authorization", "Bearer "+f.token)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func TestBranches_CRUD(t *testing.T) {
	f := newFixture(t)

	status, raw := f.do(t, "POST", "/admin/branches", `{"name":"Main Street","address":"Riyadh"}`)
	require.Equal(t, fiber.StatusCreated, status, string(raw))
	var branch models.Branch
	require.NoError(t, json.Unmarshal(raw, &branch))
	assert.Equal(t, "main-street", branch.Code)
	assert.True(t, branch.IsActive)

	status, _ = f.do(t, "POST", "/admin/branches", `{"name":"Main Street"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, raw = f.do(t, "POST", "/admin/branches", `{"name":"Old Town","code":"OLD Town","is_active":false}`)
	require.Equal(t, fiber.StatusCreated, status, string(raw))
	var stored models.Branch
	require.NoError(t, f.db.Where("code = ?", "old-town").First(&stored).Error)
	assert.False(t, stored.IsActive)

	status, raw = f.do(t, "GET", "/admin/branches?active=true", "")
	require.Equal(t, fiber.StatusOK, status)
	var active []models.Branch
	require.NoError(t, json.Unmarshal(raw, &active))
	require.Len(t, active, 1)
	assert.Equal(t, "Main Street", active[0].Name)

	status, raw = f.do(t, "PUT", "/admin/branches/"+itoa(branch.ID), `{"phone":"0500","is_active":false}`)
	require.Equal(t, fiber.StatusOK, status, string(raw))
	require.NoError(t, json.Unmarshal(raw, &branch))
	assert.Equal(t, "0500", branch.Phone)
	assert.False(t, branch.IsActive)

	status, _ = f.do(t, "GET", "/admin/branches/999", "")
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = f.do(t, "DELETE", "/admin/branches/"+itoa(stored.ID), "")
	assert.Equal(t, fiber.StatusNoContent, status)
}

func TestBranches_DeleteInUse(t *testing.T) {
	f := newFixture(t)
	b := dbtest.Branch(t, f.db, "north")
	dbtest.User(t, f.db, "cashier", models.RoleCasher, &b.ID)

	status, _ := f.do(t, "DELETE", "/admin/branches/"+itoa(b.ID), "")
	assert.Equal(t, fiber.StatusConflict, status)

	var n int64
	require.NoError(t, f.db.Model(&models.Branch{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestUsers_CreateRules(t *testing.T) {
	f := newFixture(t)
	b := dbtest.Branch(t, f.db, "north")

	status, _ := f.do(t, "POST", "/admin/users", `{"name":"C","username":"cash1","password":"password1","role":"casher"}`)
	assert.Equal(t, fiber.StatusBadRequest, status, "cashier without branch")

	status, _ = f.do(t, "POST", "/admin/users", `{"name":"C","username":"cash1","password":"password1","role":"owner"}`)
	assert.Equal(t, fiber.StatusBadRequest, status, "unknown role")

	status, raw := f.do(t, "POST", "/admin/users", `{"name":"C","username":"Cash1","password":"password1","role":"casher","branch_id":`+itoa(b.ID)+`}`)
	require.Equal(t, fiber.StatusCreated, status, string(raw))
	var user models.User
	require.NoError(t, json.Unmarshal(raw, &user))
	assert.Equal(t, "cash1", user.Username)
	require.NotNil(t, user.Branch)
	assert.Equal(t, "north", user.Branch.Name)
	assert.NotContains(t, string(raw), "password")

	status, _ = f.do(t, "POST", "/admin/users", `{"name":"C","username":"cash1","password":"password1","role":"admin"}`)
	assert.Equal(t, fiber.StatusBadRequest, status, "username taken")

	status, raw = f.do(t, "GET", "/admin/users?role=casher&branch_id="+itoa(b.ID), "")
	require.Equal(t, fiber.StatusOK, status)
	var users []models.User
	require.NoError(t, json.Unmarshal(raw, &users))
	require.Len(t, users, 1)
	assert.Equal(t, user.ID, users[0].ID)
}

func TestUsers_UpdateAndPassword(t *testing.T) {
	f := newFixture(t)
	b := dbtest.Branch(t, f.db, "north")
	u := dbtest.User(t, f.db, "cash1", models.RoleCasher, &b.ID)

	status, raw := f.do(t, "PUT", "/admin/users/"+itoa(u.ID), `{"name":"Renamed","is_active":false}`)
	require.Equal(t, fiber.StatusOK, status, string(raw))
	var updated models.User
	require.NoError(t, json.Unmarshal(raw, &updated))
	assert.Equal(t, "Renamed", updated.Name)
	assert.False(t, updated.IsActive)

	status, _ = f.do(t, "PUT", "/admin/users/"+itoa(f.admin.ID), `{"is_active":false}`)
	assert.Equal(t, fiber.StatusForbidden, status)
	status, _ = f.do(t, "PUT", "/admin/users/"+itoa(f.admin.ID), `{"role":"casher"}`)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = f.do(t, "PUT", "/admin/users/"+itoa(u.ID)+"/password", `{"password":"short"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	status, _ = f.do(t, "PUT", "/admin/users/"+itoa(u.ID)+"/password", `{"password":"new-password"}`)
	require.Equal(t, fiber.StatusOK, status)

	var stored models.User
	require.NoError(t, f.db.First(&stored, u.ID).Error)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("new-password")))
}

func TestUsers_Delete(t *testing.T) {
	f := newFixture(t)
	b := dbtest.Branch(t, f.db, "north")
	idle := dbtest.User(t, f.db, "idle", models.RoleCasher, &b.ID)
	busy := dbtest.User(t, f.db, "busy", models.RoleCasher, &b.ID)
	require.NoError(t, f.db.Create(&models.Notification{UserID: idle.ID, Title: "t", Message: "m"}).Error)
	require.NoError(t, f.db.Create(&models.CashMatching{BranchID: b.ID, UserID: busy.ID, Date: "2025-06-10"}).Error)

	status, _ := f.do(t, "DELETE", "/admin/users/"+itoa(f.admin.ID), "")
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = f.do(t, "DELETE", "/admin/users/"+itoa(busy.ID), "")
	assert.Equal(t, fiber.StatusConflict, status)

	status, _ = f.do(t, "DELETE", "/admin/users/"+itoa(idle.ID), "")
	assert.Equal(t, fiber.StatusNoContent, status)
	status, _ = f.do(t, "GET", "/admin/users/"+itoa(idle.ID), "")
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestAdminRoutes_RejectCashiers(t *testing.T) {
	f := newFixture(t)
	b := dbtest.Branch(t, f.db, "north")
	u := dbtest.User(t, f.db, "cash1", models.RoleCasher, &b.ID)
	token, err := auth.GenerateToken(testJWT.Secret, testJWT.Expiration, u)
	require.NoError(t, err)
	f.token = token

	status, _ := f.do(t, "GET", "/admin/users", "")
	assert.Equal(t, http.StatusForbidden, status)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
