package handler

import (
	"admin-service/internal/model"
	"admin-service/internal/service"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type userView struct {
	ID          uint       `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name"`
	IsActive    bool       `json:"is_active"`
	IsSuperuser bool       `json:"is_superuser"`
	TenantID    *uint      `json:"tenant_id"`
	LastLogin   *time.Time `json:"last_login"`
}

type planView struct {
	ID           uint     `json:"id"`
	Name         string   `json:"name"`
	Code         string   `json:"code"`
	PriceMonthly float64  `json:"price_monthly"`
	PriceYearly  *float64 `json:"price_yearly"`
	MaxUsers     int      `json:"max_users"`
	MaxStorage   int      `json:"max_storage"`
	Features     []string `json:"features"`
}

type permissionView struct {
	ID       uint   `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

type roleView struct {
	ID          uint             `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	IsSystem    bool             `json:"is_system"`
	Permissions []permissionView `json:"permissions"`
}

// DirectoryHandler serves the read-only user, role and plan listings
type DirectoryHandler struct {
	users *service.UserService
	roles *service.RoleService
	plans *service.PlanService
}

func NewDirectoryHandler(users *service.UserService, roles *service.RoleService, plans *service.PlanService) *DirectoryHandler {
	return &DirectoryHandler{users: users, roles: roles, plans: plans}
}

// ListUsers handles GET /api/users?page=&per_page=
func (h *DirectoryHandler) ListUsers(c echo.Context) error {
	page, err := h.users.List(c.Request().Context(),
		queryInt(c, "page", 1),
		queryInt(c, "per_page", service.DefaultPerPage),
	)
	if err != nil {
		return err
	}

	users := make([]userView, 0, len(page.Items))
	for _, u := range page.Items {
		users = append(users, toUserView(u))
	}

	return c.JSON(http.StatusOK, echo.Map{
		"users":        users,
		"total":        page.Total,
		"pages":        page.Pages,
		"current_page": page.CurrentPage,
	})
}

func toUserView(u model.User) userView {
	return userView{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FullName:    u.FullName,
		IsActive:    u.IsActive,
		IsSuperuser: u.IsSuperuser,
		TenantID:    u.TenantID,
		LastLogin:   u.LastLogin,
	}
}

// ListRoles handles GET /api/roles
func (h *DirectoryHandler) ListRoles(c echo.Context) error {
	roles, err := h.roles.List(c.Request().Context())
	if err != nil {
		return err
	}

	views := make([]roleView, 0, len(roles))
	for _, r := range roles {
		perms := make([]permissionView, 0, len(r.Permissions))
		for _, p := range r.Permissions {
			perms = append(perms, permissionView{ID: p.ID, Code: p.Code, Name: p.Name, Category: p.Category})
		}
		views = append(views, roleView{
			ID:          r.ID,
			Name:        r.Name,
			Description: r.Description,
			IsSystem:    r.IsSystem,
			Permissions: perms,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{"roles": views})
}

// ListPlans handles GET /api/plans. Public.
func (h *DirectoryHandler) ListPlans(c echo.Context) error {
	plans, err := h.plans.ListActive(c.Request().Context())
	if err != nil {
		return err
	}

	views := make([]planView, 0, len(plans))
	for _, p := range plans {
		features := []string(p.Features)
		if features == nil {
			features = []string{}
		}
		views = append(views, planView{
			ID:           p.ID,
			Name:         p.Name,
			Code:         p.Code,
			PriceMonthly: p.PriceMonthly,
			PriceYearly:  p.PriceYearly,
			MaxUsers:     p.MaxUsers,
			MaxStorage:   p.MaxStorage,
			Features:     features,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{"plans": views})
}
