package handler

import (
	"admin-service/internal/service"
	"admin-service/pkg/logger"
	"admin-service/prometheus"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// TenantHandler serves /api/tenants
type TenantHandler struct {
	tenants *service.TenantService
}

func NewTenantHandler(tenants *service.TenantService) *TenantHandler {
	return &TenantHandler{tenants: tenants}
}

// List handles GET /api/tenants?page=&per_page=&search=
func (h *TenantHandler) List(c echo.Context) error {
	prometheus.RecordTenantOperation("list")

	page, err := h.tenants.List(c.Request().Context(),
		queryInt(c, "page", 1),
		queryInt(c, "per_page", service.DefaultPerPage),
		c.QueryParam("search"),
	)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"tenants":      page.Items,
		"total":        page.Total,
		"pages":        page.Pages,
		"current_page": page.CurrentPage,
	})
}

func (h *TenantHandler) Get(c echo.Context) error {
	prometheus.RecordTenantOperation("get")

	id, err := paramID(c, "handler.GetTenant")
	if err != nil {
		return err
	}

	tenant, err := h.tenants.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tenant)
}

func (h *TenantHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("create")

	var in service.TenantInput
	if err := bind(c, "handler.CreateTenant", &in); err != nil {
		return err
	}

	tenant, err := h.tenants.Create(c.Request().Context(), in)
	if err != nil {
		log.Info("Tenant creation rejected", zap.Error(err))
		return err
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message":   "Tenant created successfully",
		"tenant_id": tenant.ID,
		"tenant":    tenant,
	})
}

func (h *TenantHandler) Update(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("update")

	id, err := paramID(c, "handler.UpdateTenant")
	if err != nil {
		return err
	}

	var in service.TenantInput
	if err := bind(c, "handler.UpdateTenant", &in); err != nil {
		return err
	}

	tenant, err := h.tenants.Update(c.Request().Context(), id, in)
	if err != nil {
		log.Info("Tenant update rejected", zap.Uint("tenant_id", id), zap.Error(err))
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Tenant updated successfully",
		"tenant":  tenant,
	})
}

func (h *TenantHandler) Delete(c echo.Context) error {
	prometheus.RecordTenantOperation("delete")

	id, err := paramID(c, "handler.DeleteTenant")
	if err != nil {
		return err
	}

	if err := h.tenants.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Tenant deleted successfully"})
}

func (h *TenantHandler) Activate(c echo.Context) error {
	prometheus.RecordTenantOperation("activate")

	id, err := paramID(c, "handler.ActivateTenant")
	if err != nil {
		return err
	}

	tenant, err := h.tenants.Activate(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Tenant activated successfully",
		"tenant":  tenant,
	})
}

func (h *TenantHandler) Deactivate(c echo.Context) error {
	prometheus.RecordTenantOperation("deactivate")

	id, err := paramID(c, "handler.DeactivateTenant")
	if err != nil {
		return err
	}

	tenant, err := h.tenants.Deactivate(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Tenant deactivated successfully",
		"tenant":  tenant,
	})
}
