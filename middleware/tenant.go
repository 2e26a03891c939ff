package middleware

import (
	"errors"
	"net/http"

	"rivo_booking_go/db"
	"rivo_booking_go/models"
	"rivo_booking_go/services"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

const (
	// ContextKeyTenant is the context key for the resolved tenant
	ContextKeyTenant = "tenant"
)

// ResolveTenant loads the tenant identified by the :subdomain route param and
// stores it in the request context. Unknown subdomains yield 404, suspended
// or deleted tenants 403.
func ResolveTenant() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			subdomain := c.Param("subdomain")
			if !models.IsValidSubdomain(subdomain) {
				return echo.NewHTTPError(http.StatusNotFound, "Tenant not found")
			}

			tenant, err := services.GetTenantBySubdomain(db.DB, subdomain)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return echo.NewHTTPError(http.StatusNotFound, "Tenant not found")
				}
				return echo.NewHTTPError(http.StatusInternalServerError, "Failed to resolve tenant")
			}

			if tenant.Status != models.TenantStatusActive {
				return echo.NewHTTPError(http.StatusForbidden, "Tenant is not active")
			}

			c.Set(ContextKeyTenant, tenant)
			return next(c)
		}
	}
}

// GetCurrentTenant retrieves the tenant from context
func GetCurrentTenant(c echo.Context) *models.Tenant {
	tenant, ok := c.Get(ContextKeyTenant).(*models.Tenant)
	if !ok {
		return nil
	}
	return tenant
}
