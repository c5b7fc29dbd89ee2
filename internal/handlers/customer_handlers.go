package handlers

import (
	"net/http"

	"clubsync/internal/services"

	"github.com/labstack/echo/v4"
)

// CustomerHandlers exposes the customer registry over HTTP.
type CustomerHandlers struct {
	customerService services.CustomerService
}

func NewCustomerHandlers(customerService services.CustomerService) *CustomerHandlers {
	return &CustomerHandlers{customerService: customerService}
}

// Register creates a customer, or returns the existing one when the supplied
// id is already known. The plaintext access key appears only in the creation
// response.
func (h *CustomerHandlers) Register(c echo.Context) error {
	var req services.RegisterCustomerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	result, err := h.customerService.RegisterIfAbsent(c.Request().Context(), &req)
	if err != nil {
		return writeServiceError(c, err)
	}

	if result.Found {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":   "found",
			"customer": result.Customer,
		})
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"status":    "created",
		"customer":  result.Customer,
		"accessKey": result.AccessKey,
	})
}

// Validate dry-runs the registration checks without mutating anything.
func (h *CustomerHandlers) Validate(c echo.Context) error {
	var req services.RegisterCustomerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := h.customerService.Validate(c.Request().Context(), &req); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"status": "valid"})
}

// Save is the upsert endpoint: unknown ids register, known ids patch.
func (h *CustomerHandlers) Save(c echo.Context) error {
	var req services.SaveCustomerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	result, err := h.customerService.Save(c.Request().Context(), &req)
	if err != nil {
		return writeServiceError(c, err)
	}

	if result.Found {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":   "updated",
			"customer": result.Customer,
		})
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"status":    "created",
		"customer":  result.Customer,
		"accessKey": result.AccessKey,
	})
}

func (h *CustomerHandlers) Login(c echo.Context) error {
	var req services.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	customer, err := h.customerService.LoginWithAccessKey(c.Request().Context(), &req)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":   "success",
		"customer": customer,
	})
}

type awaitTokenRequest struct {
	CustomerID string `json:"customerId"`
	Waiting    bool   `json:"waiting"`
}

// AwaitToken toggles the waiting-for-token gate that authorizes token
// installs.
func (h *CustomerHandlers) AwaitToken(c echo.Context) error {
	var req awaitTokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	customer, err := h.customerService.SetWaitingForToken(c.Request().Context(), req.CustomerID, req.Waiting)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"customerId":      customer.ID,
		"waitingForToken": customer.WaitingForToken,
		"waitingSince":    customer.WaitingSince,
	})
}

func (h *CustomerHandlers) RegisterToken(c echo.Context) error {
	var req services.RegisterTokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	customer, err := h.customerService.RegisterToken(c.Request().Context(), &req)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":   "success",
		"customer": customer,
	})
}

// Patch applies a partial update. Absent keys stay untouched; keys present
// with empty values clear the nullable attribute.
func (h *CustomerHandlers) Patch(c echo.Context) error {
	var req services.PatchCustomerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	req.CustomerID = c.Param("customerId")

	customer, err := h.customerService.PatchAttributes(c.Request().Context(), &req)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"customer": customer})
}

func (h *CustomerHandlers) GetCustomer(c echo.Context) error {
	customer, err := h.customerService.GetByID(c.Request().Context(), c.Param("customerId"))
	if err != nil {
		return writeServiceError(c, err)
	}

	response := map[string]interface{}{"customer": customer}
	if consent, consentErr := h.customerService.GetConsent(c.Request().Context(), customer.ID); consentErr == nil {
		response["privacyConsent"] = consent
	}
	return c.JSON(http.StatusOK, response)
}

// GetToken returns the customer's current sync credential snapshot.
func (h *CustomerHandlers) GetToken(c echo.Context) error {
	customer, err := h.customerService.GetByID(c.Request().Context(), c.Param("customerId"))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"customerId":     customer.ID,
		"token":          customer.Token,
		"tokenUpdatedAt": customer.TokenUpdatedAt,
		"deviceName":     customer.DeviceName,
	})
}

// List returns every customer, admin only.
func (h *CustomerHandlers) List(c echo.Context) error {
	customers, err := h.customerService.List(c.Request().Context())
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"customers": customers,
		"count":     len(customers),
	})
}
