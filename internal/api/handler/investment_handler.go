package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/cedarvest/dashboard-sync/internal/core/domain"
	"github.com/cedarvest/dashboard-sync/internal/core/ports"
	"github.com/cedarvest/dashboard-sync/internal/core/service"
)

// InvestmentHandler serves the company and investor sides of the
// investment request and payout workflows.
type InvestmentHandler struct {
	company  ports.CompanyService
	investor ports.InvestorService
}

func NewInvestmentHandler(company ports.CompanyService, investor ports.InvestorService) *InvestmentHandler {
	return &InvestmentHandler{company: company, investor: investor}
}

// CompanyRequests handles GET /v1/company/investment-requests.
//
// @Summary      List investment requests received by the company
// @Tags         investments
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   investmentRequestView
// @Failure      502  {object}  errorResponse
// @Router       /v1/company/investment-requests [get]
func (h *InvestmentHandler) CompanyRequests(c echo.Context) error {
	list, err := h.company.InvestmentRequests(c.Request().Context())
	if err != nil {
		return err
	}
	out := make([]investmentRequestView, 0, len(list))
	for _, r := range list {
		out = append(out, toInvestmentRequestView(r))
	}
	return c.JSON(http.StatusOK, out)
}

// Accept handles POST /v1/investment-requests/:id/accept.
//
// @Summary      Accept a pending investment request
// @Tags         investments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Investment request id"
// @Success      200  {object}  investmentRequestView
// @Failure      404  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /v1/investment-requests/{id}/accept [post]
func (h *InvestmentHandler) Accept(c echo.Context) error {
	req, err := h.companyRequest(c)
	if err != nil {
		return err
	}
	updated, err := h.company.Accept(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toInvestmentRequestView(updated))
}

// Reject handles POST /v1/investment-requests/:id/reject.
//
// @Summary      Reject a pending investment request
// @Tags         investments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string         true  "Investment request id"
// @Param        body  body      reasonRequest  true  "Rejection reason"
// @Success      200   {object}  investmentRequestView
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/investment-requests/{id}/reject [post]
func (h *InvestmentHandler) Reject(c echo.Context) error {
	var body reasonRequest
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&body); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	req, err := h.companyRequest(c)
	if err != nil {
		return err
	}
	updated, err := h.company.Reject(c.Request().Context(), req, body.Reason)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toInvestmentRequestView(updated))
}

// PostingEligibility handles GET /v1/company/posting-eligibility?status=.
// A company may publish projects only once fully verified.
//
// @Summary      Check whether a company status allows publishing projects
// @Tags         investments
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  true  "Company status"
// @Success      200     {object}  map[string]bool
// @Failure      403     {object}  errorResponse
// @Router       /v1/company/posting-eligibility [get]
func (h *InvestmentHandler) PostingEligibility(c echo.Context) error {
	status := strings.ToUpper(strings.TrimSpace(c.QueryParam("status")))
	if status == "" {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "status is required")
	}
	if err := service.EnsureCanPost(domain.CompanyStatus(status)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]bool{"canPost": true})
}

// Investments handles GET /v1/investor/investments.
//
// @Summary      List the investor's investments
// @Tags         investments
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   investmentView
// @Failure      502  {object}  errorResponse
// @Router       /v1/investor/investments [get]
func (h *InvestmentHandler) Investments(c echo.Context) error {
	list, err := h.investor.Investments(c.Request().Context())
	if err != nil {
		return err
	}
	out := make([]investmentView, 0, len(list))
	for _, inv := range list {
		out = append(out, toInvestmentView(inv))
	}
	return c.JSON(http.StatusOK, out)
}

// Pay handles POST /v1/investment-requests/:id/pay.
//
// @Summary      Pay an accepted investment request
// @Tags         investments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Investment request id"
// @Success      200  {object}  investmentRequestView
// @Failure      409  {object}  errorResponse
// @Failure      503  {object}  errorResponse
// @Router       /v1/investment-requests/{id}/pay [post]
func (h *InvestmentHandler) Pay(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	req, err := h.investor.FindRequest(ctx, domain.ID(id))
	if err != nil {
		return err
	}
	paid, err := h.investor.Pay(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toInvestmentRequestView(paid))
}

// RequestPayout handles POST /v1/investments/:id/payout-request.
//
// @Summary      Request the payout of a matured investment
// @Tags         investments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Investment id"
// @Success      200  {object}  investmentView
// @Failure      404  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /v1/investments/{id}/payout-request [post]
func (h *InvestmentHandler) RequestPayout(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	inv, err := h.investor.FindInvestment(ctx, domain.ID(id))
	if err != nil {
		return err
	}
	if err := h.investor.RequestPayout(ctx, &inv); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toInvestmentView(inv))
}

func (h *InvestmentHandler) companyRequest(c echo.Context) (domain.InvestmentRequest, error) {
	id, err := pathID(c)
	if err != nil {
		return domain.InvestmentRequest{}, err
	}
	return h.company.FindRequest(c.Request().Context(), domain.ID(id))
}
