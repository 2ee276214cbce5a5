package http

import (
	"net/http"
	"strconv"

	"github.com/jmehdipour/sms-panel/internal/http/middleware"
	"github.com/jmehdipour/sms-panel/internal/model"
	"github.com/jmehdipour/sms-panel/internal/service/accounts"
	echo "github.com/labstack/echo/v4"
)

type loginReq struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

func loginHandler(svc *accounts.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req loginReq
		if err := c.Bind(&req); err != nil {
			return badRequest(c, "bad request")
		}
		a, err := svc.Login(c.Request().Context(), req.Login, req.Password)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, map[string]any{
			"api_key": a.APIKey,
			"account": a,
		})
	}
}

func meHandler(svc *accounts.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, _ := middleware.IdentityFromCtx(c)
		a, err := svc.Get(c.Request().Context(), id.AccountID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, a)
	}
}

func accountIDParam(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

func listAccountsHandler(svc *accounts.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		list, err := svc.List(c.Request().Context())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, map[string]any{"count": len(list), "results": list})
	}
}

func createAccountHandler(svc *accounts.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req accounts.RegisterCmd
		if err := c.Bind(&req); err != nil {
			return badRequest(c, "bad request")
		}
		a, err := svc.Register(c.Request().Context(), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusCreated, map[string]any{"account": a, "api_key": a.APIKey})
	}
}

func updateAccountHandler(svc *accounts.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := accountIDParam(c)
		if !ok {
			return badRequest(c, "invalid account id")
		}
		var req accounts.UpdateProfileCmd
		if err := c.Bind(&req); err != nil {
			return badRequest(c, "bad request")
		}
		if err := svc.UpdateProfile(c.Request().Context(), id, req); err != nil {
			return respondError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func deleteAccountHandler(svc *accounts.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := accountIDParam(c)
		if !ok {
			return badRequest(c, "invalid account id")
		}
		if err := svc.Delete(c.Request().Context(), id); err != nil {
			return respondError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

type accountStatusReq struct {
	Status model.AccountStatus `json:"status"`
}

func accountStatusHandler(svc *accounts.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := accountIDParam(c)
		if !ok {
			return badRequest(c, "invalid account id")
		}
		var req accountStatusReq
		if err := c.Bind(&req); err != nil {
			return badRequest(c, "bad request")
		}
		if err := svc.SetStatus(c.Request().Context(), id, req.Status); err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, map[string]any{"id": id, "status": req.Status})
	}
}

type creditsReq struct {
	Amount int64 `json:"amount"`
}

func addCreditsHandler(svc *accounts.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := accountIDParam(c)
		if !ok {
			return badRequest(c, "invalid account id")
		}
		var req creditsReq
		if err := c.Bind(&req); err != nil {
			return badRequest(c, "bad request")
		}
		bal, err := svc.AddCredits(c.Request().Context(), id, req.Amount)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, map[string]any{"id": id, "amount": req.Amount, "credits": bal})
	}
}
