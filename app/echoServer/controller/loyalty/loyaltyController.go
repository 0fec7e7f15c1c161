package loyalty

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"urbandrive/app/echoServer/jwtx"
	ls "urbandrive/service/loyalty"
)

type Controller struct {
	Svc ls.Service
	V   *validator.Validate
	Log *slog.Logger
}

func success(c echo.Context, code int, data any) error {
	return c.JSON(code, echo.Map{"status": "success", "data": data})
}

func fail(c echo.Context, code int, msg string) error {
	return c.JSON(code, echo.Map{"status": "error", "message": msg})
}

// GET /v1/loyalty/status
// @Summary      Loyalty status
// @Description  Balance, tier, transaction history and the reward catalog
// @Tags         loyalty
// @Produce      json
// @Success      200  {object}  map[string]any
// @Router       /v1/loyalty/status [get]
func (h *Controller) Status(c echo.Context) error {
	uid, err := jwtx.UserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}

	out, err := h.Svc.Status(c.Request().Context(), uid)
	if err != nil {
		switch ls.Code(err) {
		case ls.ErrUserNotFound:
			return fail(c, http.StatusNotFound, "user not found")
		default:
			h.Log.Error("loyalty status", "err", err)
			return fail(c, http.StatusInternalServerError, "internal error")
		}
	}
	return success(c, http.StatusOK, out)
}

// POST /v1/loyalty/redeem
func (h *Controller) Redeem(c echo.Context) error {
	var req RedeemReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid JSON")
	}
	if err := h.V.Struct(req); err != nil {
		return fail(c, http.StatusBadRequest, "validation error")
	}

	uid, err := jwtx.UserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}

	newBalance, err := h.Svc.Redeem(c.Request().Context(), uid, req.RewardID)
	if err != nil {
		switch ls.Code(err) {
		case ls.ErrRewardNotFound:
			return fail(c, http.StatusNotFound, "reward not found")
		case ls.ErrInsufficientPoints:
			return fail(c, http.StatusBadRequest, "insufficient points")
		case ls.ErrUserNotFound:
			return fail(c, http.StatusNotFound, "user not found")
		default:
			h.Log.Error("loyalty redeem", "err", err)
			return fail(c, http.StatusInternalServerError, "internal error")
		}
	}
	return success(c, http.StatusOK, echo.Map{"new_balance": newBalance})
}
