package booking

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"urbandrive/app/echoServer/jwtx"
	"urbandrive/model"
	availabilitysvc "urbandrive/service/availability"
	bs "urbandrive/service/booking"
	"urbandrive/util/cache"
)

const dateLayout = "2006-01-02"

const availabilityTTL = 30 * time.Second

type Controller struct {
	Svc   bs.Service
	Avail availabilitysvc.Service
	Cache *cache.Cache
	V     *validator.Validate
	Log   *slog.Logger
}

func success(c echo.Context, code int, data any) error {
	return c.JSON(code, echo.Map{"status": "success", "data": data})
}

func fail(c echo.Context, code int, msg string) error {
	return c.JSON(code, echo.Map{"status": "error", "message": msg})
}

// GET /v1/bookings/check-availability?vehicleId=&startDate=&endDate=
// @Summary      Check vehicle availability
// @Description  Reports whether a vehicle is free over an inclusive date range
// @Tags         bookings
// @Produce      json
// @Param        vehicleId  query  int     true  "Vehicle ID"
// @Param        startDate  query  string  true  "Start date (YYYY-MM-DD)"
// @Param        endDate    query  string  true  "End date (YYYY-MM-DD)"
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  map[string]any
// @Router       /v1/bookings/check-availability [get]
func (h *Controller) CheckAvailability(c echo.Context) error {
	vehicleID, err := strconv.ParseInt(c.QueryParam("vehicleId"), 10, 64)
	if err != nil || vehicleID <= 0 {
		return fail(c, http.StatusBadRequest, "invalid vehicleId")
	}
	startStr, endStr := c.QueryParam("startDate"), c.QueryParam("endDate")
	start, err := time.Parse(dateLayout, startStr)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid startDate, expected YYYY-MM-DD")
	}
	end, err := time.Parse(dateLayout, endStr)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid endDate, expected YYYY-MM-DD")
	}

	ctx := c.Request().Context()
	if available, ok := h.Cache.GetAvailability(ctx, vehicleID, startStr, endStr); ok {
		return success(c, http.StatusOK, echo.Map{"available": available})
	}

	available, err := h.Avail.IsAvailable(ctx, vehicleID, start, end)
	if err != nil {
		if errors.Is(err, availabilitysvc.ErrInvalidRange) {
			return fail(c, http.StatusBadRequest, "endDate must not be before startDate")
		}
		h.Log.Error("availability check", "err", err)
		return fail(c, http.StatusInternalServerError, "internal error")
	}

	h.Cache.SetAvailability(ctx, vehicleID, startStr, endStr, available, availabilityTTL)
	return success(c, http.StatusOK, echo.Map{"available": available})
}

// POST /v1/bookings
// @Summary      Create booking
// @Description  Admits a new booking if the vehicle is free; accrues loyalty points
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Param        payload  body  CreateBookingReq  true  "Booking payload"
// @Success      201  {object}  map[string]any
// @Failure      400  {object}  map[string]any
// @Failure      404  {object}  map[string]any "vehicle not found"
// @Failure      409  {object}  map[string]any "dates no longer available"
// @Router       /v1/bookings [post]
func (h *Controller) Create(c echo.Context) error {
	var req CreateBookingReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid JSON")
	}
	if err := h.V.Struct(req); err != nil {
		return fail(c, http.StatusBadRequest, "validation error: "+err.Error())
	}

	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid start_date, expected YYYY-MM-DD")
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid end_date, expected YYYY-MM-DD")
	}

	uid, err := jwtx.UserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}

	in := bs.CreateInput{
		UserID:         uid,
		VehicleID:      req.VehicleID,
		StartDate:      start,
		EndDate:        end,
		PickupLocation: req.PickupLocation,
		ReturnLocation: req.ReturnLocation,
		TotalPrice:     req.TotalPrice,
		PaymentMethod:  req.PaymentMethod,
	}
	if req.Insurance != nil {
		in.Insurance = &model.Insurance{Name: req.Insurance.Name, Price: req.Insurance.Price}
	}
	for _, e := range req.Extras {
		in.Extras = append(in.Extras, model.Extra{ID: e.ID, Name: e.Name, Price: e.Price})
	}

	out, err := h.Svc.Create(c.Request().Context(), in)
	if err != nil {
		switch bs.Code(err) {
		case bs.ErrBadInput:
			return fail(c, http.StatusBadRequest, "missing or malformed booking fields")
		case bs.ErrInvalidRange:
			return fail(c, http.StatusBadRequest, "end_date must not be before start_date")
		case bs.ErrVehicleNotFound:
			return fail(c, http.StatusNotFound, "vehicle not found")
		case bs.ErrUnavailable:
			return fail(c, http.StatusConflict, "vehicle no longer available for these dates, please choose different dates")
		case bs.ErrTimeout:
			return fail(c, http.StatusServiceUnavailable, "booking timed out, please retry")
		default:
			h.Log.Error("booking create", "err", err)
			return fail(c, http.StatusInternalServerError, "internal error")
		}
	}

	return success(c, http.StatusCreated, out)
}

// GET /v1/bookings/my-bookings
func (h *Controller) MyBookings(c echo.Context) error {
	uid, err := jwtx.UserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	rows, err := h.Svc.ListMine(c.Request().Context(), uid)
	if err != nil {
		h.Log.Error("my bookings", "err", err)
		return fail(c, http.StatusInternalServerError, "internal error")
	}
	return success(c, http.StatusOK, rows)
}

// GET /v1/bookings/:id (owner or admin)
func (h *Controller) Detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	uid, err := jwtx.UserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}

	out, err := h.Svc.Get(c.Request().Context(), uid, jwtx.IsAdmin(c), id)
	if err != nil {
		switch bs.Code(err) {
		case bs.ErrNotFound:
			return fail(c, http.StatusNotFound, "booking not found")
		case bs.ErrNotOwner:
			return fail(c, http.StatusForbidden, "forbidden")
		default:
			h.Log.Error("booking detail", "err", err)
			return fail(c, http.StatusInternalServerError, "internal error")
		}
	}
	return success(c, http.StatusOK, out)
}

// GET /v1/bookings (admin)
func (h *Controller) ListAll(c echo.Context) error {
	rows, err := h.Svc.ListAll(c.Request().Context())
	if err != nil {
		h.Log.Error("list bookings", "err", err)
		return fail(c, http.StatusInternalServerError, "internal error")
	}
	return success(c, http.StatusOK, rows)
}

// PATCH /v1/bookings/:id (admin, status only)
func (h *Controller) UpdateStatus(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	var req UpdateStatusReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid JSON")
	}
	if err := h.V.Struct(req); err != nil {
		return fail(c, http.StatusBadRequest, "validation error")
	}

	status := model.BookingStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	if err := h.Svc.UpdateStatus(c.Request().Context(), id, status); err != nil {
		switch bs.Code(err) {
		case bs.ErrBadStatus:
			return fail(c, http.StatusBadRequest, "unknown status")
		case bs.ErrBadTransition:
			return fail(c, http.StatusBadRequest, "illegal status transition")
		case bs.ErrNotFound:
			return fail(c, http.StatusNotFound, "booking not found")
		default:
			h.Log.Error("booking status update", "err", err)
			return fail(c, http.StatusInternalServerError, "internal error")
		}
	}
	return success(c, http.StatusOK, echo.Map{"id": id, "new_status": status})
}
