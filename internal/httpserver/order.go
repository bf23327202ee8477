package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/coffee_order/internal/logging"
	authmw "github.com/Skotchmaster/coffee_order/internal/middleware/auth"
	"github.com/Skotchmaster/coffee_order/internal/service"
	"github.com/Skotchmaster/coffee_order/internal/transport"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func (h *OrderHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	user := authmw.CurrentUser(c)
	l := logging.FromContext(ctx).With("handler", "order.create", "user_id", user.ID)

	var req transport.OrderIn
	if err := bindValid(c, l, "create_order_error", &req); err != nil {
		return err
	}

	order, err := h.Svc.CreateOrder(ctx, user, req)
	if err != nil {
		return fail(l, "create_order_error", err)
	}

	l.Info("create_order_success", "order_id", order.ID)
	return c.JSON(http.StatusCreated, transport.NewOrderOut(*order))
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	user := authmw.CurrentUser(c)
	l := logging.FromContext(ctx).With("handler", "order.list", "user_id", user.ID)

	items, err := h.Svc.ListOrders(ctx, user)
	if err != nil {
		return fail(l, "list_orders_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewOrderList(items))
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	user := authmw.CurrentUser(c)
	l := logging.FromContext(ctx).With("handler", "order.get", "user_id", user.ID)

	id, err := paramID(c)
	if err != nil {
		return badRequest(l, "get_order_error", err.Error(), err)
	}

	order, err := h.Svc.GetOrder(ctx, user, id)
	if err != nil {
		return fail(l, "get_order_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewOrderOut(*order))
}
