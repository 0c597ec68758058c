// Package v1 implements the version-1 procedures over a catalog.
package v1

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/morezero/json-api-router/pkg/arguments"
	"github.com/morezero/json-api-router/pkg/catalog"
	"github.com/morezero/json-api-router/pkg/payload"
	"github.com/morezero/json-api-router/pkg/provider"
	"github.com/morezero/json-api-router/pkg/result"
)

const logPrefix = "handlers:v1"

// Version is the API version served by this package.
const Version = 1

// Procedure names.
const (
	ProcGetSupportedProcedures = "getSupportedProcedures"
	ProcGetProduct             = "getProduct"
	ProcGetOrder               = "getOrder"
	ProcGetOrders              = "getOrders"
)

// Warning messages.
const (
	MsgProductNotExists = "That product does not exist"
	MsgOrderNotExists   = "That order does not exist"
)

type handlers struct {
	catalog catalog.Catalog
	set     *provider.HandlerSet
}

// NewHandlerSet builds the version-1 handler-set.
func NewHandlerSet(cat catalog.Catalog) (*provider.HandlerSet, error) {
	if cat == nil {
		return nil, fmt.Errorf("%s - catalog is required", logPrefix)
	}
	h := &handlers{catalog: cat, set: provider.NewHandlerSet(Version)}

	procs := []provider.Procedure{
		{
			Name:        ProcGetSupportedProcedures,
			Description: "Lists the procedures available in this version",
			Handler:     h.getSupportedProcedures,
		},
		{
			Name:        ProcGetProduct,
			Description: "Returns one product by id",
			Args:        arguments.Rules{"id": "required,numeric"},
			Handler:     h.getProduct,
		},
		{
			Name:        ProcGetOrder,
			Description: "Returns one order with its items",
			Args:        arguments.Rules{"id": "required,numeric"},
			Handler:     h.getOrder,
		},
		{
			Name:        ProcGetOrders,
			Description: "Lists orders newest first",
			Args: arguments.Rules{
				"page":     "omitempty,numeric,min=1",
				"per_page": fmt.Sprintf("omitempty,numeric,min=1,max=%d", catalog.MaxPerPage),
			},
			Handler: h.getOrders,
		},
	}
	for _, p := range procs {
		if err := h.set.Register(p); err != nil {
			return nil, err
		}
	}
	return h.set, nil
}

func (h *handlers) getSupportedProcedures(_ context.Context, call provider.Call) error {
	call.Result.SetPayload(h.set.Procedures())
	return nil
}

func (h *handlers) getProduct(ctx context.Context, call provider.Call) error {
	id := int64(payload.IntArg(call.Arguments, "id", 0))
	p, err := h.catalog.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		slog.Debug(fmt.Sprintf("%s - product %d not found", logPrefix, id))
		call.Result.AddWarning(MsgProductNotExists, result.ProductNotExists)
		return nil
	}
	call.Result.SetPayload(p)
	return nil
}

func (h *handlers) getOrder(ctx context.Context, call provider.Call) error {
	id := int64(payload.IntArg(call.Arguments, "id", 0))
	o, err := h.catalog.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	if o == nil {
		slog.Debug(fmt.Sprintf("%s - order %d not found", logPrefix, id))
		call.Result.AddWarning(MsgOrderNotExists, result.OrderNotExists)
		return nil
	}
	call.Result.SetPayload(o)
	return nil
}

func (h *handlers) getOrders(ctx context.Context, call provider.Call) error {
	page := payload.IntArg(call.Arguments, "page", 1)
	perPage := payload.IntArg(call.Arguments, "per_page", catalog.DefaultPerPage)
	orders, err := h.catalog.ListOrders(ctx, page, perPage)
	if err != nil {
		return err
	}
	call.Result.SetPayload(orders)
	return nil
}
