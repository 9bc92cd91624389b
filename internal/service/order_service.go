package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/apierror"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/auth"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/dto"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/metrics"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/model"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/pricing"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	OrderNumberPrefix = "B2B-"

	// orderNumberAttempts bounds the re-salt loop on unique violations.
	orderNumberAttempts = 3

	compensateAttempts = 3
	compensateBackoff  = 50 * time.Millisecond
)

// errItems marks a failure of the item insert inside the order transaction.
type errItems struct{ err error }

func (e errItems) Error() string { return "insert order items: " + e.err.Error() }
func (e errItems) Unwrap() error { return e.err }

// Notifier receives committed orders. Failures are logged, never returned to
// the caller that placed the order.
type Notifier interface {
	OrderPlaced(ctx context.Context, order *model.B2BOrder, company *model.Company) error
}

type OrderService interface {
	CreateOrder(ctx context.Context, caller auth.Principal, req dto.CreateOrderRequest) (*dto.OrderResponse, error)
	GetOrder(ctx context.Context, caller auth.Principal, id uuid.UUID) (*dto.OrderResponse, error)
	ListOrders(ctx context.Context, caller auth.Principal, filter dto.OrderFilter) ([]dto.OrderResponse, error)
	UpdateOrder(ctx context.Context, caller auth.Principal, id uuid.UUID, req dto.UpdateOrderRequest) (*dto.OrderResponse, error)
	DeleteOrder(ctx context.Context, caller auth.Principal, id uuid.UUID) error
}

type orderService struct {
	orders        repository.OrderRepository
	companies     repository.CompanyRepository
	products      repository.ProductRepository
	notifier      Notifier
	metrics       *metrics.Metrics
	notifyTimeout time.Duration
	now           func() time.Time
}

func NewOrderService(
	orders repository.OrderRepository,
	companies repository.CompanyRepository,
	products repository.ProductRepository,
	notifier Notifier,
	m *metrics.Metrics,
	notifyTimeout time.Duration,
) OrderService {
	if notifyTimeout <= 0 {
		notifyTimeout = 5 * time.Second
	}
	return &orderService{
		orders:        orders,
		companies:     companies,
		products:      products,
		notifier:      notifier,
		metrics:       m,
		notifyTimeout: notifyTimeout,
		now:           time.Now,
	}
}

// ── CreateOrder ───────────────────────────────────────────────────────────────
//   1. validate caller and cart, resolve company and product snapshots
//   2. price the cart with the company's current discount
//   3. insert header and items in one transaction, re-salting the order
//      number and starting over on collision
//   4. without a database the writes are not transactional: a header whose
//      items failed is deleted again (compensate)
//   5. notify out of band

func (s *orderService) CreateOrder(ctx context.Context, caller auth.Principal, req dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	if err := auth.RequireCompany(caller); err != nil {
		return nil, err
	}
	if len(req.Items) == 0 {
		return nil, apierror.InvalidInput("cart is empty")
	}

	company, err := s.companies.FindByID(ctx, caller.CompanyID)
	if err != nil {
		return nil, err
	}

	items, lines, err := s.resolveCart(ctx, req.Items)
	if err != nil {
		return nil, err
	}
	quote, err := pricing.Price(lines, company.DiscountPercent)
	if err != nil {
		return nil, err
	}
	quote = quote.Rounded()

	order := &model.B2BOrder{
		CompanyID:       company.ID,
		Status:          model.OrderPending,
		Subtotal:        quote.Subtotal,
		DiscountPercent: company.DiscountPercent,
		DiscountAmount:  quote.DiscountAmount,
		TotalAmount:     quote.Total,
		Notes:           strings.TrimSpace(req.Notes),
	}
	if err := s.insertOrder(ctx, order, items); err != nil {
		return nil, err
	}

	order.Items = items
	order.Company = company
	s.metrics.OrderCreated()
	log.Info().
		Str("order_number", order.OrderNumber).
		Str("company_id", company.ID.String()).
		Str("total", order.TotalAmount.StringFixed(2)).
		Int("items", len(items)).
		Msg("b2b: order created")

	s.notify(ctx, order, company)

	resp := orderToResponse(order, caller)
	return &resp, nil
}

// resolveCart snapshots each line from the catalogue. Any unknown or inactive
// product rejects the whole cart.
func (s *orderService) resolveCart(ctx context.Context, reqItems []dto.OrderItemRequest) ([]model.B2BOrderItem, []pricing.Line, error) {
	ids := make([]uuid.UUID, len(reqItems))
	for i, it := range reqItems {
		id, err := uuid.Parse(it.ProductID)
		if err != nil {
			return nil, nil, apierror.InvalidInput(fmt.Sprintf("line %d: invalid product_id", i+1))
		}
		if it.Quantity <= 0 {
			return nil, nil, apierror.InvalidInput(fmt.Sprintf("line %d: quantity must be greater than zero", i+1))
		}
		ids[i] = id
	}

	found, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	byID := make(map[uuid.UUID]model.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}

	items := make([]model.B2BOrderItem, len(reqItems))
	lines := make([]pricing.Line, len(reqItems))
	for i, it := range reqItems {
		p, ok := byID[ids[i]]
		if !ok || !p.Active {
			return nil, nil, apierror.InvalidInput(fmt.Sprintf("product %s is not available", it.ProductID))
		}
		lines[i] = pricing.Line{UnitPrice: p.Price, Quantity: it.Quantity}
		items[i] = model.B2BOrderItem{
			ProductID:    p.ID,
			ProductName:  p.Name,
			Quantity:     it.Quantity,
			UnitPrice:    p.Price,
			TotalPrice:   lines[i].Total().Round(pricing.CurrencyPlaces),
			ProductImage: p.Image,
			PriceUnit:    p.PriceUnit,
		}
	}
	return items, lines, nil
}

func (s *orderService) insertOrder(ctx context.Context, order *model.B2BOrder, items []model.B2BOrderItem) error {
	db := s.orders.DB()
	salt := ""
	var err error
	for attempt := 1; attempt <= orderNumberAttempts; attempt++ {
		order.OrderNumber = orderNumber(s.now(), salt)
		err = runTx(ctx, db, func(tx *gorm.DB) error {
			if err := s.orders.CreateTx(tx, order); err != nil {
				return err
			}
			for i := range items {
				items[i].OrderID = order.ID
			}
			if err := s.orders.CreateItemsTx(tx, items); err != nil {
				return errItems{err}
			}
			return nil
		})
		if err == nil {
			return nil
		}

		var itemsErr errItems
		if errors.As(err, &itemsErr) {
			if db == nil {
				s.compensate(ctx, order, itemsErr.err)
			}
			return apierror.Dependency("failed to save order items", itemsErr.err)
		}
		if !errors.Is(err, apierror.ErrConflict) {
			return apierror.Dependency("failed to save order", err)
		}
		log.Warn().
			Str("order_number", order.OrderNumber).
			Int("attempt", attempt).
			Msg("b2b: order number collision, re-salting")
		salt = orderNumberSalt()
		order.ID = uuid.Nil
	}
	return apierror.Conflict("could not allocate an order number, please retry", err)
}

// compensate deletes a header whose items could not be stored, retrying a
// bounded number of times. It runs even when the request context is already
// cancelled.
func (s *orderService) compensate(ctx context.Context, order *model.B2BOrder, cause error) {
	dctx := context.WithoutCancel(ctx)
	var delErr error
	for attempt := 1; attempt <= compensateAttempts; attempt++ {
		delErr = s.orders.Delete(dctx, order.ID)
		if delErr == nil || errors.Is(delErr, apierror.ErrNotFound) {
			delErr = nil
			break
		}
		log.Warn().
			Err(delErr).
			Str("order_number", order.OrderNumber).
			Int("attempt", attempt).
			Msg("b2b: compensating delete failed, retrying")
		time.Sleep(compensateBackoff * time.Duration(attempt))
	}
	s.metrics.OrderCompensated(delErr == nil)
	if delErr != nil {
		log.Error().
			Err(delErr).
			AnErr("cause", cause).
			Str("order_id", order.ID.String()).
			Str("order_number", order.OrderNumber).
			Msg("b2b: compensating delete failed, orphan order header")
		return
	}
	log.Warn().
		Err(cause).
		Str("order_number", order.OrderNumber).
		Msg("b2b: item insert failed, order header removed")
}

// notify runs the notifier on its own goroutine and deadline.
func (s *orderService) notify(ctx context.Context, order *model.B2BOrder, company *model.Company) {
	if s.notifier == nil {
		return
	}
	o, c := *order, *company
	base := context.WithoutCancel(ctx)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.metrics.NotificationFailed("order_placed")
				log.Error().Interface("panic", r).Str("order_number", o.OrderNumber).Msg("b2b: notifier panicked")
			}
		}()
		nctx, cancel := context.WithTimeout(base, s.notifyTimeout)
		defer cancel()
		if err := s.notifier.OrderPlaced(nctx, &o, &c); err != nil {
			s.metrics.NotificationFailed("order_placed")
			log.Warn().Err(err).Str("order_number", o.OrderNumber).Msg("b2b: order notification failed")
		}
	}()
}

func orderNumber(now time.Time, salt string) string {
	n := OrderNumberPrefix + strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
	if salt != "" {
		n += "-" + salt
	}
	return n
}

func orderNumberSalt() string {
	const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	return string([]byte{alphabet[rand.Intn(len(alphabet))], alphabet[rand.Intn(len(alphabet))]})
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *orderService) GetOrder(ctx context.Context, caller auth.Principal, id uuid.UUID) (*dto.OrderResponse, error) {
	if err := auth.RequireAny(caller); err != nil {
		return nil, err
	}
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// Another tenant's order is reported exactly like a missing one.
	if caller.IsCompany() && order.CompanyID != caller.CompanyID {
		return nil, apierror.NotFound("order not found")
	}
	resp := orderToResponse(order, caller)
	return &resp, nil
}

func (s *orderService) ListOrders(ctx context.Context, caller auth.Principal, filter dto.OrderFilter) ([]dto.OrderResponse, error) {
	if err := auth.RequireAny(caller); err != nil {
		return nil, err
	}
	repoFilter := repository.OrderFilter{}
	if filter.Status != "" {
		status := model.OrderStatus(filter.Status)
		if !status.Valid() {
			return nil, apierror.InvalidInput(fmt.Sprintf("unknown order status %q", filter.Status))
		}
		repoFilter.Status = status
	}
	if caller.IsCompany() {
		cid := caller.CompanyID
		repoFilter.CompanyID = &cid
	}

	orders, err := s.orders.List(ctx, repoFilter)
	if err != nil {
		return nil, err
	}
	out := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		if caller.IsCompany() && orders[i].CompanyID != caller.CompanyID {
			continue
		}
		out = append(out, orderToResponse(&orders[i], caller))
	}
	return out, nil
}

// ── Staff mutations ───────────────────────────────────────────────────────────

func (s *orderService) UpdateOrder(ctx context.Context, caller auth.Principal, id uuid.UUID, req dto.UpdateOrderRequest) (*dto.OrderResponse, error) {
	if err := auth.RequireStaff(caller); err != nil {
		return nil, err
	}
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Status != nil {
		status := model.OrderStatus(*req.Status)
		if !status.Valid() {
			return nil, apierror.InvalidInput(fmt.Sprintf("unknown order status %q", *req.Status))
		}
		stampStatus(order, status, caller.Actor(), s.now())
	}
	if req.AdminNotes != nil {
		order.AdminNotes = *req.AdminNotes
	}
	if req.TrackingNumber != nil {
		order.TrackingNumber = *req.TrackingNumber
	}

	if err := s.orders.Update(ctx, order); err != nil {
		return nil, err
	}
	log.Info().
		Str("order_number", order.OrderNumber).
		Str("status", string(order.Status)).
		Str("by", caller.Actor()).
		Msg("b2b: order updated")

	resp := orderToResponse(order, caller)
	return &resp, nil
}

// stampStatus sets the status and its timestamp. Transitions are free-form.
func stampStatus(o *model.B2BOrder, status model.OrderStatus, actor string, now time.Time) {
	o.Status = status
	switch status {
	case model.OrderConfirmed:
		o.ConfirmedAt = &now
		o.ConfirmedBy = &actor
	case model.OrderProcessing:
		o.ProcessingAt = &now
	case model.OrderShipped:
		o.ShippedAt = &now
	case model.OrderDelivered:
		o.DeliveredAt = &now
	case model.OrderCancelled:
		o.CancelledAt = &now
		o.CancelledBy = &actor
	}
}

func (s *orderService) DeleteOrder(ctx context.Context, caller auth.Principal, id uuid.UUID) error {
	if err := auth.RequireStaff(caller); err != nil {
		return err
	}
	if err := s.orders.Delete(ctx, id); err != nil {
		return err
	}
	log.Info().Str("order_id", id.String()).Str("by", caller.Actor()).Msg("b2b: order deleted")
	return nil
}

// orderToResponse hides admin notes from company principals.
func orderToResponse(o *model.B2BOrder, caller auth.Principal) dto.OrderResponse {
	resp := dto.OrderResponse{
		ID:              o.ID.String(),
		CompanyID:       o.CompanyID.String(),
		OrderNumber:     o.OrderNumber,
		Status:          string(o.Status),
		Subtotal:        o.Subtotal,
		DiscountPercent: o.DiscountPercent,
		DiscountAmount:  o.DiscountAmount,
		TotalAmount:     o.TotalAmount,
		Notes:           o.Notes,
		TrackingNumber:  o.TrackingNumber,
		ConfirmedAt:     formatTimePtr(o.ConfirmedAt),
		ProcessingAt:    formatTimePtr(o.ProcessingAt),
		ShippedAt:       formatTimePtr(o.ShippedAt),
		DeliveredAt:     formatTimePtr(o.DeliveredAt),
		CancelledAt:     formatTimePtr(o.CancelledAt),
		CreatedAt:       formatTime(o.CreatedAt),
		Items:           make([]dto.OrderItemResponse, len(o.Items)),
	}
	if caller.IsStaff() {
		resp.AdminNotes = o.AdminNotes
		resp.ConfirmedBy = o.ConfirmedBy
		resp.CancelledBy = o.CancelledBy
	}
	if o.Company != nil {
		resp.Company = &dto.CompanySummary{
			ID:    o.Company.ID.String(),
			Name:  o.Company.Name,
			Email: o.Company.Email,
			Tier:  o.Company.Tier,
		}
	}
	for i, it := range o.Items {
		resp.Items[i] = dto.OrderItemResponse{
			ID:           it.ID.String(),
			ProductID:    it.ProductID.String(),
			ProductName:  it.ProductName,
			Quantity:     it.Quantity,
			UnitPrice:    it.UnitPrice,
			TotalPrice:   it.TotalPrice,
			ProductImage: it.ProductImage,
			PriceUnit:    it.PriceUnit,
		}
	}
	return resp
}
