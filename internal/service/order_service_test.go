package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/apierror"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/auth"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/dto"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/model"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/repository/memory"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type orderFixture struct {
	companies *memory.CompanyRepository
	products  *memory.ProductRepository
	orders    *memory.OrderRepository
	notifier  *recordingNotifier
	svc       service.OrderService
}

func newOrderFixture(notifyErr error) *orderFixture {
	f := &orderFixture{
		companies: memory.NewCompanyRepository(),
		products:  memory.NewProductRepository(),
		notifier:  newRecordingNotifier(notifyErr),
	}
	f.orders = memory.NewOrderRepository(f.companies)
	f.svc = service.NewOrderService(f.orders, f.companies, f.products, f.notifier, nil, time.Second)
	return f
}

func (f *orderFixture) company(t *testing.T, name, tierName string, pct int64) auth.Principal {
	t.Helper()
	c := &model.Company{
		Name:                 name,
		IdentificationNumber: uuid.NewString()[:10],
		Email:                uuid.NewString()[:8] + "@example.com",
		Status:               model.CompanyApproved,
		Tier:                 tierName,
		DiscountPercent:      decimal.NewFromInt(pct),
		PaymentTermsDays:     30,
	}
	require.NoError(t, f.companies.Create(context.Background(), c))
	return auth.Company(c.ID, c.Name)
}

func (f *orderFixture) goldCart() dto.CreateOrderRequest {
	a := f.products.Put(product("Hydrangea", 10))
	b := f.products.Put(product("Begonia", 5))
	return dto.CreateOrderRequest{
		Items: []dto.OrderItemRequest{
			{ProductID: a.ID.String(), Quantity: 3},
			{ProductID: b.ID.String(), Quantity: 2},
		},
		Notes: "deliver before noon",
	}
}

func (f *orderFixture) waitNotified(t *testing.T) {
	t.Helper()
	select {
	case <-f.notifier.done:
	case <-time.After(2 * time.Second):
		t.Fatal("notifier was not called")
	}
}

func TestCreateOrder_GoldTier(t *testing.T) {
	f := newOrderFixture(nil)
	caller := f.company(t, "Green Leaf Ltd", "gold", 20)

	got, err := f.svc.CreateOrder(context.Background(), caller, f.goldCart())
	require.NoError(t, err)

	assert.Equal(t, "40", got.Subtotal.String())
	assert.Equal(t, "20", got.DiscountPercent.String())
	assert.Equal(t, "8", got.DiscountAmount.String())
	assert.Equal(t, "32", got.TotalAmount.String())
	assert.Equal(t, string(model.OrderPending), got.Status)
	assert.Regexp(t, `^B2B-[0-9A-Z]+$`, got.OrderNumber)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Hydrangea", got.Items[0].ProductName)
	assert.Equal(t, "30", got.Items[0].TotalPrice.String())
	assert.Equal(t, 1, f.orders.Count())

	f.waitNotified(t)
	assert.Equal(t, 1, f.notifier.count())
}

func TestCreateOrder_EmptyCart(t *testing.T) {
	f := newOrderFixture(nil)
	caller := f.company(t, "Acme", "silver", 10)

	_, err := f.svc.CreateOrder(context.Background(), caller, dto.CreateOrderRequest{})
	assert.True(t, errors.Is(err, apierror.ErrInvalidInput))
	assert.Equal(t, 0, f.orders.Count())
}

func TestCreateOrder_InvalidLineRejectsWholeCart(t *testing.T) {
	f := newOrderFixture(nil)
	caller := f.company(t, "Acme", "silver", 10)
	req := f.goldCart()

	inactive := product("Retired shrub", 3)
	inactive.Active = false
	inactive = f.products.Put(inactive)
	free := f.products.Put(product("Free seeds", 0))

	cases := map[string]dto.OrderItemRequest{
		"unknown product": {ProductID: uuid.NewString(), Quantity: 1},
		"inactive":        {ProductID: inactive.ID.String(), Quantity: 1},
		"zero price":      {ProductID: free.ID.String(), Quantity: 1},
		"zero quantity":   {ProductID: req.Items[0].ProductID, Quantity: 0},
		"bad id":          {ProductID: "not-a-uuid", Quantity: 1},
	}
	for name, bad := range cases {
		t.Run(name, func(t *testing.T) {
			cart := dto.CreateOrderRequest{Items: append(append([]dto.OrderItemRequest(nil), req.Items...), bad)}
			_, err := f.svc.CreateOrder(context.Background(), caller, cart)
			assert.True(t, errors.Is(err, apierror.ErrInvalidInput), err)
		})
	}
	assert.Equal(t, 0, f.orders.Count())
}

func TestCreateOrder_ItemFailureCompensates(t *testing.T) {
	f := newOrderFixture(nil)
	caller := f.company(t, "Acme", "gold", 20)
	f.orders.ItemsErr = errors.New("connection reset")

	_, err := f.svc.CreateOrder(context.Background(), caller, f.goldCart())
	assert.True(t, errors.Is(err, apierror.ErrDependency))
	assert.Equal(t, 0, f.orders.Count())
	assert.Equal(t, 0, f.orders.Staged())
	assert.Equal(t, 0, f.notifier.count())
}

func TestCreateOrder_CompensationRetriesDelete(t *testing.T) {
	f := newOrderFixture(nil)
	caller := f.company(t, "Acme", "gold", 20)
	f.orders.ItemsErr = errors.New("connection reset")
	f.orders.DeleteFailures = 2

	_, err := f.svc.CreateOrder(context.Background(), caller, f.goldCart())
	assert.True(t, errors.Is(err, apierror.ErrDependency))
	assert.Equal(t, 0, f.orders.Staged())
	assert.Equal(t, 0, f.orders.DeleteFailures)
}

// itemsWatcher lists orders from inside the item insert, the moment a
// concurrent reader could catch a header without items.
type itemsWatcher struct {
	*memory.OrderRepository
	svc     service.OrderService
	company auth.Principal
	listed  []int
	lookups []error
}

func (r *itemsWatcher) CreateItemsTx(tx *gorm.DB, items []model.B2BOrderItem) error {
	ctx := context.Background()
	all, err := r.svc.ListOrders(ctx, staff, dto.OrderFilter{})
	if err != nil {
		return err
	}
	r.listed = append(r.listed, len(all))
	_, err = r.svc.GetOrder(ctx, r.company, items[0].OrderID)
	r.lookups = append(r.lookups, err)
	return r.OrderRepository.CreateItemsTx(tx, items)
}

func TestCreateOrder_HeaderInvisibleUntilItemsStored(t *testing.T) {
	f := newOrderFixture(nil)
	caller := f.company(t, "Acme", "gold", 20)
	watcher := &itemsWatcher{OrderRepository: f.orders, company: caller}
	svc := service.NewOrderService(watcher, f.companies, f.products, nil, nil, time.Second)
	watcher.svc = svc

	got, err := svc.CreateOrder(context.Background(), caller, f.goldCart())
	require.NoError(t, err)

	require.Equal(t, []int{0}, watcher.listed)
	require.Len(t, watcher.lookups, 1)
	assert.True(t, errors.Is(watcher.lookups[0], apierror.ErrNotFound))

	all, err := svc.ListOrders(context.Background(), staff, dto.OrderFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, got.OrderNumber, all[0].OrderNumber)
	assert.Len(t, all[0].Items, 2)
}

func TestCreateOrder_CompensatesWithCancelledContext(t *testing.T) {
	f := newOrderFixture(nil)
	caller := f.company(t, "Acme", "gold", 20)
	f.orders.ItemsErr = context.Canceled

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.svc.CreateOrder(ctx, caller, f.goldCart())
	assert.Error(t, err)
	assert.Equal(t, 0, f.orders.Count())
}

func TestCreateOrder_ResaltsOnNumberCollision(t *testing.T) {
	f := newOrderFixture(nil)
	caller := f.company(t, "Acme", "gold", 20)
	f.orders.CreateConflicts = 2

	got, err := f.svc.CreateOrder(context.Background(), caller, f.goldCart())
	require.NoError(t, err)
	assert.Regexp(t, `^B2B-[0-9A-Z]+-[0-9A-Z]{2}$`, got.OrderNumber)
	assert.Equal(t, 1, f.orders.Count())
}

func TestCreateOrder_GivesUpAfterRepeatedCollisions(t *testing.T) {
	f := newOrderFixture(nil)
	caller := f.company(t, "Acme", "gold", 20)
	f.orders.CreateConflicts = 3

	_, err := f.svc.CreateOrder(context.Background(), caller, f.goldCart())
	assert.True(t, errors.Is(err, apierror.ErrConflict))
	assert.Equal(t, 0, f.orders.Count())
}

func TestCreateOrder_NotifierFailureDoesNotFailOrder(t *testing.T) {
	f := newOrderFixture(errors.New("smtp down"))
	caller := f.company(t, "Acme", "gold", 20)

	got, err := f.svc.CreateOrder(context.Background(), caller, f.goldCart())
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	f.waitNotified(t)
	assert.Equal(t, 1, f.orders.Count())
}

func TestCreateOrder_CallerChecks(t *testing.T) {
	f := newOrderFixture(nil)
	cart := f.goldCart()

	_, err := f.svc.CreateOrder(context.Background(), nobody, cart)
	assert.True(t, errors.Is(err, apierror.ErrUnauthorized))
	_, err = f.svc.CreateOrder(context.Background(), staff, cart)
	assert.True(t, errors.Is(err, apierror.ErrForbidden))
	assert.Equal(t, 0, f.orders.Count())
}

// Changing a company's discount later leaves placed orders untouched.
func TestCreateOrder_SnapshotSurvivesTierChange(t *testing.T) {
	f := newOrderFixture(nil)
	caller := f.company(t, "Acme", "gold", 20)
	placed, err := f.svc.CreateOrder(context.Background(), caller, f.goldCart())
	require.NoError(t, err)

	c, err := f.companies.FindByID(context.Background(), caller.CompanyID)
	require.NoError(t, err)
	c.Tier, c.DiscountPercent = "platinum", decimal.NewFromInt(30)
	require.NoError(t, f.companies.Update(context.Background(), c))

	id := uuid.MustParse(placed.ID)
	got, err := f.svc.GetOrder(context.Background(), caller, id)
	require.NoError(t, err)
	assert.Equal(t, "20", got.DiscountPercent.String())
	assert.Equal(t, "32", got.TotalAmount.String())
}

func TestOrders_TenantVisibility(t *testing.T) {
	f := newOrderFixture(nil)
	ctx := context.Background()
	alpha := f.company(t, "Alpha", "gold", 20)
	beta := f.company(t, "Beta", "silver", 10)

	a, err := f.svc.CreateOrder(ctx, alpha, f.goldCart())
	require.NoError(t, err)
	_, err = f.svc.CreateOrder(ctx, beta, f.goldCart())
	require.NoError(t, err)
	_, err = f.svc.CreateOrder(ctx, beta, f.goldCart())
	require.NoError(t, err)

	_, err = f.svc.GetOrder(ctx, beta, uuid.MustParse(a.ID))
	assert.True(t, errors.Is(err, apierror.ErrNotFound))

	mine, err := f.svc.ListOrders(ctx, beta, dto.OrderFilter{})
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	for _, o := range mine {
		assert.Equal(t, beta.CompanyID.String(), o.CompanyID)
	}

	all, err := f.svc.ListOrders(ctx, staff, dto.OrderFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = f.svc.ListOrders(ctx, nobody, dto.OrderFilter{})
	assert.True(t, errors.Is(err, apierror.ErrUnauthorized))
}

func TestUpdateOrder_StampsAndHidesAdminNotes(t *testing.T) {
	f := newOrderFixture(nil)
	ctx := context.Background()
	caller := f.company(t, "Acme", "gold", 20)
	placed, err := f.svc.CreateOrder(ctx, caller, f.goldCart())
	require.NoError(t, err)
	id := uuid.MustParse(placed.ID)

	updated, err := f.svc.UpdateOrder(ctx, staff, id, dto.UpdateOrderRequest{
		Status:         strPtr("confirmed"),
		AdminNotes:     strPtr("call before delivery"),
		TrackingNumber: strPtr("TRK-1"),
	})
	require.NoError(t, err)
	assert.Equal(t, "confirmed", updated.Status)
	require.NotNil(t, updated.ConfirmedAt)
	require.NotNil(t, updated.ConfirmedBy)
	assert.Equal(t, "maria", *updated.ConfirmedBy)
	assert.Equal(t, "call before delivery", updated.AdminNotes)

	updated, err = f.svc.UpdateOrder(ctx, staff, id, dto.UpdateOrderRequest{Status: strPtr("shipped")})
	require.NoError(t, err)
	assert.NotNil(t, updated.ShippedAt)
	assert.Equal(t, "TRK-1", updated.TrackingNumber)

	seen, err := f.svc.GetOrder(ctx, caller, id)
	require.NoError(t, err)
	assert.Empty(t, seen.AdminNotes)
	assert.Nil(t, seen.ConfirmedBy)
	assert.Equal(t, "TRK-1", seen.TrackingNumber)

	_, err = f.svc.UpdateOrder(ctx, caller, id, dto.UpdateOrderRequest{Status: strPtr("delivered")})
	assert.True(t, errors.Is(err, apierror.ErrForbidden))
	_, err = f.svc.UpdateOrder(ctx, staff, id, dto.UpdateOrderRequest{Status: strPtr("lost")})
	assert.True(t, errors.Is(err, apierror.ErrInvalidInput))
}

func TestDeleteOrder(t *testing.T) {
	f := newOrderFixture(nil)
	ctx := context.Background()
	caller := f.company(t, "Acme", "gold", 20)
	placed, err := f.svc.CreateOrder(ctx, caller, f.goldCart())
	require.NoError(t, err)
	id := uuid.MustParse(placed.ID)

	assert.True(t, errors.Is(f.svc.DeleteOrder(ctx, caller, id), apierror.ErrForbidden))
	require.NoError(t, f.svc.DeleteOrder(ctx, staff, id))
	assert.Equal(t, 0, f.orders.Count())
	assert.True(t, errors.Is(f.svc.DeleteOrder(ctx, staff, id), apierror.ErrNotFound))
}
