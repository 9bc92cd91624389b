package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/auth"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/dto"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/handler"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/middleware"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/model"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/repository/memory"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const staffPassword = "greenhouse-42"

type testAPI struct {
	engine    *gin.Engine
	products  *memory.ProductRepository
	companies *memory.CompanyRepository
}

func newTestAPI(t *testing.T, loginLimiter *middleware.Limiter) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	api := &testAPI{
		products:  memory.NewProductRepository(),
		companies: memory.NewCompanyRepository(),
	}
	stock := memory.NewStockRepository()
	movements := memory.NewMovementRepository()
	orders := memory.NewOrderRepository(api.companies)
	staffUsers := memory.NewStaffUserRepository()

	hash, err := bcrypt.GenerateFromPassword([]byte(staffPassword), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, staffUsers.Create(context.Background(), &model.StaffUser{
		Username: "maria", Name: "Maria", PasswordHash: string(hash), Role: "admin", Active: true,
	}))

	issuer := auth.NewIssuer("staff-secret", "b2b-secret", time.Hour)
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	Mount(r, Handlers{
		Stock:     handler.NewStockHandler(service.NewStockService(api.products, stock, movements, nil, 3)),
		Orders:    handler.NewOrdersHandler(service.NewOrderService(orders, api.companies, api.products, nil, nil, time.Second)),
		Companies: handler.NewCompaniesHandler(service.NewCompanyService(api.companies)),
		Auth:      handler.NewAuthHandler(service.NewAuthService(staffUsers, api.companies, issuer), false),
	}, auth.NewTokenGate(issuer), loginLimiter)
	api.engine = r
	return api
}

type call struct {
	method string
	path   string
	body   interface{}
	token  string
	cookie *http.Cookie
}

func (a *testAPI) do(t *testing.T, c call) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if c.body != nil {
		switch b := c.body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(c.method, c.path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func (a *testAPI) staffToken(t *testing.T) string {
	t.Helper()
	w := a.do(t, call{method: http.MethodPost, path: "/v1/auth/staff/login",
		body: dto.LoginRequest{Username: "maria", Password: staffPassword}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp dto.LoginResponse
	decode(t, w, &resp)
	return resp.AccessToken
}

func (a *testAPI) product(name string, price int64) model.Product {
	return a.products.Put(model.Product{
		Name: name, Category: "plants", Price: decimal.NewFromInt(price), PriceUnit: "piece", Active: true,
	})
}

func TestAnonymousCallerRejected(t *testing.T) {
	api := newTestAPI(t, nil)
	id := uuid.NewString()
	routes := []call{
		{method: http.MethodGet, path: "/v1/stock"},
		{method: http.MethodGet, path: "/v1/stock/export"},
		{method: http.MethodGet, path: "/v1/stock/movements"},
		{method: http.MethodGet, path: "/v1/stock/" + id},
		{method: http.MethodPost, path: "/v1/stock/" + id + "/movements", body: dto.MovementRequest{Kind: "incoming", Quantity: 1}},
		{method: http.MethodPost, path: "/v1/b2b/orders", body: dto.CreateOrderRequest{}},
		{method: http.MethodGet, path: "/v1/b2b/orders"},
		{method: http.MethodGet, path: "/v1/b2b/orders/" + id},
		{method: http.MethodPatch, path: "/v1/b2b/orders/" + id, body: dto.UpdateOrderRequest{}},
		{method: http.MethodDelete, path: "/v1/b2b/orders/" + id},
		{method: http.MethodGet, path: "/v1/b2b/companies"},
		{method: http.MethodGet, path: "/v1/tiers"},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			w := api.do(t, rt)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), `"code":"unauthorized"`)
		})
	}

	// a forged token is treated as no token
	w := api.do(t, call{method: http.MethodGet, path: "/v1/stock", token: "not-a-jwt"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStaffLedgerFlow(t *testing.T) {
	api := newTestAPI(t, nil)
	tok := api.staffToken(t)
	p := api.product("Ficus lyrata", 18)
	movementsPath := "/v1/stock/" + p.ID.String() + "/movements"

	w := api.do(t, call{method: http.MethodPost, path: movementsPath, token: tok,
		body: dto.MovementRequest{Kind: "incoming", Quantity: 50, DocumentNumber: "INV-7"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = api.do(t, call{method: http.MethodPost, path: movementsPath, token: tok,
		body: dto.MovementRequest{Kind: "outgoing", Quantity: 70}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var res dto.MovementResult
	decode(t, w, &res)
	assert.Equal(t, 50, res.PreviousQuantity)
	assert.Equal(t, 0, res.NewQuantity)
	assert.Equal(t, 50, res.Movement.QuantityDelta)
	assert.Equal(t, 70, res.Movement.RequestedQuantity)
	assert.Equal(t, "maria", res.Movement.CreatedBy)

	w = api.do(t, call{method: http.MethodGet, path: "/v1/stock/" + p.ID.String(), token: tok})
	require.Equal(t, http.StatusOK, w.Code)
	var view dto.StockResponse
	decode(t, w, &view)
	assert.Equal(t, 0, view.Quantity)
	assert.True(t, view.IsLow)

	w = api.do(t, call{method: http.MethodGet, path: "/v1/stock?low_stock=true", token: tok})
	require.Equal(t, http.StatusOK, w.Code)
	var low []dto.StockResponse
	decode(t, w, &low)
	require.Len(t, low, 1)
	assert.Equal(t, "Ficus lyrata", low[0].ProductName)

	w = api.do(t, call{method: http.MethodGet, path: "/v1/stock/movements?product_id=" + p.ID.String(), token: tok})
	require.Equal(t, http.StatusOK, w.Code)
	var entries []dto.MovementResponse
	decode(t, w, &entries)
	require.Len(t, entries, 2)
	assert.Equal(t, "outgoing", entries[0].Kind)

	w = api.do(t, call{method: http.MethodGet, path: "/v1/stock/export", token: tok})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "spreadsheetml")
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))
}

func TestCompanyOrderFlow(t *testing.T) {
	api := newTestAPI(t, nil)
	staffTok := api.staffToken(t)
	a := api.product("Hydrangea", 10)
	b := api.product("Begonia", 5)

	reg := dto.RegisterCompanyRequest{
		Name: "Verde Landscaping", IdentificationNumber: "BG20455", ContactPerson: "Ivo",
		Email: "Orders@Verde.example", Password: "long-enough-pw",
	}
	w := api.do(t, call{method: http.MethodPost, path: "/v1/b2b/register", body: reg})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var company dto.CompanyResponse
	decode(t, w, &company)
	assert.Equal(t, "pending", company.Status)
	assert.Equal(t, "silver", company.Tier)

	login := dto.CompanyLoginRequest{Email: "orders@verde.example", Password: "long-enough-pw"}
	w = api.do(t, call{method: http.MethodPost, path: "/v1/auth/b2b/login", body: login})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "pending")

	approved, gold := "approved", "gold"
	w = api.do(t, call{method: http.MethodPatch, path: "/v1/b2b/companies/" + company.ID, token: staffTok,
		body: dto.UpdateCompanyRequest{Status: &approved, Tier: &gold}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &company)
	assert.Equal(t, "20", company.DiscountPercent.String())
	require.NotNil(t, company.ApprovedBy)
	assert.Equal(t, "maria", *company.ApprovedBy)

	w = api.do(t, call{method: http.MethodPost, path: "/v1/auth/b2b/login", body: login})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var session *http.Cookie
	for _, ck := range w.Result().Cookies() {
		if ck.Name == auth.CompanyCookie {
			session = ck
		}
	}
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)

	cart := dto.CreateOrderRequest{Items: []dto.OrderItemRequest{
		{ProductID: a.ID.String(), Quantity: 3},
		{ProductID: b.ID.String(), Quantity: 2},
	}}
	w = api.do(t, call{method: http.MethodPost, path: "/v1/b2b/orders", body: cart, cookie: session})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var order dto.OrderResponse
	decode(t, w, &order)
	assert.Equal(t, "40", order.Subtotal.String())
	assert.Equal(t, "8", order.DiscountAmount.String())
	assert.Equal(t, "32", order.TotalAmount.String())
	assert.Equal(t, "pending", order.Status)
	assert.Len(t, order.Items, 2)

	// staff cannot place orders, companies cannot read the ledger
	w = api.do(t, call{method: http.MethodPost, path: "/v1/b2b/orders", body: cart, token: staffTok})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = api.do(t, call{method: http.MethodGet, path: "/v1/stock", cookie: session})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(t, call{method: http.MethodGet, path: "/v1/b2b/orders", cookie: session})
	require.Equal(t, http.StatusOK, w.Code)
	var mine []dto.OrderResponse
	decode(t, w, &mine)
	assert.Len(t, mine, 1)

	// another company sees nothing of it
	other := &model.Company{Name: "Other", IdentificationNumber: "BG99999", Email: "x@other.example",
		Status: model.CompanyApproved, Tier: "silver", DiscountPercent: decimal.NewFromInt(10)}
	require.NoError(t, api.companies.Create(context.Background(), other))
	otherTok, err := auth.NewIssuer("staff-secret", "b2b-secret", time.Hour).IssueCompany(other.ID, other.Name)
	require.NoError(t, err)
	w = api.do(t, call{method: http.MethodGet, path: "/v1/b2b/orders/" + order.ID, token: otherTok})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, call{method: http.MethodDelete, path: "/v1/b2b/orders/" + order.ID, token: staffTok})
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = api.do(t, call{method: http.MethodGet, path: "/v1/b2b/orders/" + order.ID, token: staffTok})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, call{method: http.MethodPost, path: "/v1/auth/b2b/logout", cookie: session})
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRequestValidation(t *testing.T) {
	api := newTestAPI(t, nil)
	tok := api.staffToken(t)
	p := api.product("Olive tree", 90)

	w := api.do(t, call{method: http.MethodPost, path: "/v1/stock/" + p.ID.String() + "/movements", token: tok, body: "{not json"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, call{method: http.MethodPost, path: "/v1/stock/" + p.ID.String() + "/movements", token: tok,
		body: dto.MovementRequest{Kind: "teleport", Quantity: 1}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `"Kind":"oneof"`)

	w = api.do(t, call{method: http.MethodGet, path: "/v1/stock/not-a-uuid", token: tok})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = api.do(t, call{method: http.MethodGet, path: "/v1/stock/movements?kind=teleport", token: tok})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = api.do(t, call{method: http.MethodGet, path: "/v1/stock/" + uuid.NewString(), token: tok})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLoginRateLimited(t *testing.T) {
	api := newTestAPI(t, middleware.NewLimiter(2, time.Minute))
	bad := dto.LoginRequest{Username: "maria", Password: "wrong-password"}
	for i := 0; i < 2; i++ {
		w := api.do(t, call{method: http.MethodPost, path: "/v1/auth/staff/login", body: bad})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}
	w := api.do(t, call{method: http.MethodPost, path: "/v1/auth/staff/login", body: bad})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}
