package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/apierror"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/auth"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/dto"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/infra"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/metrics"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/model"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UnknownProductName marks movements whose product no longer resolves.
const UnknownProductName = "unknown product"

// StockService is the stock ledger. Every operation except LowStockReport
// requires a staff principal.
type StockService interface {
	GetStock(ctx context.Context, caller auth.Principal, productID uuid.UUID) (*dto.StockResponse, error)
	ListStock(ctx context.Context, caller auth.Principal, filter dto.StockFilter) ([]dto.StockResponse, error)
	ApplyMovement(ctx context.Context, caller auth.Principal, productID uuid.UUID, req dto.MovementRequest) (*dto.MovementResult, error)
	ListMovements(ctx context.Context, caller auth.Principal, filter dto.MovementFilter) ([]dto.MovementResponse, error)
	ExportStock(ctx context.Context, caller auth.Principal, filter dto.StockFilter) ([]byte, error)
	// LowStockReport is the system-side view used by the low-stock alert job.
	LowStockReport(ctx context.Context) ([]dto.StockResponse, error)
}

type stockService struct {
	products   repository.ProductRepository
	stock      repository.StockRepository
	movements  repository.MovementRepository
	metrics    *metrics.Metrics
	maxRetries int
}

func NewStockService(
	products repository.ProductRepository,
	stock repository.StockRepository,
	movements repository.MovementRepository,
	m *metrics.Metrics,
	maxRetries int,
) StockService {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &stockService{
		products:   products,
		stock:      stock,
		movements:  movements,
		metrics:    m,
		maxRetries: maxRetries,
	}
}

func (s *stockService) GetStock(ctx context.Context, caller auth.Principal, productID uuid.UUID) (*dto.StockResponse, error) {
	if err := auth.RequireStaff(caller); err != nil {
		return nil, err
	}
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	rec, err := s.stock.FindByProductID(ctx, productID)
	if errors.Is(err, apierror.ErrNotFound) {
		rec = model.NewStockRecord(productID)
	} else if err != nil {
		return nil, err
	}
	resp := stockToResponse(product, rec)
	return &resp, nil
}

func (s *stockService) ListStock(ctx context.Context, caller auth.Principal, filter dto.StockFilter) ([]dto.StockResponse, error) {
	if err := auth.RequireStaff(caller); err != nil {
		return nil, err
	}
	return s.listStock(ctx, filter.LowStockOnly)
}

func (s *stockService) LowStockReport(ctx context.Context) ([]dto.StockResponse, error) {
	return s.listStock(ctx, true)
}

// listStock joins every product with its record, defaulting missing ones.
// Products arrive sorted by name from the repository.
func (s *stockService) listStock(ctx context.Context, lowOnly bool) ([]dto.StockResponse, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}
	records, err := s.stock.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	byProduct := make(map[uuid.UUID]*model.StockRecord, len(records))
	for i := range records {
		byProduct[records[i].ProductID] = &records[i]
	}

	out := make([]dto.StockResponse, 0, len(products))
	for i := range products {
		rec, ok := byProduct[products[i].ID]
		if !ok {
			rec = model.NewStockRecord(products[i].ID)
		}
		if lowOnly && !rec.IsLow() {
			continue
		}
		out = append(out, stockToResponse(&products[i], rec))
	}
	return out, nil
}

// ── ApplyMovement ─────────────────────────────────────────────────────────────
// One transaction per attempt:
//   1. lock the record (SELECT ... FOR UPDATE), or materialize the default
//   2. compute the new quantity for the kind
//   3. append the movement and write the record
// A lost race on the lazy insert surfaces as Conflict and the whole
// read-modify-write is retried up to maxRetries times.

func (s *stockService) ApplyMovement(ctx context.Context, caller auth.Principal, productID uuid.UUID, req dto.MovementRequest) (*dto.MovementResult, error) {
	if err := auth.RequireStaff(caller); err != nil {
		return nil, err
	}
	kind := model.MovementKind(req.Kind)
	if err := validateMovement(kind, req); err != nil {
		return nil, err
	}
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	var mv *model.StockMovement
	for attempt := 1; ; attempt++ {
		mv, err = s.applyOnce(ctx, caller, product.ID, kind, req)
		if err == nil {
			break
		}
		if !errors.Is(err, apierror.ErrConflict) {
			if apierror.KindOf(err) == apierror.KindInternal {
				return nil, apierror.Dependency("failed to record stock movement", err)
			}
			return nil, err
		}
		if attempt >= s.maxRetries {
			return nil, apierror.Conflict("stock record is being updated concurrently, please retry", err)
		}
		s.metrics.StockRetry()
		log.Warn().
			Str("product_id", productID.String()).
			Int("attempt", attempt).
			Msg("stock: movement conflict, retrying")
	}

	s.metrics.StockMovement(string(kind))
	log.Info().
		Str("product_id", productID.String()).
		Str("kind", string(kind)).
		Int("previous", mv.PreviousQuantity).
		Int("new", mv.NewQuantity).
		Str("by", mv.CreatedBy).
		Msg("stock: movement recorded")

	return &dto.MovementResult{
		PreviousQuantity: mv.PreviousQuantity,
		NewQuantity:      mv.NewQuantity,
		Movement:         movementToResponse(mv, product.Name),
	}, nil
}

func (s *stockService) applyOnce(ctx context.Context, caller auth.Principal, productID uuid.UUID, kind model.MovementKind, req dto.MovementRequest) (*model.StockMovement, error) {
	var mv *model.StockMovement
	err := runTx(ctx, s.stock.DB(), func(tx *gorm.DB) error {
		rec, err := s.stock.LockTx(tx, productID)
		if err != nil {
			return err
		}
		if rec == nil {
			// Insert the default first so a racing first movement fails here,
			// before anything else is written.
			rec = model.NewStockRecord(productID)
			if err := s.stock.CreateTx(tx, rec); err != nil {
				return err
			}
		}

		prev := rec.Quantity
		next, delta, err := computeMovement(kind, prev, req.Quantity)
		if err != nil {
			return err
		}

		mv = &model.StockMovement{
			ProductID:         productID,
			Kind:              kind,
			QuantityDelta:     delta,
			RequestedQuantity: req.Quantity,
			PreviousQuantity:  prev,
			NewQuantity:       next,
			Reason:            req.Reason,
			Notes:             req.Notes,
			DocumentNumber:    req.DocumentNumber,
			CreatedBy:         caller.Actor(),
		}
		if req.UnitPrice != nil {
			unit := *req.UnitPrice
			total := unit.Mul(decimal.NewFromInt(int64(pricedQuantity(kind, req.Quantity, delta)))).Round(2)
			mv.UnitPrice = &unit
			mv.TotalPrice = &total
		}
		if err := s.movements.CreateTx(tx, mv); err != nil {
			return fmt.Errorf("append movement: %w", err)
		}

		rec.Quantity = next
		if req.MinQuantity != nil {
			rec.MinQuantity = *req.MinQuantity
		}
		if req.Location != nil {
			rec.Location = *req.Location
		}
		if err := s.stock.SaveTx(tx, rec); err != nil {
			return fmt.Errorf("save stock record: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mv, nil
}

// computeMovement returns the new quantity and the delta to log. Decreases
// clamp at zero and log the amount actually removed; adjustments log the
// signed difference to the target. An increase past model.MaxQuantity is
// rejected as InvalidInput.
func computeMovement(kind model.MovementKind, prev, qty int) (next, delta int, err error) {
	switch kind {
	case model.MovementIncoming:
		if qty > model.MaxQuantity-prev {
			return prev, 0, apierror.InvalidInput(fmt.Sprintf("quantity would exceed the maximum of %d", model.MaxQuantity))
		}
		return prev + qty, qty, nil
	case model.MovementOutgoing, model.MovementWriteoff:
		next = prev - qty
		if next < 0 {
			next = 0
		}
		return next, prev - next, nil
	case model.MovementAdjustment:
		return qty, qty - prev, nil
	}
	return prev, 0, nil
}

// pricedQuantity is the quantity a movement's total price is computed on.
func pricedQuantity(kind model.MovementKind, requested, delta int) int {
	if kind != model.MovementAdjustment {
		return requested
	}
	if delta < 0 {
		return -delta
	}
	return delta
}

func validateMovement(kind model.MovementKind, req dto.MovementRequest) error {
	if !kind.Valid() {
		return apierror.InvalidInput(fmt.Sprintf("unknown movement kind %q", req.Kind))
	}
	if req.Quantity < 0 {
		return apierror.InvalidInput("quantity must not be negative")
	}
	if req.Quantity > model.MaxQuantity {
		return apierror.InvalidInput(fmt.Sprintf("quantity must not exceed %d", model.MaxQuantity))
	}
	if kind != model.MovementAdjustment && req.Quantity == 0 {
		return apierror.InvalidInput("quantity must be greater than zero")
	}
	if req.UnitPrice != nil && req.UnitPrice.IsNegative() {
		return apierror.InvalidInput("unit price must not be negative")
	}
	if req.MinQuantity != nil && (*req.MinQuantity < 0 || *req.MinQuantity > model.MaxQuantity) {
		return apierror.InvalidInput("min quantity is out of range")
	}
	return nil
}

func (s *stockService) ListMovements(ctx context.Context, caller auth.Principal, filter dto.MovementFilter) ([]dto.MovementResponse, error) {
	if err := auth.RequireStaff(caller); err != nil {
		return nil, err
	}

	repoFilter := repository.MovementFilter{Limit: filter.Limit}
	if filter.ProductID != "" {
		pid, err := uuid.Parse(filter.ProductID)
		if err != nil {
			return nil, apierror.InvalidInput("invalid product_id")
		}
		repoFilter.ProductID = &pid
	}
	if filter.Kind != "" {
		kind := model.MovementKind(filter.Kind)
		if !kind.Valid() {
			return nil, apierror.InvalidInput(fmt.Sprintf("unknown movement kind %q", filter.Kind))
		}
		repoFilter.Kind = kind
	}

	movements, err := s.movements.List(ctx, repoFilter)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(movements))
	seen := make(map[uuid.UUID]bool)
	for _, m := range movements {
		if !seen[m.ProductID] {
			seen[m.ProductID] = true
			ids = append(ids, m.ProductID)
		}
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(products))
	for _, p := range products {
		names[p.ID] = p.Name
	}

	out := make([]dto.MovementResponse, len(movements))
	for i := range movements {
		name, ok := names[movements[i].ProductID]
		if !ok {
			name = UnknownProductName
		}
		out[i] = movementToResponse(&movements[i], name)
	}
	return out, nil
}

func (s *stockService) ExportStock(ctx context.Context, caller auth.Principal, filter dto.StockFilter) ([]byte, error) {
	rows, err := s.ListStock(ctx, caller, filter)
	if err != nil {
		return nil, err
	}
	return infra.StockWorkbook(rows)
}

func stockToResponse(p *model.Product, rec *model.StockRecord) dto.StockResponse {
	resp := dto.StockResponse{
		ProductID:   p.ID.String(),
		ProductName: p.Name,
		Category:    p.Category,
		PriceUnit:   p.PriceUnit,
		Quantity:    rec.Quantity,
		MinQuantity: rec.MinQuantity,
		Location:    rec.Location,
		IsLow:       rec.IsLow(),
	}
	if !rec.UpdatedAt.IsZero() {
		resp.UpdatedAt = formatTimePtr(&rec.UpdatedAt)
	}
	return resp
}

func movementToResponse(m *model.StockMovement, productName string) dto.MovementResponse {
	return dto.MovementResponse{
		ID:                m.ID.String(),
		ProductID:         m.ProductID.String(),
		ProductName:       productName,
		Kind:              string(m.Kind),
		QuantityDelta:     m.QuantityDelta,
		RequestedQuantity: m.RequestedQuantity,
		PreviousQuantity:  m.PreviousQuantity,
		NewQuantity:       m.NewQuantity,
		Reason:            m.Reason,
		Notes:             m.Notes,
		DocumentNumber:    m.DocumentNumber,
		UnitPrice:         m.UnitPrice,
		TotalPrice:        m.TotalPrice,
		CreatedAt:         formatTime(m.CreatedAt),
		CreatedBy:         m.CreatedBy,
	}
}
