package application

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	invdomain "github.com/dmehra2102/bookstore-order-engine/internal/inventory/domain"
	"github.com/dmehra2102/bookstore-order-engine/internal/order/domain"
)

// Processor turns a line-item list into a committed order or a clean
// failure. An order is either fully reserved and durably stored, or leaves
// no residual deduction on any book.
type Processor struct {
	log       *slog.Logger
	ledger    StockLedger
	store     OrderStore
	validator *Validator
	tracer    trace.Tracer
}

func NewProcessor(log *slog.Logger, ledger StockLedger, store OrderStore) *Processor {
	return &Processor{
		log:       log,
		ledger:    ledger,
		store:     store,
		validator: NewValidator(ledger),
		tracer:    otel.Tracer("order-processor"),
	}
}

func (p *Processor) SubmitOrder(ctx context.Context, items []domain.LineItem) (domain.Order, error) {
	ctx, span := p.tracer.Start(ctx, "SubmitOrder")
	defer span.End()

	// The last stage written is the span's verdict: committed or rejected.
	stage := func(s domain.Stage) {
		span.SetAttributes(attribute.String("order.stage", string(s)))
	}
	stage(domain.StageReceived)

	stage(domain.StageValidating)
	if err := p.validator.Validate(ctx, items); err != nil {
		stage(domain.StageRejected)
		p.log.Info("order rejected", "stage", domain.StageValidating, "err", err)
		return domain.Order{}, err
	}

	// Reservations already granted when a later step fails. Release must run
	// even if ctx is cancelled mid-flight, hence WithoutCancel.
	var reserved []domain.LineItem
	rollback := func() {
		releaseCtx := context.WithoutCancel(ctx)
		for _, item := range reserved {
			if err := p.ledger.Release(releaseCtx, item.BookID, item.Quantity); err != nil {
				p.log.Error("release failed", "book_id", item.BookID, "qty", item.Quantity, "err", err)
			}
		}
	}

	stage(domain.StageReserving)
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			rollback()
			stage(domain.StageRejected)
			return domain.Order{}, err
		}
		if err := p.ledger.Reserve(ctx, item.BookID, item.Quantity); err != nil {
			rollback()
			stage(domain.StageRejected)
			p.log.Info("order rejected", "stage", domain.StageReserving, "book_id", item.BookID, "err", err)
			return domain.Order{}, err
		}
		reserved = append(reserved, item)
	}

	stage(domain.StageCommitting)
	saved, err := p.store.Save(ctx, domain.NewOrder(items))
	if err != nil {
		rollback()
		stage(domain.StageRejected)
		p.log.Error("order commit failed", "err", err)
		return domain.Order{}, domain.PersistenceError{Err: err}
	}

	stage(domain.StageCommitted)
	p.log.Info("order committed", "order_id", saved.ID, "items", len(saved.Items))
	return saved, nil
}

func (p *Processor) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	return p.store.Get(ctx, id)
}

func (p *Processor) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return p.store.List(ctx)
}

func (p *Processor) Stock(ctx context.Context, bookID string) (invdomain.BookStock, error) {
	return p.ledger.Stock(ctx, bookID)
}

func (p *Processor) ListStock(ctx context.Context) ([]invdomain.BookStock, error) {
	return p.ledger.List(ctx)
}
