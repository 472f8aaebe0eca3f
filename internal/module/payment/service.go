package payment

import (
	"context"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/simp-lee/vendorpay/internal/domain"
	"github.com/simp-lee/vendorpay/internal/query"
)

// recentPaymentLimit is how many payments the overview includes.
const recentPaymentLimit = 5

var (
	// ErrVendorMissing is returned when a payment references an unknown vendor.
	ErrVendorMissing = domain.NewLabeledError(domain.CodeNotFound, "Vendor not found", "The specified vendor does not exist")
	// ErrInactiveVendor is returned when recording a payment for a vendor
	// that is not ACTIVE.
	ErrInactiveVendor = domain.NewLabeledError(domain.CodeBadRequest, "Inactive vendor", "Cannot create payment for inactive vendor")
)

var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// Schema declares the list options for payments.
func Schema() *query.Schema {
	return &query.Schema{
		Resource: "payments",
		Filters: map[string]query.FilterField{
			"status":    {Column: "status", Kind: query.KindEnum, Enum: domain.PaymentStatuses},
			"vendorId":  {Column: "vendor_id", Kind: query.KindID},
			"minAmount": {Column: "amount", Kind: query.KindNumber, Op: query.OpGte},
			"maxAmount": {Column: "amount", Kind: query.KindNumber, Op: query.OpLte},
			"dueAfter":  {Column: "due_date", Kind: query.KindTime, Op: query.OpGte},
			"dueBefore": {Column: "due_date", Kind: query.KindTime, Op: query.OpLte},
		},
		Sorts: map[string]string{
			"createdAt":   "created_at",
			"amount":      "amount",
			"dueDate":     "due_date",
			"paymentDate": "payment_date",
			"status":      "status",
		},
		DefaultSort:     "createdAt",
		DefaultDesc:     true,
		DefaultPageSize: 10,
		MaxPageSize:     100,
		SummaryColumn:   "amount",
	}
}

// VendorReader resolves the vendor a payment belongs to.
type VendorReader interface {
	GetByID(ctx context.Context, id string) (*domain.Vendor, error)
}

// Service defines payment operations.
type Service interface {
	List(ctx context.Context, raw url.Values) (*query.Result[domain.Payment], error)
	ListByVendor(ctx context.Context, vendorID string, raw url.Values) (*domain.Vendor, *query.Result[domain.Payment], error)
	Create(ctx context.Context, req CreatePaymentRequest) (*domain.Payment, error)
	Get(ctx context.Context, id string) (*domain.Payment, error)
	Update(ctx context.Context, id string, req UpdatePaymentRequest) (*domain.Payment, error)
	Delete(ctx context.Context, id string) error
	Overview(ctx context.Context) (*Overview, error)
}

type paymentService struct {
	repo    Repository
	vendors VendorReader
	engine  *query.Engine[domain.Payment]
	store   query.Store[domain.Payment]
}

// NewService creates a payment Service. engine lists payments; store backs
// the statistics overview.
func NewService(repo Repository, vendors VendorReader, engine *query.Engine[domain.Payment], store query.Store[domain.Payment]) Service {
	return &paymentService{repo: repo, vendors: vendors, engine: engine, store: store}
}

func (s *paymentService) List(ctx context.Context, raw url.Values) (*query.Result[domain.Payment], error) {
	return s.list(ctx, raw)
}

func (s *paymentService) ListByVendor(ctx context.Context, vendorID string, raw url.Values) (*domain.Vendor, *query.Result[domain.Payment], error) {
	v, err := s.vendors.GetByID(ctx, vendorID)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, nil, ErrVendorMissing
		}
		return nil, nil, err
	}
	res, err := s.list(ctx, raw, query.Eq("vendor_id", vendorID))
	if err != nil {
		return nil, nil, err
	}
	return v, res, nil
}

func (s *paymentService) list(ctx context.Context, raw url.Values, extra ...query.Condition) (*query.Result[domain.Payment], error) {
	spec, err := s.engine.Build(raw)
	if err != nil {
		return nil, err
	}
	res, err := s.engine.List(ctx, spec, extra...)
	if err != nil {
		return nil, domain.NewAppError(domain.CodeInternal, "failed to list payments", err)
	}
	return res, nil
}

func (s *paymentService) Create(ctx context.Context, req CreatePaymentRequest) (*domain.Payment, error) {
	var details []domain.FieldError
	status := domain.PaymentPending
	if strings.TrimSpace(req.Status) != "" {
		st, ok := domain.ParsePaymentStatus(req.Status)
		if !ok {
			details = append(details, invalidStatus(req.Status))
		}
		status = st
	}
	due, fe := parseDate("dueDate", req.DueDate)
	details = appendIf(details, fe)
	paid, fe := parseDate("paymentDate", req.PaymentDate)
	details = appendIf(details, fe)
	if len(details) > 0 {
		return nil, domain.NewValidationError(details)
	}

	v, err := s.vendors.GetByID(ctx, req.VendorID)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, ErrVendorMissing
		}
		return nil, err
	}
	if v.Status != domain.VendorActive {
		return nil, ErrInactiveVendor
	}

	p := &domain.Payment{
		Amount:      domain.RoundAmount(req.Amount),
		Description: optional(req.Description),
		VendorID:    v.ID,
		DueDate:     due,
		PaymentDate: paid,
		Status:      status,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	p.Vendor = v
	return p, nil
}

func (s *paymentService) Get(ctx context.Context, id string) (*domain.Payment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *paymentService) Update(ctx context.Context, id string, req UpdatePaymentRequest) (*domain.Payment, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var details []domain.FieldError
	if req.Status != nil {
		st, ok := domain.ParsePaymentStatus(*req.Status)
		if !ok {
			details = append(details, invalidStatus(*req.Status))
		}
		p.Status = st
	}
	if req.DueDate != nil {
		due, fe := parseDate("dueDate", req.DueDate)
		details = appendIf(details, fe)
		p.DueDate = due
	}
	if req.PaymentDate != nil {
		paid, fe := parseDate("paymentDate", req.PaymentDate)
		details = appendIf(details, fe)
		p.PaymentDate = paid
	}
	if len(details) > 0 {
		return nil, domain.NewValidationError(details)
	}
	if req.Amount != nil {
		p.Amount = domain.RoundAmount(*req.Amount)
	}
	if req.Description != nil {
		p.Description = optional(req.Description)
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *paymentService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Overview aggregates every payment by status and lists the most recent ones.
func (s *paymentService) Overview(ctx context.Context) (*Overview, error) {
	buckets := []struct {
		status domain.PaymentStatus
		agg    query.Aggregate
	}{{}, {status: domain.PaymentPaid}, {status: domain.PaymentPending}, {status: domain.PaymentOverdue}}
	var recent []domain.Payment

	g, gctx := errgroup.WithContext(ctx)
	for i := range buckets {
		b := &buckets[i]
		g.Go(func() (err error) {
			var pred query.Predicate
			if b.status != "" {
				pred = query.Predicate{query.Eq("status", b.status)}
			}
			b.agg, err = s.store.Aggregate(gctx, pred, "amount")
			return err
		})
	}
	g.Go(func() (err error) {
		recent, err = s.store.Find(gctx, nil, nil, 0, recentPaymentLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, domain.NewAppError(domain.CodeInternal, "failed to load payment statistics", err)
	}

	if recent == nil {
		recent = []domain.Payment{}
	}
	bucket := func(a query.Aggregate) Bucket {
		return Bucket{Count: a.Count, Amount: domain.RoundAmount(a.Sum)}
	}
	return &Overview{
		Total:          bucket(buckets[0].agg),
		Paid:           bucket(buckets[1].agg),
		Pending:        bucket(buckets[2].agg),
		Overdue:        bucket(buckets[3].agg),
		RecentPayments: recent,
	}, nil
}

// parseDate reads an optional date field. Blank input clears the date.
func parseDate(field string, s *string) (*time.Time, *domain.FieldError) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	v := strings.TrimSpace(*s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, &domain.FieldError{Field: field, Value: v, Message: "must be an RFC 3339 timestamp or a YYYY-MM-DD date"}
}

func appendIf(details []domain.FieldError, fe *domain.FieldError) []domain.FieldError {
	if fe == nil {
		return details
	}
	return append(details, *fe)
}

func invalidStatus(s string) domain.FieldError {
	return domain.FieldError{
		Field:   "status",
		Value:   s,
		Message: "must be one of: " + strings.Join(domain.PaymentStatuses, ", "),
	}
}

// optional trims p and maps blank values to nil.
func optional(p *string) *string {
	if p == nil {
		return nil
	}
	s := strings.TrimSpace(*p)
	if s == "" {
		return nil
	}
	return &s
}
