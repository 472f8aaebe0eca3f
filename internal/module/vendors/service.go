package vendors

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/simp-lee/vendorpay/internal/domain"
	"github.com/simp-lee/vendorpay/internal/query"
)

// recentPaymentLimit is how many payments a vendor detail includes.
const recentPaymentLimit = 10

// Schema declares the list options for vendors.
func Schema() *query.Schema {
	return &query.Schema{
		Resource: "vendors",
		Filters: map[string]query.FilterField{
			"status": {Column: "status", Kind: query.KindEnum, Enum: domain.VendorStatuses},
			"search": {Kind: query.KindSearch, Columns: []string{"name", "email", "contact_name"}},
		},
		Sorts: map[string]string{
			"createdAt": "created_at",
			"name":      "name",
			"email":     "email",
			"status":    "status",
		},
		DefaultSort:     "createdAt",
		DefaultDesc:     true,
		DefaultPageSize: 10,
		MaxPageSize:     100,
	}
}

// Service defines vendor operations.
type Service interface {
	List(ctx context.Context, raw url.Values) (*query.Result[domain.Vendor], error)
	Create(ctx context.Context, req CreateVendorRequest) (*domain.Vendor, error)
	Get(ctx context.Context, id string) (*Detail, error)
	Update(ctx context.Context, id string, req UpdateVendorRequest) (*domain.Vendor, error)
	Delete(ctx context.Context, id string) error
}

type vendorService struct {
	repo     Repository
	engine   *query.Engine[domain.Vendor]
	payments query.Store[domain.Payment]
}

// NewService creates a vendor Service. engine lists vendors; payments is
// read for vendor details.
func NewService(repo Repository, engine *query.Engine[domain.Vendor], payments query.Store[domain.Payment]) Service {
	return &vendorService{repo: repo, engine: engine, payments: payments}
}

func (s *vendorService) List(ctx context.Context, raw url.Values) (*query.Result[domain.Vendor], error) {
	spec, err := s.engine.Build(raw)
	if err != nil {
		return nil, err
	}
	res, err := s.engine.List(ctx, spec)
	if err != nil {
		return nil, domain.NewAppError(domain.CodeInternal, "failed to list vendors", err)
	}
	return res, nil
}

func (s *vendorService) Create(ctx context.Context, req CreateVendorRequest) (*domain.Vendor, error) {
	status := domain.VendorActive
	if strings.TrimSpace(req.Status) != "" {
		st, ok := domain.ParseVendorStatus(req.Status)
		if !ok {
			return nil, invalidStatus(req.Status)
		}
		status = st
	}

	v := &domain.Vendor{
		Name:        strings.TrimSpace(req.Name),
		Email:       normalizeEmail(req.Email),
		Phone:       optional(req.Phone),
		Address:     optional(req.Address),
		ContactName: optional(req.ContactName),
		Status:      status,
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *vendorService) Get(ctx context.Context, id string) (*Detail, error) {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	byVendor := query.Eq("vendor_id", id)
	var (
		detail = Detail{Vendor: v}
		all    query.Aggregate
		paid   query.Aggregate
		due    query.Aggregate
		recent []domain.Payment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		all, err = s.payments.Aggregate(gctx, query.Predicate{byVendor}, "amount")
		return err
	})
	g.Go(func() (err error) {
		paid, err = s.payments.Aggregate(gctx, query.Predicate{byVendor, query.Eq("status", domain.PaymentPaid)}, "amount")
		return err
	})
	g.Go(func() (err error) {
		due, err = s.payments.Aggregate(gctx, query.Predicate{byVendor, query.Eq("status", domain.PaymentPending)}, "amount")
		return err
	})
	g.Go(func() (err error) {
		recent, err = s.payments.Find(gctx, query.Predicate{byVendor}, nil, 0, recentPaymentLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, domain.NewAppError(domain.CodeInternal, "failed to load vendor statistics", err)
	}

	if recent == nil {
		recent = []domain.Payment{}
	}
	v.Payments = recent
	detail.Statistics = Statistics{
		TotalPayments:   all.Count,
		TotalAmount:     domain.RoundAmount(all.Sum),
		PaidPayments:    paid.Count,
		PaidAmount:      domain.RoundAmount(paid.Sum),
		PendingPayments: due.Count,
		PendingAmount:   domain.RoundAmount(due.Sum),
	}
	return &detail, nil
}

func (s *vendorService) Update(ctx context.Context, id string, req UpdateVendorRequest) (*domain.Vendor, error) {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Status != nil {
		st, ok := domain.ParseVendorStatus(*req.Status)
		if !ok {
			return nil, invalidStatus(*req.Status)
		}
		v.Status = st
	}
	if req.Name != nil {
		v.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		v.Email = normalizeEmail(*req.Email)
	}
	if req.Phone != nil {
		v.Phone = optional(req.Phone)
	}
	if req.Address != nil {
		v.Address = optional(req.Address)
	}
	if req.ContactName != nil {
		v.ContactName = optional(req.ContactName)
	}

	if err := s.repo.Update(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *vendorService) Delete(ctx context.Context, id string) error {
	payments, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if payments > 0 {
		return ErrHasPayments(payments)
	}
	return nil
}

// ErrHasPayments is returned when deleting a vendor that payments reference.
func ErrHasPayments(n int64) *domain.AppError {
	return domain.NewLabeledError(domain.CodeConflict, "Cannot delete vendor",
		"Vendor has "+strconv.FormatInt(n, 10)+" associated payment(s). Please delete or reassign payments first.")
}

func invalidStatus(s string) error {
	return domain.NewValidationError([]domain.FieldError{{
		Field:   "status",
		Value:   s,
		Message: "must be one of: " + strings.Join(domain.VendorStatuses, ", "),
	}})
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
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
