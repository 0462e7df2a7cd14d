// Package demand implements the demand lifecycle: creation by buyers,
// responses by farmers, and the role rules that govern who sees and changes what.
package demand

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/erazemk/trznica/internal/metrics"
	"github.com/erazemk/trznica/internal/model"
	"github.com/erazemk/trznica/internal/notify"
	"github.com/erazemk/trznica/internal/store"
	"github.com/erazemk/trznica/internal/validate"
)

// Pagination bounds.
const (
	DefaultLimit = 20
	MaxLimit     = 200
)

// Caller identifies who is invoking an operation.
type Caller struct {
	ID   string
	Name string
	Role string
}

// Anonymous is the caller of an unauthenticated request.
var Anonymous = Caller{Role: model.RoleAnonymous}

// Notifier delivers notifications about demand responses.
type Notifier interface {
	NotifyInApp(ctx context.Context, userID, typ, title, message string, data map[string]any) (*model.Notification, error)
	NotifyExternal(ctx context.Context, r notify.Recipient, subject, text string, data map[string]any)
}

// CreateInput is the payload of Create.
type CreateInput struct {
	Commodity string         `json:"commodity" validate:"required"`
	Quantity  float64        `json:"quantity" validate:"gt=0"`
	Unit      string         `json:"unit"`
	Location  model.Location `json:"location"`
	DesiredBy *time.Time     `json:"desiredBy"`
	Notes     string         `json:"notes"`
}

// ListQuery is the payload of List. Zero Page and Limit take the defaults.
type ListQuery struct {
	Filter
	Page  int `json:"page" validate:"gte=1"`
	Limit int `json:"limit" validate:"gte=1,lte=200"`
}

// Page is one page of List results.
type Page struct {
	Demands []model.Demand `json:"demands"`
	Page    int            `json:"page"`
	Limit   int            `json:"limit"`
}

// RespondInput is the payload of Respond.
type RespondInput struct {
	Action     string   `json:"action" validate:"required,oneof=accept reject"`
	PriceOffer *float64 `json:"priceOffer" validate:"omitempty,gt=0"`
	Notes      string   `json:"notes"`
}

// Service runs demand operations against the database.
type Service struct {
	DB       *sql.DB
	Notifier Notifier

	checker *validate.Validator
}

// NewService creates a Service.
func NewService(db *sql.DB, n Notifier) *Service {
	return &Service{DB: db, Notifier: n, checker: validate.New()}
}

// Create posts a new open demand owned by the calling buyer.
func (s *Service) Create(ctx context.Context, c Caller, in CreateInput) (*model.Demand, error) {
	if c.Role != model.RoleBuyer {
		return nil, forbiddenErr("only buyers can create demands")
	}

	in.Commodity = strings.TrimSpace(in.Commodity)
	if err := s.check(in); err != nil {
		return nil, err
	}

	unit := strings.TrimSpace(in.Unit)
	if unit == "" {
		unit = model.DefaultUnit
	}
	location := in.Location
	if location == nil {
		location = model.Location{}
	}

	d, err := store.CreateDemand(ctx, s.DB, &model.Demand{
		BuyerID:   c.ID,
		Commodity: in.Commodity,
		Quantity:  in.Quantity,
		Unit:      unit,
		Location:  location,
		DesiredBy: in.DesiredBy,
		Notes:     in.Notes,
	})
	if err != nil {
		return nil, internalErr("create", err)
	}

	metrics.RecordTransition(model.DemandStatusOpen)
	slog.Info("demand created", "demand", d.ID, "buyer", c.ID, "commodity", d.Commodity)
	return d, nil
}

// List returns the page of demands visible to the caller, newest first.
func (s *Service) List(ctx context.Context, c Caller, q ListQuery) (*Page, error) {
	if q.Page == 0 {
		q.Page = 1
	}
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if c.Role == model.RoleAnonymous {
		q.Status = ""
	}
	if err := s.check(q); err != nil {
		return nil, err
	}

	filter := store.And(VisibilityFilter(c.Role, c.ID), q.Filter.Expr())
	demands, err := store.ListDemands(ctx, s.DB, filter, q.Limit, (q.Page-1)*q.Limit)
	if err != nil {
		return nil, internalErr("list", err)
	}

	return &Page{Demands: demands, Page: q.Page, Limit: q.Limit}, nil
}

// Get returns a single demand. Any caller may fetch any demand.
func (s *Service) Get(ctx context.Context, id string) (*model.Demand, error) {
	d, err := store.GetDemand(ctx, s.DB, id)
	if err != nil {
		return nil, internalErr("get", err)
	}
	if d == nil {
		return nil, notFoundErr()
	}
	return d, nil
}

// Update applies the allow-listed fields of patch. Owners may update only
// open demands; admins may update any.
func (s *Service) Update(ctx context.Context, c Caller, id string, patch model.DemandPatch) (*model.Demand, error) {
	d, err := s.loadOwned(ctx, c, id)
	if err != nil {
		return nil, err
	}

	admin := c.Role == model.RoleAdmin
	if !admin && model.Terminal(d.Status) {
		return nil, invalidStateErr("can only update a demand while it is open")
	}
	if err := checkPatch(&patch); err != nil {
		return nil, err
	}
	if patch.Empty() {
		return d, nil
	}

	updated, err := store.UpdateDemandFields(ctx, s.DB, id, patch, !admin)
	if errors.Is(err, store.ErrPreconditionFailed) {
		return nil, invalidStateErr("can only update a demand while it is open")
	}
	if err != nil {
		return nil, internalErr("update", err)
	}

	slog.Info("demand updated", "demand", id, "by", c.ID, "role", c.Role)
	return updated, nil
}

// Cancel moves an open demand to cancelled.
func (s *Service) Cancel(ctx context.Context, c Caller, id string) (*model.Demand, error) {
	d, err := s.loadOwned(ctx, c, id)
	if err != nil {
		return nil, err
	}

	if d.Status == model.DemandStatusCancelled && c.Role == model.RoleAdmin {
		return d, nil
	}
	if model.Terminal(d.Status) {
		return nil, invalidStateErr("can only cancel an open demand")
	}

	cancelled, err := store.CancelDemand(ctx, s.DB, id)
	if errors.Is(err, store.ErrPreconditionFailed) {
		return nil, invalidStateErr("can only cancel an open demand")
	}
	if err != nil {
		return nil, internalErr("cancel", err)
	}

	metrics.RecordTransition(model.DemandStatusCancelled)
	slog.Info("demand cancelled", "demand", id, "by", c.ID, "role", c.Role)
	return cancelled, nil
}

// Respond records a farmer accepting or rejecting an open demand and notifies
// the buyer. It returns the updated demand and a short outcome message.
func (s *Service) Respond(ctx context.Context, c Caller, id string, in RespondInput) (*model.Demand, string, error) {
	if c.Role != model.RoleFarmer {
		return nil, "", forbiddenErr("only farmers can respond to demands")
	}
	if err := s.check(in); err != nil {
		return nil, "", err
	}
	status, _ := model.ResponseStatus(in.Action)

	d, err := store.GetDemand(ctx, s.DB, id)
	if err != nil {
		return nil, "", internalErr("respond", err)
	}
	if d == nil {
		return nil, "", notFoundErr()
	}
	if model.Terminal(d.Status) {
		return nil, "", invalidStateErr("cannot respond to a demand that is not open")
	}

	priceOffer := in.PriceOffer
	if status != model.DemandStatusAccepted {
		priceOffer = nil
	}

	updated, err := store.RespondDemand(ctx, s.DB, id, status, c.ID, priceOffer, in.Notes)
	if errors.Is(err, store.ErrPreconditionFailed) {
		return nil, "", invalidStateErr("cannot respond to a demand that is not open")
	}
	if err != nil {
		return nil, "", internalErr("respond", err)
	}

	metrics.RecordTransition(status)
	slog.Info("demand responded", "demand", id, "action", in.Action, "farmer", c.ID)

	s.notifyBuyer(ctx, updated, c, status)

	return updated, "Demand " + status, nil
}

func (s *Service) check(v any) error {
	if err := s.checker.Struct(v); err != nil {
		return validationErr(err.Error())
	}
	return nil
}

// loadOwned fetches a demand the caller owns or administers. A missing demand
// is reported as not found regardless of the caller's role.
func (s *Service) loadOwned(ctx context.Context, c Caller, id string) (*model.Demand, error) {
	d, err := store.GetDemand(ctx, s.DB, id)
	if err != nil {
		return nil, internalErr("load", err)
	}
	if d == nil {
		return nil, notFoundErr()
	}
	if !model.RoleIn(c.Role, model.RoleBuyer, model.RoleAdmin) {
		return nil, forbiddenErr("not permitted")
	}
	if c.Role != model.RoleAdmin && d.BuyerID != c.ID {
		return nil, forbiddenErr("not permitted")
	}
	return d, nil
}

func checkPatch(p *model.DemandPatch) error {
	if p.Commodity != nil {
		trimmed := strings.TrimSpace(*p.Commodity)
		if trimmed == "" {
			return validationErr("commodity must not be empty")
		}
		p.Commodity = &trimmed
	}
	if p.Quantity != nil && !(*p.Quantity > 0) {
		return validationErr("quantity must be greater than 0")
	}
	if p.Unit != nil {
		trimmed := strings.TrimSpace(*p.Unit)
		if trimmed == "" {
			return validationErr("unit must not be empty")
		}
		p.Unit = &trimmed
	}
	if p.Location != nil && *p.Location == nil {
		empty := model.Location{}
		p.Location = &empty
	}
	return nil
}

// notifyBuyer tells the demand's buyer about a response. Failures are logged
// and never affect the response itself.
func (s *Service) notifyBuyer(ctx context.Context, d *model.Demand, farmer Caller, status string) {
	if s.Notifier == nil {
		return
	}

	typ, title, subject := model.NotificationDemandAccepted, "Demand Accepted", "Your demand was accepted"
	if status == model.DemandStatusRejected {
		typ, title, subject = model.NotificationDemandRejected, "Demand Rejected", "Your demand was rejected"
	}
	message := fmt.Sprintf("Your demand for %s %s %s was %s by %s",
		strconv.FormatFloat(d.Quantity, 'f', -1, 64), d.Unit, d.Commodity, status, farmer.Name)
	data := map[string]any{"demandId": d.ID}

	if _, err := s.Notifier.NotifyInApp(ctx, d.BuyerID, typ, title, message, data); err != nil {
		slog.Error("in-app notification failed", "demand", d.ID, "buyer", d.BuyerID, "error", err)
	}

	buyer, err := store.GetUser(ctx, s.DB, d.BuyerID)
	if err != nil {
		slog.Error("loading buyer for notification", "demand", d.ID, "buyer", d.BuyerID, "error", err)
		return
	}
	if buyer == nil {
		return
	}
	s.Notifier.NotifyExternal(ctx, notify.Recipient{Email: buyer.Email, PushToken: buyer.PushToken}, subject, message, data)
}
