package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"time"

	"atelier/internal/cache"
	"atelier/internal/lifecycle"
	"atelier/internal/middleware"
	"atelier/internal/models"
	"atelier/internal/notifications"
	"atelier/internal/repository"
	"atelier/internal/storage"
)

// NotificationEmitter is the side-effect sink used by services. Emission is
// fire-and-forget: it happens after the primary write and never fails it.
type NotificationEmitter interface {
	Emit(ctx context.Context, drafts ...notifications.Draft)
}

// FileStore is the subset of the upload store the order service needs.
type FileStore interface {
	SaveBatch(field string, files []*multipart.FileHeader) ([]storage.StoredFile, error)
	Remove(paths ...string)
}

type OrderService struct {
	orderRepo repository.OrderRepository
	userRepo  repository.UserRepository
	emitter   NotificationEmitter
	store     FileStore
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	emitter NotificationEmitter,
	store FileStore,
) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		userRepo:  userRepo,
		emitter:   emitter,
		store:     store,
	}
}

type CreateOrderInput struct {
	UserID      uint
	Title       string
	Description string
	Priority    string
	Deadline    *time.Time
	Tags        string
	Files       []*multipart.FileHeader
}

// CreateOrder records a new order in pending status, stores its attachments,
// and acknowledges it with a notification to the owner.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	if in.Title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if in.Description == "" {
		return nil, models.NewValidationError("Description is required")
	}

	priority := models.PriorityMedium
	if in.Priority != "" {
		p, err := lifecycle.ParsePriority(in.Priority)
		if err != nil {
			return nil, err
		}
		priority = p
	}

	stored, err := s.store.SaveBatch("files", in.Files)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:      in.UserID,
		Title:       in.Title,
		Description: in.Description,
		Status:      models.StatusPending,
		Priority:    priority,
		Deadline:    in.Deadline,
		Tags:        in.Tags,
	}
	for _, sf := range stored {
		order.Files = append(order.Files, models.OrderFile{
			StoredName:   sf.StoredName,
			OriginalName: sf.OriginalName,
			Path:         sf.Path,
			UploadedAt:   time.Now(),
		})
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		// Orphaned uploads are useless without the order row.
		paths := make([]string, len(stored))
		for i, sf := range stored {
			paths[i] = sf.Path
		}
		s.store.Remove(paths...)
		return nil, err
	}

	s.invalidateFor(ctx, order.UserID)
	s.emitter.Emit(ctx, notifications.Draft{
		UserID:         order.UserID,
		Title:          "Order Received",
		Body:           fmt.Sprintf("Your order %q has been received and is awaiting review.", order.Title),
		Type:           models.NotifOrderApproved,
		RelatedOrderID: &order.ID,
	})

	return order, nil
}

// GetOrder returns an order if the actor is its owner or an admin.
func (s *OrderService) GetOrder(ctx context.Context, actor *models.User, id uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := RequireOrderAccess(actor, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) ListOrdersForUser(ctx context.Context, userID uint, limit, offset int) ([]models.Order, error) {
	return s.orderRepo.ListByUser(ctx, userID, limit, offset)
}

func (s *OrderService) ListAllOrders(ctx context.Context, limit, offset int) ([]models.Order, error) {
	return s.orderRepo.ListAll(ctx, limit, offset)
}

func (s *OrderService) ListPendingRevisions(ctx context.Context) ([]models.Order, error) {
	return s.orderRepo.ListPendingRevisions(ctx)
}

func (s *OrderService) CountsForUser(ctx context.Context, userID uint) (repository.OrderCounts, error) {
	return s.orderRepo.CountsByUser(ctx, userID)
}

type UpdateStatusInput struct {
	Status             string
	Price              *float64
	Deadline           *time.Time
	CancellationReason string
	AdminNotes         string
}

// SetStatus applies an admin status update. The requested status must be a
// known one, but no transition legality is enforced: the admin can move an
// order from any status to any other, including out of cancelled.
func (s *OrderService) SetStatus(ctx context.Context, id uint, in UpdateStatusInput) (*models.Order, error) {
	status, err := lifecycle.ParseStatus(in.Status)
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	order.Status = status
	if in.Price != nil {
		order.Price = *in.Price
	}
	if in.Deadline != nil {
		order.Deadline = in.Deadline
	}
	if in.AdminNotes != "" {
		order.AdminNotes = in.AdminNotes
	}
	if status == models.StatusCancelled {
		order.CancellationReason = in.CancellationReason
	}

	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, err
	}

	middleware.OrderTransitions.WithLabelValues(string(status)).Inc()
	s.invalidateFor(ctx, order.UserID)
	s.emitter.Emit(ctx, statusDraft(order))

	return order, nil
}

// Deliver stores the delivered files, replaces any previous delivery set,
// and forces the order into delivered status regardless of where it was.
func (s *OrderService) Deliver(ctx context.Context, id uint, files []*multipart.FileHeader) (*models.Order, error) {
	if len(files) == 0 {
		return nil, models.NewValidationError("At least one delivery file is required")
	}

	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	stored, err := s.store.SaveBatch("deliveryFiles", files)
	if err != nil {
		return nil, err
	}

	oldPaths := make([]string, len(order.DeliveryFiles))
	for i, df := range order.DeliveryFiles {
		oldPaths[i] = df.Path
	}

	deliveryFiles := make([]models.DeliveryFile, len(stored))
	for i, sf := range stored {
		deliveryFiles[i] = models.DeliveryFile{
			StoredName:   sf.StoredName,
			OriginalName: sf.OriginalName,
			Path:         sf.Path,
			DeliveredAt:  time.Now(),
		}
	}

	if err := s.orderRepo.ReplaceDeliveryFiles(ctx, order.ID, deliveryFiles); err != nil {
		paths := make([]string, len(stored))
		for i, sf := range stored {
			paths[i] = sf.Path
		}
		s.store.Remove(paths...)
		return nil, err
	}

	// Drop the stale association so the status update does not re-save the
	// delivery rows the replacement just removed.
	order.DeliveryFiles = nil
	order.Status = models.StatusDelivered
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, err
	}

	// Old delivery files are unreferenced once the replacement lands.
	s.store.Remove(oldPaths...)

	middleware.OrderTransitions.WithLabelValues(string(models.StatusDelivered)).Inc()
	s.invalidateFor(ctx, order.UserID)
	s.emitter.Emit(ctx, statusDraft(order))

	return s.orderRepo.GetByID(ctx, order.ID)
}

// RequestRevision opens a revision request on a delivered order. Only the
// order's owner may request one; admins route through DecideRevision.
func (s *OrderService) RequestRevision(ctx context.Context, actor *models.User, id uint, description string) (*models.Order, error) {
	if description == "" {
		return nil, models.NewValidationError("Revision description is required")
	}

	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor == nil || actor.ID != order.UserID {
		return nil, models.NewForbiddenError("Only the order owner can request a revision")
	}
	if order.Status != models.StatusDelivered {
		return nil, models.NewInvalidStateError("Revisions can only be requested on delivered orders")
	}

	now := time.Now()
	order.Status = models.StatusRevision
	order.RevisionRequest = models.RevisionRequest{
		Requested:   true,
		Description: description,
		Status:      models.RevisionPending,
		RequestedAt: &now,
	}

	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, err
	}

	middleware.OrderTransitions.WithLabelValues(string(models.StatusRevision)).Inc()
	s.invalidateFor(ctx, order.UserID)
	s.emitter.Emit(ctx, notifications.Draft{
		UserID:         order.UserID,
		Title:          "Revision Requested",
		Body:           fmt.Sprintf("Your revision request for %q has been submitted for review.", order.Title),
		Type:           models.NotifRevisionRequest,
		RelatedOrderID: &order.ID,
	})

	return order, nil
}

type DecideRevisionInput struct {
	Decision         string
	CounterOffer     string
	ProposedPrice    *float64
	ProposedDeadline *time.Time
}

// DecideRevision records the admin's verdict on a revision request.
// Accepting moves the order back to in_progress. A counter offer keeps the
// order in revision with the offer attached for the customer. Rejecting
// records the verdict but moves the order nowhere; it stays in revision
// until the admin sets a status explicitly. The verdict applies to any
// order, including one whose request was already decided.
func (s *OrderService) DecideRevision(ctx context.Context, id uint, in DecideRevisionInput) (*models.Order, error) {
	decision, err := lifecycle.ParseDecision(in.Decision)
	if err != nil {
		return nil, err
	}
	if decision == models.RevisionPending {
		return nil, models.NewValidationError("pending is not a decision")
	}

	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	order.RevisionRequest.Status = decision
	switch decision {
	case models.RevisionAccepted:
		order.Status = models.StatusInProgress
	case models.RevisionCounterOffer:
		if in.CounterOffer == "" {
			return nil, models.NewValidationError("A counter offer message is required")
		}
		order.RevisionRequest.CounterOffer = in.CounterOffer
		order.ProposedPrice = in.ProposedPrice
		order.ProposedDeadline = in.ProposedDeadline
	case models.RevisionRejected:
		// Verdict recorded, status untouched.
	}

	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, err
	}

	s.invalidateFor(ctx, order.UserID)
	s.emitter.Emit(ctx, notifications.Draft{
		UserID:         order.UserID,
		Title:          "Revision Update",
		Body:           fmt.Sprintf("Your revision request for %q %s.", order.Title, lifecycle.DecisionText(decision)),
		Type:           models.NotifRevisionRequest,
		RelatedOrderID: &order.ID,
	})

	return order, nil
}

// SetAdminNotes updates the internal notes on an order without touching its
// lifecycle.
func (s *OrderService) SetAdminNotes(ctx context.Context, id uint, notes string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	order.AdminNotes = notes
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// statusDraft builds the owner-facing notification for a status change using
// the status-to-type mapping.
func statusDraft(order *models.Order) notifications.Draft {
	body := fmt.Sprintf("Your order %q is now %s.", order.Title, lifecycle.StatusText(order.Status))
	if order.Status == models.StatusCancelled && order.CancellationReason != "" {
		body = fmt.Sprintf("Your order %q was cancelled: %s", order.Title, order.CancellationReason)
	}
	return notifications.Draft{
		UserID:         order.UserID,
		Title:          "Order " + lifecycle.StatusText(order.Status),
		Body:           body,
		Type:           lifecycle.NotificationTypeForStatus(order.Status),
		RelatedOrderID: &order.ID,
	}
}

func (s *OrderService) invalidateFor(ctx context.Context, userID uint) {
	cache.Invalidate(ctx, cache.DashboardStatsKey(), cache.UnreadCountKey(userID))
}
