package service

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"atelier/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func fileHeaders(t *testing.T, names ...string) []*multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, name := range names {
		part, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = io.Copy(part, strings.NewReader("content"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))
	return req.MultipartForm.File["files"]
}

func newOrderService() (*OrderService, *mockOrderRepo, *recordingEmitter, *fakeStore) {
	orderRepo := new(mockOrderRepo)
	userRepo := new(mockUserRepo)
	emitter := &recordingEmitter{}
	store := &fakeStore{}
	return NewOrderService(orderRepo, userRepo, emitter, store), orderRepo, emitter, store
}

func TestOrderService_CreateOrder(t *testing.T) {
	svc, orderRepo, emitter, _ := newOrderService()
	ctx := context.Background()

	orderRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Order")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.Order).ID = 11
		}).
		Return(nil)

	order, err := svc.CreateOrder(ctx, CreateOrderInput{
		UserID:      3,
		Title:       "Brand refresh",
		Description: "New logo and palette",
		Priority:    "high",
		Files:       fileHeaders(t, "brief.pdf"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, models.PriorityHigh, order.Priority)
	require.Len(t, order.Files, 1)
	assert.Equal(t, "brief.pdf", order.Files[0].OriginalName)

	drafts := emitter.all()
	require.Len(t, drafts, 1)
	assert.Equal(t, uint(3), drafts[0].UserID)
	assert.Equal(t, models.NotifOrderApproved, drafts[0].Type)
	orderRepo.AssertExpectations(t)
}

func TestOrderService_CreateOrder_Validation(t *testing.T) {
	svc, _, emitter, _ := newOrderService()
	ctx := context.Background()

	_, err := svc.CreateOrder(ctx, CreateOrderInput{UserID: 1, Description: "x"})
	assertAppError(t, err, "VALIDATION_ERROR")

	_, err = svc.CreateOrder(ctx, CreateOrderInput{UserID: 1, Title: "x"})
	assertAppError(t, err, "VALIDATION_ERROR")

	_, err = svc.CreateOrder(ctx, CreateOrderInput{
		UserID: 1, Title: "x", Description: "y", Priority: "blazing",
	})
	assertAppError(t, err, "VALIDATION_ERROR")

	assert.Empty(t, emitter.all())
}

func TestOrderService_CreateOrder_CleansUpFilesOnStoreFailure(t *testing.T) {
	svc, orderRepo, _, store := newOrderService()

	orderRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Order")).
		Return(models.NewInternalError(assert.AnError))

	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		UserID: 1, Title: "t", Description: "d",
		Files: fileHeaders(t, "a.zip"),
	})
	require.Error(t, err)
	assert.Len(t, store.removed, 1)
}

func TestOrderService_GetOrder_AccessControl(t *testing.T) {
	svc, orderRepo, _, _ := newOrderService()
	ctx := context.Background()

	order := &models.Order{ID: 5, UserID: 10, Title: "Site"}
	orderRepo.On("GetByID", mock.Anything, uint(5)).Return(order, nil)

	owner := &models.User{ID: 10, Role: models.RoleUser}
	got, err := svc.GetOrder(ctx, owner, 5)
	require.NoError(t, err)
	assert.Equal(t, uint(5), got.ID)

	admin := &models.User{ID: 1, Role: models.RoleAdmin}
	_, err = svc.GetOrder(ctx, admin, 5)
	assert.NoError(t, err)

	stranger := &models.User{ID: 99, Role: models.RoleUser}
	_, err = svc.GetOrder(ctx, stranger, 5)
	assertAppError(t, err, "FORBIDDEN")
}

func TestOrderService_SetStatus_AppliesAnyKnownStatus(t *testing.T) {
	svc, orderRepo, emitter, _ := newOrderService()
	ctx := context.Background()

	// Moving a cancelled order straight back to in_progress is allowed:
	// the admin update path does not consult the transition table.
	order := &models.Order{ID: 2, UserID: 7, Title: "Flyer", Status: models.StatusCancelled}
	orderRepo.On("GetByID", mock.Anything, uint(2)).Return(order, nil)
	orderRepo.On("Update", mock.Anything, order).Return(nil)

	updated, err := svc.SetStatus(ctx, 2, UpdateStatusInput{Status: "in_progress"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, updated.Status)

	drafts := emitter.all()
	require.Len(t, drafts, 1)
	assert.Equal(t, models.NotifOrderApproved, drafts[0].Type)
}

func TestOrderService_SetStatus_RejectsUnknownStatus(t *testing.T) {
	svc, orderRepo, _, _ := newOrderService()

	_, err := svc.SetStatus(context.Background(), 2, UpdateStatusInput{Status: "archived"})
	assertAppError(t, err, "VALIDATION_ERROR")
	orderRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestOrderService_SetStatus_NotificationTypeMapping(t *testing.T) {
	cases := []struct {
		status   string
		wantType models.NotificationType
	}{
		{"cancelled", models.NotifOrderCancelled},
		{"delivered", models.NotifOrderDelivered},
		{"in_progress", models.NotifOrderApproved},
		{"pending", models.NotifOrderApproved},
	}

	for _, tc := range cases {
		t.Run(tc.status, func(t *testing.T) {
			svc, orderRepo, emitter, _ := newOrderService()
			order := &models.Order{ID: 1, UserID: 4, Title: "T", Status: models.StatusInProgress}
			orderRepo.On("GetByID", mock.Anything, uint(1)).Return(order, nil)
			orderRepo.On("Update", mock.Anything, order).Return(nil)

			_, err := svc.SetStatus(context.Background(), 1, UpdateStatusInput{Status: tc.status})
			require.NoError(t, err)

			drafts := emitter.all()
			require.Len(t, drafts, 1)
			assert.Equal(t, tc.wantType, drafts[0].Type)
		})
	}
}

func TestOrderService_SetStatus_CancellationReason(t *testing.T) {
	svc, orderRepo, emitter, _ := newOrderService()

	order := &models.Order{ID: 3, UserID: 8, Title: "Deck", Status: models.StatusPending}
	orderRepo.On("GetByID", mock.Anything, uint(3)).Return(order, nil)
	orderRepo.On("Update", mock.Anything, order).Return(nil)

	updated, err := svc.SetStatus(context.Background(), 3, UpdateStatusInput{
		Status:             "cancelled",
		CancellationReason: "duplicate order",
	})
	require.NoError(t, err)
	assert.Equal(t, "duplicate order", updated.CancellationReason)

	drafts := emitter.all()
	require.Len(t, drafts, 1)
	assert.Contains(t, drafts[0].Body, "duplicate order")
}

func TestOrderService_Deliver_ReplacesFilesAndForcesStatus(t *testing.T) {
	svc, orderRepo, emitter, store := newOrderService()
	ctx := context.Background()

	order := &models.Order{
		ID: 6, UserID: 2, Title: "Shop", Status: models.StatusRevision,
		DeliveryFiles: []models.DeliveryFile{
			{ID: 1, OrderID: 6, Path: "uploads/files/old.zip"},
		},
	}
	orderRepo.On("GetByID", mock.Anything, uint(6)).Return(order, nil)
	orderRepo.On("ReplaceDeliveryFiles", mock.Anything, uint(6), mock.AnythingOfType("[]models.DeliveryFile")).
		Return(nil)
	orderRepo.On("Update", mock.Anything, mock.MatchedBy(func(o *models.Order) bool {
		// The preloaded association must not ride along into the status
		// update, or the replaced rows get re-saved.
		return len(o.DeliveryFiles) == 0
	})).Return(nil)

	updated, err := svc.Deliver(ctx, 6, fileHeaders(t, "final.zip"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, updated.Status)
	assert.Contains(t, store.removed, "uploads/files/old.zip")

	drafts := emitter.all()
	require.Len(t, drafts, 1)
	assert.Equal(t, models.NotifOrderDelivered, drafts[0].Type)
}

func TestOrderService_Deliver_RequiresFiles(t *testing.T) {
	svc, _, _, _ := newOrderService()
	_, err := svc.Deliver(context.Background(), 6, nil)
	assertAppError(t, err, "VALIDATION_ERROR")
}

func TestOrderService_RequestRevision(t *testing.T) {
	svc, orderRepo, emitter, _ := newOrderService()
	ctx := context.Background()
	owner := &models.User{ID: 2, Role: models.RoleUser}

	t.Run("on delivered order by owner", func(t *testing.T) {
		order := &models.Order{ID: 9, UserID: 2, Status: models.StatusDelivered}
		orderRepo.On("GetByID", mock.Anything, uint(9)).Return(order, nil).Once()
		orderRepo.On("Update", mock.Anything, order).Return(nil).Once()

		updated, err := svc.RequestRevision(ctx, owner, 9, "Header is off-center")
		require.NoError(t, err)
		assert.Equal(t, models.StatusRevision, updated.Status)
		assert.True(t, updated.RevisionRequest.Requested)
		assert.Equal(t, models.RevisionPending, updated.RevisionRequest.Status)
		assert.NotNil(t, updated.RevisionRequest.RequestedAt)

		drafts := emitter.all()
		require.Len(t, drafts, 1)
		assert.Equal(t, models.NotifRevisionRequest, drafts[0].Type)
		assert.Equal(t, uint(2), drafts[0].UserID)
	})

	t.Run("rejected for non-owner even admin", func(t *testing.T) {
		order := &models.Order{ID: 9, UserID: 2, Status: models.StatusDelivered}
		orderRepo.On("GetByID", mock.Anything, uint(9)).Return(order, nil).Once()

		admin := &models.User{ID: 1, Role: models.RoleAdmin}
		_, err := svc.RequestRevision(ctx, admin, 9, "text")
		assertAppError(t, err, "FORBIDDEN")
	})

	t.Run("rejected when not delivered", func(t *testing.T) {
		order := &models.Order{ID: 9, UserID: 2, Status: models.StatusPending}
		orderRepo.On("GetByID", mock.Anything, uint(9)).Return(order, nil).Once()

		_, err := svc.RequestRevision(ctx, owner, 9, "text")
		assertAppError(t, err, "INVALID_STATE")
	})

	t.Run("rejected without description", func(t *testing.T) {
		_, err := svc.RequestRevision(ctx, owner, 9, "")
		assertAppError(t, err, "VALIDATION_ERROR")
	})
}

func TestOrderService_DecideRevision(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	pendingRevisionOrder := func() *models.Order {
		return &models.Order{
			ID: 4, UserID: 5, Title: "Poster", Status: models.StatusRevision,
			RevisionRequest: models.RevisionRequest{
				Requested:   true,
				Description: "More contrast",
				Status:      models.RevisionPending,
				RequestedAt: &now,
			},
		}
	}

	t.Run("accepted resumes work", func(t *testing.T) {
		svc, orderRepo, emitter, _ := newOrderService()
		order := pendingRevisionOrder()
		orderRepo.On("GetByID", mock.Anything, uint(4)).Return(order, nil)
		orderRepo.On("Update", mock.Anything, order).Return(nil)

		updated, err := svc.DecideRevision(ctx, 4, DecideRevisionInput{Decision: "accepted"})
		require.NoError(t, err)
		assert.Equal(t, models.StatusInProgress, updated.Status)
		assert.Equal(t, models.RevisionAccepted, updated.RevisionRequest.Status)

		drafts := emitter.all()
		require.Len(t, drafts, 1)
		assert.Equal(t, models.NotifRevisionRequest, drafts[0].Type)
		assert.Equal(t, `Your revision request for "Poster" was accepted.`, drafts[0].Body)
	})

	t.Run("counter offer keeps order in revision", func(t *testing.T) {
		svc, orderRepo, _, _ := newOrderService()
		order := pendingRevisionOrder()
		orderRepo.On("GetByID", mock.Anything, uint(4)).Return(order, nil)
		orderRepo.On("Update", mock.Anything, order).Return(nil)

		price := 250.0
		updated, err := svc.DecideRevision(ctx, 4, DecideRevisionInput{
			Decision:      "counter_offer",
			CounterOffer:  "Extra work, +250",
			ProposedPrice: &price,
		})
		require.NoError(t, err)
		assert.Equal(t, models.StatusRevision, updated.Status)
		assert.Equal(t, models.RevisionCounterOffer, updated.RevisionRequest.Status)
		assert.Equal(t, "Extra work, +250", updated.RevisionRequest.CounterOffer)
		require.NotNil(t, updated.ProposedPrice)
		assert.Equal(t, 250.0, *updated.ProposedPrice)
	})

	t.Run("rejected records verdict but moves nothing", func(t *testing.T) {
		svc, orderRepo, _, _ := newOrderService()
		order := pendingRevisionOrder()
		orderRepo.On("GetByID", mock.Anything, uint(4)).Return(order, nil)
		orderRepo.On("Update", mock.Anything, order).Return(nil)

		updated, err := svc.DecideRevision(ctx, 4, DecideRevisionInput{Decision: "rejected"})
		require.NoError(t, err)
		assert.Equal(t, models.StatusRevision, updated.Status)
		assert.Equal(t, models.RevisionRejected, updated.RevisionRequest.Status)
	})

	t.Run("applies without a pending request", func(t *testing.T) {
		svc, orderRepo, _, _ := newOrderService()
		order := &models.Order{ID: 4, UserID: 5, Status: models.StatusDelivered}
		orderRepo.On("GetByID", mock.Anything, uint(4)).Return(order, nil)
		orderRepo.On("Update", mock.Anything, order).Return(nil)

		updated, err := svc.DecideRevision(ctx, 4, DecideRevisionInput{Decision: "accepted"})
		require.NoError(t, err)
		assert.Equal(t, models.StatusInProgress, updated.Status)
		assert.Equal(t, models.RevisionAccepted, updated.RevisionRequest.Status)
	})

	t.Run("re-deciding a decided request", func(t *testing.T) {
		svc, orderRepo, _, _ := newOrderService()
		order := pendingRevisionOrder()
		order.RevisionRequest.Status = models.RevisionRejected
		orderRepo.On("GetByID", mock.Anything, uint(4)).Return(order, nil)
		orderRepo.On("Update", mock.Anything, order).Return(nil)

		updated, err := svc.DecideRevision(ctx, 4, DecideRevisionInput{Decision: "accepted"})
		require.NoError(t, err)
		assert.Equal(t, models.StatusInProgress, updated.Status)
		assert.Equal(t, models.RevisionAccepted, updated.RevisionRequest.Status)
	})

	t.Run("pending is not a decision", func(t *testing.T) {
		svc, _, _, _ := newOrderService()
		_, err := svc.DecideRevision(ctx, 4, DecideRevisionInput{Decision: "pending"})
		assertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("counter offer requires message", func(t *testing.T) {
		svc, orderRepo, _, _ := newOrderService()
		order := pendingRevisionOrder()
		orderRepo.On("GetByID", mock.Anything, uint(4)).Return(order, nil)

		_, err := svc.DecideRevision(ctx, 4, DecideRevisionInput{Decision: "counter_offer"})
		assertAppError(t, err, "VALIDATION_ERROR")
	})
}

func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}
