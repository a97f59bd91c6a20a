package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"sync"

	"atelier/internal/models"
	"atelier/internal/notifications"
	"atelier/internal/repository"
	"atelier/internal/storage"

	"github.com/stretchr/testify/mock"
)

type mockOrderRepo struct {
	mock.Mock
}

func (m *mockOrderRepo) Create(ctx context.Context, order *models.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderRepo) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockOrderRepo) Update(ctx context.Context, order *models.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderRepo) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Order, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *mockOrderRepo) ListAll(ctx context.Context, limit, offset int) ([]models.Order, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *mockOrderRepo) ListPendingRevisions(ctx context.Context) ([]models.Order, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *mockOrderRepo) ReplaceDeliveryFiles(ctx context.Context, orderID uint, files []models.DeliveryFile) error {
	args := m.Called(ctx, orderID, files)
	return args.Error(0)
}

func (m *mockOrderRepo) DeleteByUsers(ctx context.Context, userIDs []uint) error {
	args := m.Called(ctx, userIDs)
	return args.Error(0)
}

func (m *mockOrderRepo) CountAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockOrderRepo) CountPendingRevisions(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockOrderRepo) CountsByUser(ctx context.Context, userID uint) (repository.OrderCounts, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(repository.OrderCounts), args.Error(1)
}

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockUserRepo) ListCustomers(ctx context.Context, limit, offset int) ([]models.User, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *mockUserRepo) CountCustomers(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockMessageRepo struct {
	mock.Mock
}

func (m *mockMessageRepo) Create(ctx context.Context, msg *models.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *mockMessageRepo) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *mockMessageRepo) Update(ctx context.Context, msg *models.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *mockMessageRepo) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockMessageRepo) List(ctx context.Context, limit, offset int) ([]models.Message, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *mockMessageRepo) CountAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockMessageRepo) CountUnread(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockNotificationRepo struct {
	mock.Mock
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *mockNotificationRepo) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]models.Notification), args.Error(1)
}

func (m *mockNotificationRepo) ListAll(ctx context.Context, limit, offset int) ([]models.Notification, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]models.Notification), args.Error(1)
}

func (m *mockNotificationRepo) UnreadCountByUser(ctx context.Context, userID uint) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockNotificationRepo) MarkAllRead(ctx context.Context, userID uint) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockNotificationRepo) DeleteByUsers(ctx context.Context, userIDs []uint) error {
	args := m.Called(ctx, userIDs)
	return args.Error(0)
}

func (m *mockNotificationRepo) PurgeExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// recordingEmitter collects drafts instead of persisting them, so tests can
// assert on exactly what a service decided to announce.
type recordingEmitter struct {
	mu     sync.Mutex
	drafts []notifications.Draft
}

func (e *recordingEmitter) Emit(ctx context.Context, drafts ...notifications.Draft) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.drafts = append(e.drafts, drafts...)
}

func (e *recordingEmitter) all() []notifications.Draft {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]notifications.Draft(nil), e.drafts...)
}

// fakeStore pretends to have written every upload.
type fakeStore struct {
	saved   []string
	removed []string
	saveErr error
}

func (f *fakeStore) SaveBatch(field string, files []*multipart.FileHeader) ([]storage.StoredFile, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	out := make([]storage.StoredFile, len(files))
	for i, fh := range files {
		name := fmt.Sprintf("%s-%d-stored", field, i)
		out[i] = storage.StoredFile{
			StoredName:   name,
			OriginalName: fh.Filename,
			Path:         "uploads/files/" + name,
		}
		f.saved = append(f.saved, name)
	}
	return out, nil
}

func (f *fakeStore) Remove(paths ...string) {
	f.removed = append(f.removed, paths...)
}

// fakeMailer records sends and optionally fails them.
type fakeMailer struct {
	sent []struct{ To, Subject, Body string }
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, struct{ To, Subject, Body string }{to, subject, body})
	return nil
}
