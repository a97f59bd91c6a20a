package service

import (
	"context"
	"strings"

	"atelier/internal/cache"
	"atelier/internal/models"
	"atelier/internal/notifications"
	"atelier/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	userRepo  repository.UserRepository
	orderRepo repository.OrderRepository
	notifRepo repository.NotificationRepository
	emitter   NotificationEmitter
}

func NewUserService(
	userRepo repository.UserRepository,
	orderRepo repository.OrderRepository,
	notifRepo repository.NotificationRepository,
	emitter NotificationEmitter,
) *UserService {
	return &UserService{
		userRepo:  userRepo,
		orderRepo: orderRepo,
		notifRepo: notifRepo,
		emitter:   emitter,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Company  string
}

// Register creates a customer account and greets it with a welcome
// notification. All self-registered accounts get the user role; admins are
// provisioned out of band.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Name == "" {
		return nil, models.NewValidationError("Name is required")
	}
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return nil, models.NewValidationError("A valid email is required")
	}
	if len(in.Password) < 8 {
		return nil, models.NewValidationError("Password must be at least 8 characters")
	}

	existing, err := s.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewValidationError("Email is already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: string(hash),
		Role:     models.RoleUser,
		Phone:    in.Phone,
		Company:  in.Company,
		IsActive: true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	cache.Invalidate(ctx, cache.DashboardStatsKey())
	s.emitter.Emit(ctx, notifications.Draft{
		UserID: user.ID,
		Title:  "Welcome",
		Body:   "Welcome aboard! Create your first order whenever you are ready.",
		Type:   models.NotifSystem,
	})

	return user, nil
}

// Authenticate verifies credentials and returns the account. Inactive
// accounts cannot sign in.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError("Invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid email or password")
	}
	if !user.IsActive {
		return nil, models.NewForbiddenError("Account is deactivated")
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

type UpdateProfileInput struct {
	Name    string
	Phone   string
	Company string
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uint, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.Name != "" {
		user.Name = in.Name
	}
	user.Phone = in.Phone
	user.Company = in.Company
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

type AdminUpdateUserInput struct {
	Name     string
	Email    string
	Phone    string
	Company  string
	Role     string
	IsActive *bool
}

// AdminUpdateUser lets an administrator edit any account, including its
// role and active flag. Empty fields are left untouched.
func (s *UserService) AdminUpdateUser(ctx context.Context, id uint, in AdminUpdateUserInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != "" {
		user.Name = in.Name
	}
	if in.Email != "" {
		email := strings.ToLower(strings.TrimSpace(in.Email))
		if !strings.Contains(email, "@") {
			return nil, models.NewValidationError("A valid email is required")
		}
		user.Email = email
	}
	if in.Phone != "" {
		user.Phone = in.Phone
	}
	if in.Company != "" {
		user.Company = in.Company
	}
	if in.Role != "" {
		switch role := models.Role(in.Role); role {
		case models.RoleUser, models.RoleAdmin:
			user.Role = role
		default:
			return nil, models.NewValidationError("Unknown role: " + in.Role)
		}
	}
	if in.IsActive != nil {
		user.IsActive = *in.IsActive
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) ListCustomers(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.userRepo.ListCustomers(ctx, limit, offset)
}

// CustomerDetail pairs an account with a summary of its orders for the
// admin user view.
type CustomerDetail struct {
	User   *models.User           `json:"user"`
	Orders repository.OrderCounts `json:"orders"`
}

func (s *UserService) GetCustomerDetail(ctx context.Context, id uint) (*CustomerDetail, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	counts, err := s.orderRepo.CountsByUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return &CustomerDetail{User: user, Orders: counts}, nil
}

// DeleteCustomer removes an account together with its orders, order files,
// delivery files, and notifications. Admin accounts cannot be deleted this
// way.
func (s *UserService) DeleteCustomer(ctx context.Context, id uint) error {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user.IsAdmin() {
		return models.NewForbiddenError("Admin accounts cannot be deleted")
	}

	ids := []uint{user.ID}
	if err := s.orderRepo.DeleteByUsers(ctx, ids); err != nil {
		return err
	}
	if err := s.notifRepo.DeleteByUsers(ctx, ids); err != nil {
		return err
	}
	if err := s.userRepo.Delete(ctx, user.ID); err != nil {
		return err
	}

	cache.Invalidate(ctx, cache.DashboardStatsKey(), cache.UnreadCountKey(user.ID))
	return nil
}

// DeleteCustomers removes several accounts at once, skipping IDs that do
// not exist or belong to admins. It returns how many accounts were removed.
func (s *UserService) DeleteCustomers(ctx context.Context, ids []uint) (int, error) {
	if len(ids) == 0 {
		return 0, models.NewValidationError("No user IDs given")
	}

	deletable := make([]uint, 0, len(ids))
	for _, id := range ids {
		user, err := s.userRepo.GetByID(ctx, id)
		if err != nil {
			continue
		}
		if user.IsAdmin() {
			continue
		}
		deletable = append(deletable, user.ID)
	}
	if len(deletable) == 0 {
		return 0, nil
	}

	if err := s.orderRepo.DeleteByUsers(ctx, deletable); err != nil {
		return 0, err
	}
	if err := s.notifRepo.DeleteByUsers(ctx, deletable); err != nil {
		return 0, err
	}
	keys := []string{cache.DashboardStatsKey()}
	deleted := 0
	for _, id := range deletable {
		if err := s.userRepo.Delete(ctx, id); err != nil {
			continue
		}
		deleted++
		keys = append(keys, cache.UnreadCountKey(id))
	}

	cache.Invalidate(ctx, keys...)
	return deleted, nil
}
