// Package seed populates the database with demo data for development.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"atelier/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configures how much demo data the seeder creates.
type Options struct {
	NumCustomers int
	NumOrders    int
	NumMessages  int
	ShouldClean  bool
}

// Seeder creates demo users, orders, messages and notifications.
type Seeder struct {
	db   *gorm.DB
	rand *rand.Rand
}

// NewSeeder creates a Seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB) *Seeder {
	gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{
		db:   db,
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ClearAll removes all seeded data. Children first so foreign keys hold.
func (s *Seeder) ClearAll() error {
	tables := []string{
		"notifications", "messages", "delivery_files", "order_files", "orders", "users",
	}
	for _, table := range tables {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	log.Println("Cleared existing data")
	return nil
}

// Run seeds the database according to opts.
func (s *Seeder) Run(opts Options) error {
	if opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			return err
		}
	}

	admin, err := s.createAdmin()
	if err != nil {
		return fmt.Errorf("seeding admin: %w", err)
	}
	log.Printf("Admin account: %s / password123", admin.Email)

	customers, err := s.createCustomers(opts.NumCustomers)
	if err != nil {
		return fmt.Errorf("seeding customers: %w", err)
	}

	if err := s.createOrders(customers, opts.NumOrders); err != nil {
		return fmt.Errorf("seeding orders: %w", err)
	}

	if err := s.createMessages(customers, opts.NumMessages); err != nil {
		return fmt.Errorf("seeding messages: %w", err)
	}

	log.Printf("Seeded %d customers, %d orders, %d messages", len(customers), opts.NumOrders, opts.NumMessages)
	return nil
}

func (s *Seeder) createAdmin() (*models.User, error) {
	admin := &models.User{
		Name:     "Atelier Admin",
		Email:    "admin@atelier.dev",
		Password: s.hash("password123"),
		Role:     models.RoleAdmin,
		IsActive: true,
	}
	if err := s.db.Create(admin).Error; err != nil {
		return nil, err
	}
	return admin, nil
}

func (s *Seeder) createCustomers(count int) ([]models.User, error) {
	password := s.hash("password123")
	users := make([]models.User, 0, count)
	for i := 0; i < count; i++ {
		name := gofakeit.Name()
		users = append(users, models.User{
			Name:      name,
			Email:     fmt.Sprintf("%s%d@%s", gofakeit.Username(), i, gofakeit.DomainName()),
			Password:  password,
			Role:      models.RoleUser,
			Phone:     gofakeit.Phone(),
			Company:   gofakeit.Company(),
			IsActive:  true,
			CreatedAt: s.pastTime(120),
		})
	}
	if err := s.db.Create(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

var orderStatuses = []models.OrderStatus{
	models.StatusPending, models.StatusPending,
	models.StatusInProgress, models.StatusInProgress, models.StatusInProgress,
	models.StatusDelivered, models.StatusDelivered,
	models.StatusRevision,
	models.StatusCancelled,
}

func (s *Seeder) createOrders(customers []models.User, count int) error {
	if len(customers) == 0 || count == 0 {
		return nil
	}
	for i := 0; i < count; i++ {
		owner := customers[s.rand.Intn(len(customers))]
		status := orderStatuses[s.rand.Intn(len(orderStatuses))]

		order := models.Order{
			UserID:      owner.ID,
			Title:       fmt.Sprintf("%s %s", gofakeit.BuzzWord(), gofakeit.ProductName()),
			Description: gofakeit.Paragraph(1, 3, 8, " "),
			Status:      status,
			Priority:    s.priority(),
			Tags:        gofakeit.VerbAction(),
			CreatedAt:   s.pastTime(90),
		}

		if s.rand.Intn(2) == 0 {
			price := gofakeit.Price(100, 5000)
			order.ProposedPrice = &price
		}
		if s.rand.Intn(2) == 0 {
			deadline := time.Now().Add(time.Duration(s.rand.Intn(45)+5) * 24 * time.Hour)
			order.ProposedDeadline = &deadline
		}

		switch status {
		case models.StatusRevision:
			requestedAt := time.Now().Add(-time.Duration(s.rand.Intn(72)) * time.Hour)
			order.RevisionRequest = models.RevisionRequest{
				Requested:   true,
				Description: gofakeit.Sentence(10),
				Status:      models.RevisionPending,
				RequestedAt: &requestedAt,
			}
		case models.StatusCancelled:
			order.CancellationReason = gofakeit.Sentence(8)
		case models.StatusDelivered:
			order.DeliveryFiles = []models.DeliveryFile{{
				StoredName:   fmt.Sprintf("deliveryFiles-%d-%d.zip", time.Now().UnixMilli(), s.rand.Intn(1_000_000_000)),
				OriginalName: "final-delivery.zip",
				Path:         "uploads/files/seed-delivery.zip",
			}}
		}

		if err := s.db.Create(&order).Error; err != nil {
			return err
		}

		if err := s.notifyForOrder(&order); err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) notifyForOrder(order *models.Order) error {
	var notifType models.NotificationType
	var title string
	switch order.Status {
	case models.StatusDelivered:
		notifType, title = models.NotifOrderDelivered, "Order Delivered"
	case models.StatusCancelled:
		notifType, title = models.NotifOrderCancelled, "Order Cancelled"
	default:
		notifType, title = models.NotifOrderApproved, "Order Update"
	}
	orderID := order.ID
	notif := models.Notification{
		UserID:         order.UserID,
		Type:           notifType,
		Title:          title,
		Body:           fmt.Sprintf("Update on your order %q.", order.Title),
		IsRead:         s.rand.Intn(3) != 0,
		RelatedOrderID: &orderID,
		ExpiresAt:      time.Now().Add(models.NotificationTTL),
	}
	return s.db.Create(&notif).Error
}

var messageCategories = []string{"general", "support", "billing", "feedback"}

func (s *Seeder) createMessages(customers []models.User, count int) error {
	for i := 0; i < count; i++ {
		msg := models.Message{
			Name:      gofakeit.Name(),
			Email:     gofakeit.Email(),
			Subject:   gofakeit.Sentence(5),
			Body:      gofakeit.Paragraph(1, 2, 10, " "),
			Category:  messageCategories[s.rand.Intn(len(messageCategories))],
			Priority:  s.priority(),
			Status:    models.MessageNew,
			CreatedAt: s.pastTime(30),
		}

		// some messages come from registered customers
		if len(customers) > 0 && s.rand.Intn(3) == 0 {
			owner := customers[s.rand.Intn(len(customers))]
			msg.Name = owner.Name
			msg.Email = owner.Email
		}

		// a share of the backlog is already handled
		switch s.rand.Intn(4) {
		case 0:
			msg.IsRead = true
			msg.Status = models.MessageInProgress
		case 1:
			msg.IsRead = true
			msg.Replied = true
			msg.ReplyMessage = gofakeit.Sentence(12)
			msg.Status = models.MessageResolved
		}

		if err := s.db.Create(&msg).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) priority() models.OrderPriority {
	switch s.rand.Intn(4) {
	case 0:
		return models.PriorityLow
	case 1, 2:
		return models.PriorityMedium
	default:
		return models.PriorityHigh
	}
}

// pastTime returns a timestamp up to maxDays in the past.
func (s *Seeder) pastTime(maxDays int) time.Time {
	daysBack := s.rand.Intn(maxDays)
	hoursBack := s.rand.Intn(24)
	return time.Now().Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(hoursBack)*time.Hour)
}

func (s *Seeder) hash(plain string) string {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return string(hashed)
}
