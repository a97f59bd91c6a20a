package database

import "atelier/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Order{},
		&models.OrderFile{},
		&models.DeliveryFile{},
		&models.Message{},
		&models.Notification{},
	}
}
