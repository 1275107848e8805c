// Package realtime persists notifications and pushes them to connected
// clients over a redis pub/sub channel per company. Delivery is fire and
// forget: a publish failure is logged and never surfaces to the caller.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"github.com/kairostudio/backoffice/internal/models"
)

type Notifier struct {
	DB  *gorm.DB
	RDB *redis.Client // nil disables the realtime push
}

func NewNotifier(db *gorm.DB, rdb *redis.Client) *Notifier {
	return &Notifier{DB: db, RDB: rdb}
}

// Channel is the pub/sub channel for one company's notifications.
func Channel(companyID uint) string { return fmt.Sprintf("notifications:%d", companyID) }

// Notify creates a notification row for every member of the company and
// publishes the payload on the company channel.
func (n *Notifier) Notify(ctx context.Context, companyID uint, typ, title, message string) {
	var users []models.User
	if err := n.DB.WithContext(ctx).Select("id").Where("company_id = ?", companyID).Find(&users).Error; err != nil {
		log.Printf("notify: list members: %v", err)
		return
	}
	rows := make([]models.Notification, 0, len(users))
	for _, u := range users {
		rows = append(rows, models.Notification{CompanyID: companyID, UserID: u.ID, Type: typ, Title: title, Message: message})
	}
	if len(rows) > 0 {
		if err := n.DB.WithContext(ctx).Create(&rows).Error; err != nil {
			log.Printf("notify: persist: %v", err)
			return
		}
	}
	if n.RDB == nil {
		return
	}
	payload, err := json.Marshal(map[string]any{"type": typ, "title": title, "message": message})
	if err != nil {
		return
	}
	if err := n.RDB.Publish(ctx, Channel(companyID), payload).Err(); err != nil {
		log.Printf("notify: publish: %v", err)
	}
}
