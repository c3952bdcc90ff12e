package worker

import (
	"context"
	"log"
	"time"

	"dealdesk/models"
	"dealdesk/utils"

	"gorm.io/gorm"
)

// NotificationWorker drains unsent notifications and emails them as one
// digest per user. Delivery failures leave the rows unmarked so the next
// cycle retries them.
type NotificationWorker struct {
	DB     *gorm.DB
	Mailer *utils.Mailer
	Logger *log.Logger
}

func NewNotificationWorker(db *gorm.DB, mailer *utils.Mailer, logger *log.Logger) *NotificationWorker {
	return &NotificationWorker{
		DB:     db,
		Mailer: mailer,
		Logger: logger,
	}
}

func (nw *NotificationWorker) Start(ctx context.Context) {
	// Initial delay to let the server start up
	time.Sleep(15 * time.Second)

	nw.Logger.Println("Notification worker started")

	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			nw.Logger.Println("Notification worker shutting down...")
			return
		case <-ticker.C:
			nw.ProcessPendingDigests()
		}
	}
}

// ProcessPendingDigests groups unsent notifications by user and sends one
// digest email per user.
func (nw *NotificationWorker) ProcessPendingDigests() {
	var pending []models.Notification
	if err := nw.DB.Where("emailed = false").
		Order("user_id ASC, created_at ASC").
		Limit(500).
		Find(&pending).Error; err != nil {
		nw.Logger.Printf("Error fetching pending notifications: %v", err)
		return
	}
	if len(pending) == 0 {
		return
	}

	byUser := make(map[uint][]models.Notification)
	for _, n := range pending {
		byUser[n.UserID] = append(byUser[n.UserID], n)
	}

	for userID, items := range byUser {
		if err := nw.sendDigest(userID, items); err != nil {
			nw.Logger.Printf("Error sending digest to user %d: %v", userID, err)
		}
	}
}

func (nw *NotificationWorker) sendDigest(userID uint, items []models.Notification) error {
	var user models.User
	if err := nw.DB.First(&user, userID).Error; err != nil {
		return err
	}
	if !user.IsActive {
		// Inactive accounts never receive mail; mark the rows so they
		// stop accumulating.
		return nw.markEmailed(items)
	}

	if err := nw.Mailer.SendNotificationDigest(user.Email, items); err != nil {
		return err
	}
	return nw.markEmailed(items)
}

func (nw *NotificationWorker) markEmailed(items []models.Notification) error {
	ids := make([]uint, 0, len(items))
	for _, n := range items {
		ids = append(ids, n.ID)
	}
	return nw.DB.Model(&models.Notification{}).
		Where("id IN ?", ids).
		Update("emailed", true).Error
}
