package worker

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"dealdesk/models"
	"dealdesk/pipeline"
	"dealdesk/realtime"
	"dealdesk/utils"

	"gorm.io/gorm"
)

// ReminderWorker scans for deals whose expected close date has entered
// the near-term window and raises a deal_closing_soon notification. One
// reminder per deal per day; the dedup key is recorded on the
// notification payload.
type ReminderWorker struct {
	DB     *gorm.DB
	Hub    *realtime.Hub
	Logger *log.Logger

	// Now is swappable in tests.
	Now func() time.Time
}

func NewReminderWorker(db *gorm.DB, hub *realtime.Hub, logger *log.Logger) *ReminderWorker {
	return &ReminderWorker{
		DB:     db,
		Hub:    hub,
		Logger: logger,
		Now:    time.Now,
	}
}

func (rw *ReminderWorker) Start(ctx context.Context) {
	// Initial delay to let the server start up
	time.Sleep(10 * time.Second)

	rw.Logger.Println("Reminder worker started")

	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	rw.ProcessClosingDeals(ctx)

	for {
		select {
		case <-ctx.Done():
			rw.Logger.Println("Reminder worker shutting down...")
			return
		case <-ticker.C:
			rw.ProcessClosingDeals(ctx)
		}
	}
}

// ProcessClosingDeals raises reminders for deals closing within the
// window. Both window bounds are inclusive at date granularity.
func (rw *ReminderWorker) ProcessClosingDeals(ctx context.Context) {
	win := pipeline.ClosingWindow(rw.Now(), pipeline.WeekWindowDays)

	var deals []models.Deal
	if err := rw.DB.Preload("Stage").
		Where("expected_close IS NOT NULL").
		Where("expected_close >= ? AND expected_close < ?", win.Start, win.End.AddDate(0, 0, 1)).
		Find(&deals).Error; err != nil {
		rw.Logger.Printf("Error fetching closing deals: %v", err)
		return
	}

	for _, deal := range deals {
		if err := rw.remindDeal(ctx, deal, win.Start); err != nil {
			rw.Logger.Printf("Error reminding deal %d: %v", deal.ID, err)
		}
	}
}

func (rw *ReminderWorker) remindDeal(ctx context.Context, deal models.Deal, today time.Time) error {
	dedupKey := fmt.Sprintf("%d:%s", deal.ID, today.Format("2006-01-02"))

	var existing int64
	if err := rw.DB.Model(&models.Notification{}).
		Where("user_id = ? AND type = ? AND data ->> 'dedup_key' = ?",
			deal.UserID, models.NotificationDealClosingSoon, dedupKey).
		Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return nil
	}

	days := int(deal.ExpectedClose.Sub(today).Hours() / 24)
	when := "today"
	if days == 1 {
		when = "tomorrow"
	} else if days > 1 {
		when = fmt.Sprintf("in %d days", days)
	}

	notification := models.Notification{
		UserID:  deal.UserID,
		Type:    models.NotificationDealClosingSoon,
		Title:   "Deal closing soon",
		Message: fmt.Sprintf("%s is expected to close %s", deal.PropertyAddress, when),
		ActionURL: utils.Pointer(
			fmt.Sprintf("/deals/%d", deal.ID),
		),
		Data: map[string]string{
			"deal_id":   strconv.FormatUint(uint64(deal.ID), 10),
			"dedup_key": dedupKey,
		},
	}
	if err := rw.DB.Create(&notification).Error; err != nil {
		return err
	}

	rw.Hub.Publish(ctx, realtime.Event{
		Event:    realtime.EventInsert,
		Resource: realtime.ResourceNotifications,
		ID:       notification.ID,
		UserID:   deal.UserID,
	})
	return nil
}
