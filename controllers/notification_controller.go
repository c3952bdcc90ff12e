package controller

import (
	"log"
	"strconv"
	"time"

	"dealdesk/models"
	"dealdesk/realtime"
	"dealdesk/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type NotificationController struct {
	DB     *gorm.DB
	Hub    *realtime.Hub
	Logger *log.Logger
}

func NewNotificationController(db *gorm.DB, hub *realtime.Hub, logger *log.Logger) *NotificationController {
	return &NotificationController{
		DB:     db,
		Hub:    hub,
		Logger: logger,
	}
}

// GetNotifications lists the caller's notifications, newest first.
func (nc *NotificationController) GetNotifications(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := nc.DB.Model(&models.Notification{}).Where("user_id = ?", user.ID)
	if c.Query("unread") == "true" {
		query = query.Where("is_read = false")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to count notifications", err)
	}

	var notifications []models.Notification
	if err := query.Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&notifications).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch notifications", err)
	}

	var unreadCount int64
	nc.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = false", user.ID).
		Count(&unreadCount)

	return c.JSON(fiber.Map{
		"success":      true,
		"data":         notifications,
		"unread_count": unreadCount,
		"pagination": fiber.Map{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// MarkRead marks one notification as read
func (nc *NotificationController) MarkRead(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	now := time.Now()
	result := nc.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", c.Params("id"), user.ID).
		Updates(map[string]interface{}{"is_read": true, "read_at": now})
	if result.Error != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to mark notification read", result.Error)
	}
	if result.RowsAffected == 0 {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Notification not found", nil)
	}

	nc.Hub.Publish(c.Context(), realtime.Event{
		Event:    realtime.EventUpdate,
		Resource: realtime.ResourceNotifications,
		ID:       utils.ParseUint(c.Params("id")),
		UserID:   user.ID,
	})

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"message": "Notification marked as read",
	}))
}

// MarkAllRead marks every unread notification for the caller as read.
func (nc *NotificationController) MarkAllRead(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	now := time.Now()
	result := nc.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = false", user.ID).
		Updates(map[string]interface{}{"is_read": true, "read_at": now})
	if result.Error != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to mark notifications read", result.Error)
	}

	nc.Hub.Publish(c.Context(), realtime.Event{
		Event:    realtime.EventUpdate,
		Resource: realtime.ResourceNotifications,
		UserID:   user.ID,
	})

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"message": "All notifications marked as read",
		"updated": result.RowsAffected,
	}))
}

// DeleteNotification removes one notification
func (nc *NotificationController) DeleteNotification(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	result := nc.DB.Unscoped().
		Where("id = ? AND user_id = ?", c.Params("id"), user.ID).
		Delete(&models.Notification{})
	if result.Error != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete notification", result.Error)
	}
	if result.RowsAffected == 0 {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Notification not found", nil)
	}

	nc.Hub.Publish(c.Context(), realtime.Event{
		Event:    realtime.EventDelete,
		Resource: realtime.ResourceNotifications,
		ID:       utils.ParseUint(c.Params("id")),
		UserID:   user.ID,
	})

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"message": "Notification deleted",
	}))
}
