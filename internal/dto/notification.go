package dto

import (
	"github.com/SscSPs/school_workflow_app/internal/core/domain"
)

// NotificationResponse is the API view of an inbox notification.
type NotificationResponse struct {
	domain.Notification
	Read bool `json:"read"`
}

// ListNotificationsParams defines the query parameters of the inbox.
type ListNotificationsParams struct {
	Unread bool `form:"unread"`
	Limit  int  `form:"limit" binding:"omitempty,min=1,max=200"`
}

// ListNotificationsResponse is the caller's inbox.
type ListNotificationsResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
}

// ToNotificationResponses converts a slice of notifications.
func ToNotificationResponses(ns []domain.Notification) []NotificationResponse {
	out := make([]NotificationResponse, len(ns))
	for i, n := range ns {
		out[i] = NotificationResponse{Notification: n, Read: n.IsRead()}
	}
	return out
}
