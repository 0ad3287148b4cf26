package handlers

import (
	"net/http"

	portssvc "github.com/SscSPs/school_workflow_app/internal/core/ports/services"
	"github.com/SscSPs/school_workflow_app/internal/dto"
	"github.com/gin-gonic/gin"
)

// notificationHandler serves the caller's notification inbox.
type notificationHandler struct {
	inboxService portssvc.InboxSvc
}

func registerNotificationRoutes(rg *gin.RouterGroup, is portssvc.InboxSvc) {
	h := &notificationHandler{inboxService: is}

	notifications := rg.Group("/notifications")
	{
		notifications.GET("", h.listNotifications)
		notifications.POST("/:id/read", h.markRead)
	}
}

// listNotifications godoc
// @Summary List the caller's notifications
// @Description Includes notifications addressed to the caller's role, newest first
// @Tags notifications
// @Produce  json
// @Param   unread query bool false "Only unread notifications"
// @Param   limit query int false "Maximum number of notifications (max 200)"
// @Success 200 {object} dto.ListNotificationsResponse
// @Failure 400 {object} map[string]string "Invalid query"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /notifications [get]
func (h *notificationHandler) listNotifications(c *gin.Context) {
	var params dto.ListNotificationsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}
	actor, ok := principalFromContext(c)
	if !ok {
		return
	}
	resp, err := h.inboxService.ListInbox(c.Request.Context(), actor, params)
	if err != nil {
		respondWithError(c, err, "Failed to list notifications")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// markRead godoc
// @Summary Mark a notification as read
// @Tags notifications
// @Produce  json
// @Param   id path string true "Notification ID"
// @Success 200 {object} dto.NotificationResponse
// @Failure 404 {object} map[string]string "Notification not found"
// @Security BearerAuth
// @Router /notifications/{id}/read [post]
func (h *notificationHandler) markRead(c *gin.Context) {
	actor, ok := principalFromContext(c)
	if !ok {
		return
	}
	n, err := h.inboxService.MarkRead(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondWithError(c, err, "Failed to mark notification read")
		return
	}
	c.JSON(http.StatusOK, dto.NotificationResponse{Notification: *n, Read: n.IsRead()})
}
