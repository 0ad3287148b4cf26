package domain

import "time"

// Notification is one message in a recipient's inbox describing a workflow transition.
type Notification struct {
	NotificationID string     `json:"id"`
	RecipientID    string     `json:"recipientId"` // user id or role address ("role:principal")
	Template       string     `json:"template"`
	Message        string     `json:"message"`
	Kind           Kind       `json:"kind,omitempty"`
	EntityID       string     `json:"entityId,omitempty"`
	FromStatus     Status     `json:"fromStatus,omitempty"`
	ToStatus       Status     `json:"toStatus,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	ReadAt         *time.Time `json:"readAt,omitempty"`
}

// IsRead reports whether the recipient has marked the notification as read.
func (n Notification) IsRead() bool {
	return n.ReadAt != nil
}

// AddressedTo reports whether the notification is visible to the principal,
// either directly or through the principal's role address.
func (n Notification) AddressedTo(p Principal) bool {
	return n.RecipientID == p.ID || n.RecipientID == RoleAddress(p.Role)
}

// Event is the short event name published for a transition, e.g. "submitted".
func (a Action) Event() string {
	switch a {
	case ActionCreate:
		return "created"
	case ActionEdit:
		return "edited"
	case ActionSubmit:
		return "submitted"
	case ActionApprove:
		return "approved"
	case ActionReject:
		return "rejected"
	case ActionComplete:
		return "completed"
	case ActionDelete:
		return "deleted"
	}
	return string(a)
}

// TransitionEvent describes one applied transition. It feeds notification
// templates and published events.
type TransitionEvent struct {
	EntityID   string    `json:"entityId"`
	Kind       Kind      `json:"kind"`
	Title      string    `json:"title"`
	OwnerID    string    `json:"ownerId"`
	OwnerName  string    `json:"ownerName"`
	Period     Period    `json:"period"`
	Action     Action    `json:"action"`
	FromStatus Status    `json:"fromStatus,omitempty"`
	ToStatus   Status    `json:"toStatus"`
	ActorID    string    `json:"actorId"`
	ActorName  string    `json:"actorName"`
	Note       string    `json:"note,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Event is the short event name of the transition, e.g. "approved".
func (e TransitionEvent) Event() string {
	return e.Action.Event()
}
