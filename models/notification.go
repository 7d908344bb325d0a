package models

import "time"

// NotificationKind задаёт тип уведомления.
type NotificationKind string

const (
	NotificationLike    NotificationKind = "like"
	NotificationComment NotificationKind = "comment"
	NotificationFollow  NotificationKind = "follow"
	NotificationSystem  NotificationKind = "system"
)

// Notification описывает событие, показываемое пользователю во всплывающем окне.
type Notification struct {
	ID           string           `json:"id"`
	AuthorHandle string           `json:"user"`
	Kind         NotificationKind `json:"type"`
	Message      string           `json:"text"`
	Timestamp    time.Time        `json:"timestamp"`
}
