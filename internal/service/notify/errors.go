package notify

import "errors"

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrRecipientRequired    = errors.New("recipient is required")
)
