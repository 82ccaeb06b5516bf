package request

type NotificationFilter struct {
	UnreadOnly bool
	PaginatedRequest
}
