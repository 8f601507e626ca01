package respond

type NotificationItem struct {
	Id               int64             `json:"id"`
	NotificationType string            `json:"notification_type"`
	Title            string            `json:"title"`
	Body             string            `json:"body"`
	Data             map[string]string `json:"data,omitempty"`
	IsRead           bool              `json:"is_read"`
	ReadAt           string            `json:"read_at,omitempty"`
	SenderArtistId   *int64            `json:"sender_artist_id,omitempty"`
	SenderUserId     *int64            `json:"sender_user_id,omitempty"`
	ChatDocId        string            `json:"chat_doc_id,omitempty"`
	LiveStreamId     int64             `json:"live_stream_id,omitempty"`
	MessageCount     int               `json:"message_count"`
	CreatedAt        string            `json:"created_at"`
}

type NotificationListRespond struct {
	Items    []NotificationItem `json:"items"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
}

type UnreadCountRespond struct {
	Count int64 `json:"count"`
}

type MarkReadRespond struct {
	Updated int64 `json:"updated"`
}

type BatchSendRespond struct {
	LogId        int64    `json:"log_id,omitempty"`
	SuccessCount int      `json:"success_count"`
	FailureCount int      `json:"failure_count"`
	Total        int      `json:"total"`
	Errors       []string `json:"errors,omitempty"`
}
