package request

type ListNotificationRequest struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	UnreadOnly bool `json:"unread_only"`
}

type MarkReadRequest struct {
	Ids []int64 `json:"ids" binding:"required,min=1"`
}

// NotifyRequest 内部接口：向单个收件人派发通知
type NotifyRequest struct {
	RecipientUserId int64                  `json:"recipient_user_id"`
	ChatDocId       string                 `json:"chat_doc_id"`
	SenderIsArtist  bool                   `json:"sender_is_artist"`
	Type            string                 `json:"type" binding:"required"`
	Title           string                 `json:"title" binding:"required"`
	Body            string                 `json:"body" binding:"required"`
	Data            map[string]interface{} `json:"data"`
	SenderArtistId  *int64                 `json:"sender_artist_id"`
	SenderUserId    *int64                 `json:"sender_user_id"`
	LiveStreamId    int64                  `json:"live_stream_id"`
	MessageCount    int                    `json:"message_count"`
	CheckPresence   bool                   `json:"check_presence"`
	RecordInHistory *bool                  `json:"record_in_history"`
	ImageUrl        string                 `json:"image_url"`
}

// SendBatchRequest 内部接口：向 token 列表和/或用户列表批量推送
type SendBatchRequest struct {
	Title    string                 `json:"title" binding:"required"`
	Body     string                 `json:"body" binding:"required"`
	Data     map[string]interface{} `json:"data"`
	ImageUrl string                 `json:"image_url"`
	Tokens   []string               `json:"tokens"`
	UserIds  []int64                `json:"user_ids"`
}
