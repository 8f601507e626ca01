package respond

type MessageItem struct {
	Id          string `json:"id"`
	ChatDocId   string `json:"chat_doc_id"`
	Text        string `json:"text"`
	SenderType  string `json:"sender_type"`
	SenderId    int64  `json:"sender_id"`
	RecipientId int64  `json:"recipient_id"`
	CreatedAt   string `json:"created_at"`
}

type ArchivedMessageItem struct {
	Id                int64  `json:"id"`
	FirebaseMessageId string `json:"message_id"`
	Text              string `json:"text"`
	SenderType        string `json:"sender_type"`
	SenderId          int64  `json:"sender_id"`
	CreatedAt         string `json:"created_at"`
}

type ArchivedListRespond struct {
	Items  []ArchivedMessageItem `json:"items"`
	NextId int64                 `json:"next_before_id,omitempty"`
}

// ArchiveRespond 一次归档的统计，moved 包含已被归档过的重复消息
type ArchiveRespond struct {
	Cutoff     string   `json:"cutoff"`
	Threads    int      `json:"threads"`
	Moved      int      `json:"moved"`
	Duplicates int      `json:"duplicates"`
	Deleted    int      `json:"deleted"`
	Failed     int      `json:"failed"`
	Errors     []string `json:"errors,omitempty"`
}
