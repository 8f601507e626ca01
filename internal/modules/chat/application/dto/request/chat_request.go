package request

type SendMessageRequest struct {
	ChatDocId string `json:"chat_doc_id" binding:"required"`
	Text      string `json:"text" binding:"required"`
	// AsArtist 以会话中艺人身份发送，调用者必须是该艺人的账号
	AsArtist bool `json:"as_artist"`
}

type ListArchivedRequest struct {
	ChatDocId string `json:"chat_doc_id" binding:"required"`
	BeforeId  int64  `json:"before_id"`
	Limit     int    `json:"limit"`
}

type ReadThreadRequest struct {
	ChatDocId string `json:"chat_doc_id" binding:"required"`
	AsArtist  bool   `json:"as_artist"`
}

// ArchiveRequest 内部接口：触发一次归档
type ArchiveRequest struct {
	MaxAgeHours *int `json:"max_age_hours"`
}
