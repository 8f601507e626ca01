package domain

import "context"

// Message 一次推送的内容，Data 只允许字符串值
type Message struct {
	Title    string
	Body     string
	Data     map[string]string
	ImageUrl string
}

// SendResult 一次 Send 调用的聚合结果
type SendResult struct {
	SuccessCount int      `json:"success_count"`
	FailureCount int      `json:"failure_count"`
	Total        int      `json:"total"`
	Errors       []string `json:"errors,omitempty"`
}

// TokenResponse 单个 token 的投递结果
type TokenResponse struct {
	Success   bool
	MessageId string
	Error     error
}

// BatchResponse Responses 的顺序与请求 tokens 顺序一致
type BatchResponse struct {
	Responses []TokenResponse
}

// MaxMulticastTokens 网关单次 multicast 的 token 上限
const MaxMulticastTokens = 500

// Multicaster 外部推送网关，单次调用的 token 数不超过 MaxMulticastTokens
type Multicaster interface {
	SendMulticast(ctx context.Context, msg Message, tokens []string) (*BatchResponse, error)
}
