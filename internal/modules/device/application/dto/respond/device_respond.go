package respond

type UserDeviceItem struct {
	UserId     int64  `json:"user_id"`
	DeviceId   string `json:"device_id"`
	IsActive   bool   `json:"is_active"`
	HasToken   bool   `json:"has_token"`
	LastSeenAt string `json:"last_seen_at"`
}

// TokensRespond key 为用户 id 的字符串形式
type TokensRespond struct {
	Tokens map[string][]string `json:"tokens"`
}
