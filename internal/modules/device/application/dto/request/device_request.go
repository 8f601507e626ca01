package request

type RegisterDeviceRequest struct {
	DeviceId   string  `json:"device_id"`
	Platform   string  `json:"platform"`
	FcmToken   *string `json:"fcm_token"`
	DeviceName *string `json:"device_name"`
}

type DeregisterDeviceRequest struct {
	DeviceId string `json:"device_id"`
}

type GetTokensRequest struct {
	UserIds []int64 `json:"user_ids"`
}
