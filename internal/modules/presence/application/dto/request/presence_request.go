package request

type UpdatePresenceRequest struct {
	Screen    string `json:"screen"`
	ContextId string `json:"context_id"`
}
