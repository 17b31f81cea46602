package request

// Query of the webhook verification handshake
type Verify struct {
	Mode        string `form:"hub.mode"`
	VerifyToken string `form:"hub.verify_token"`
	Challenge   string `form:"hub.challenge"`
}
