package constant

// Structured log field keys shared by the trackers and the coordinator.
const (
	LogKeyRemoteAddr       = "remote_addr"
	LogKeyResponseID       = "response_id"
	LogKeyPendingResponses = "pending_responses"
	LogKeyOpenConnections  = "open_connections"
	LogKeyState            = "state"
	LogKeyServer           = "server"
	LogKeyComponent        = "component"
)
