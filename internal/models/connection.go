package models

// ConnectionStatus is the lifecycle state of the push connection
type ConnectionStatus string

// Connection states. Retrying means a single reconnect timer is pending.
const (
	ConnectionDisconnected ConnectionStatus = "disconnected"
	ConnectionConnecting   ConnectionStatus = "connecting"
	ConnectionConnected    ConnectionStatus = "connected"
	ConnectionRetrying     ConnectionStatus = "retrying"
)

// ClientState is what the coordinator publishes to presentation layers
type ClientState struct {
	View          SessionView      `json:"view"`
	BannerVisible bool             `json:"banner_visible"`
	Connection    ConnectionStatus `json:"connection"`
}
