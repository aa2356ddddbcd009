package tunnel

import (
	"encoding/json"
	"slices"
)

const (
	destinationMode = "destination"
	sshServiceName  = "SSH"
)

// Notification is the JSON body delivered on the tunnels/notify topic.
type Notification struct {
	ClientAccessToken string   `json:"clientAccessToken"`
	ClientMode        string   `json:"clientMode"`
	Region            string   `json:"region"`
	Services          []string `json:"services"`
}

// parseNotification decodes and validates a tunnel notification. Only
// destination-mode tunnels carrying the SSH service are accepted; anything
// else fails before a connection attempt is made.
func parseNotification(payload []byte) (*Notification, error) {
	var n Notification
	if err := json.Unmarshal(payload, &n); err != nil {
		return nil, ErrNotifyDecode(err)
	}
	if n.ClientMode != destinationMode {
		return nil, ErrClientMode
	}
	if !slices.Contains(n.Services, sshServiceName) {
		return nil, ErrNoSSHService
	}
	return &n, nil
}
