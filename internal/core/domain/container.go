package domain

// Container represents a container as reported live by the runtime.
// It is never cached: every read goes back to the runtime CLI.
type Container struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Image    string `json:"image"`
	State    string `json:"state"` // running, exited, etc.
	Running  bool   `json:"running"`
	HostPort int    `json:"host_port,omitempty"`
}
