package api

// Error is the body the emulation server sends back with any non-2xx status.
type Error struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}
