package monitor

import "time"

type Status struct {
	Remote     bool      `json:"remote"`
	Cache      bool      `json:"cache"`
	QueueSize  int       `json:"queue_size"`
	QueueBytes int       `json:"queue_bytes"`
	LastCheck  time.Time `json:"last_check"`
}
