package transport

// Envelope wraps every response of the local API. Success bodies carry data;
// error bodies carry a domain error code so UI clients can branch on the
// same taxonomy the daemon uses internally (NOT_FOUND, CONFLICT, ...).
type Envelope struct {
	Status string      `json:"status"`
	Code   string      `json:"code,omitempty"`
	Data   interface{} `json:"data,omitempty"`
	Error  interface{} `json:"error,omitempty"`
	Meta   interface{} `json:"meta,omitempty"`
}

// NewSuccess wraps data in a success envelope. Meta is optional and reserved
// for list metadata.
func NewSuccess(data interface{}, meta interface{}) Envelope {
	return Envelope{
		Status: "success",
		Data:   data,
		Meta:   meta,
	}
}

// NewError wraps an error code and message. The code is the stringified
// domain.ErrorCode, never an HTTP status.
func NewError(code string, err interface{}, meta interface{}) Envelope {
	return Envelope{
		Status: "error",
		Code:   code,
		Error:  err,
		Meta:   meta,
	}
}
