package apperror

// Envelope is the result shape handed to the presentation layer. Callers
// never see a partial success: either Data is set or Error is.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Kind    Kind   `json:"kind,omitempty"`
}

func OK(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

func Fail(err error) Envelope {
	return Envelope{Success: false, Error: err.Error(), Kind: KindOf(err)}
}
