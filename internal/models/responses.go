package models

const (
	SuccessCode = "2501"
	ErrorCode   = "2504"
)

// Envelope wraps every response body.
type Envelope struct {
	Code string `json:"code"`
	Msg  any    `json:"msg"`
}

type DataMsg struct {
	Data any `json:"data"`
}

type ErrorMsg struct {
	Error string `json:"error"`
}

type ValidationMsg struct {
	Errors []ValidationError `json:"errors"`
}

// ValidationError describes one failed request rule.
type ValidationError struct {
	Location string `json:"location"`
	Param    string `json:"param"`
	Msg      string `json:"msg"`
	Value    any    `json:"value,omitempty"`
}

type InternalStatsResponse struct {
	Users       int64 `json:"users"`
	Additionals int64 `json:"aditionals"`
}
