package domain

// --- Shared Custom Types ---

// Notice is a transient message for the admin (toast).
type Notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

func InfoNotice(msg string) *Notice    { return &Notice{Level: NoticeInfo, Message: msg} }
func SuccessNotice(msg string) *Notice { return &Notice{Level: NoticeSuccess, Message: msg} }
func ErrorNotice(msg string) *Notice   { return &Notice{Level: NoticeError, Message: msg} }

// Response standardizes API responses.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}
