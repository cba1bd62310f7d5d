package httpapi

// envelope is the JSON body of the activity routes.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func success(data any, message string) envelope {
	return envelope{Success: true, Data: data, Message: message}
}

func failure(msg string) envelope {
	return envelope{Error: msg}
}
