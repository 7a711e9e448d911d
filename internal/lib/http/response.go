package httpresponse

import (
	"encoding/json"
	"net/http"
)

type H map[string]any

func JSON(w http.ResponseWriter, status int, body any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	return json.NewEncoder(w).Encode(body)
}

func Error(w http.ResponseWriter, status int, message string, extra H) error {
	body := H{"error": message}
	for k, v := range extra {
		body[k] = v
	}

	return JSON(w, status, body)
}
