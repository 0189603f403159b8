package handlers

import (
	"context"
	"net/http"
	"time"
)

// Pinger reports whether the backing store answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store Pinger
}

func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{store: store}
}

func (handler *HealthHandler) HealthzHandler(writer http.ResponseWriter, request *http.Request) {
	writer.WriteHeader(http.StatusOK)
	writer.Write([]byte("ok"))
}

func (handler *HealthHandler) ReadyzHandler(writer http.ResponseWriter, request *http.Request) {
	ctx, cancel := context.WithTimeout(request.Context(), 2*time.Second)
	defer cancel()
	if err := handler.store.Ping(ctx); err != nil {
		writer.WriteHeader(http.StatusServiceUnavailable)
		writer.Write([]byte("not ready"))
		return
	}
	writer.WriteHeader(http.StatusOK)
	writer.Write([]byte("ready"))
}
