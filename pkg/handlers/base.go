package handlers

import (
	"syncbridge/pkg/service"
)

// HandlerService provides HTTP handlers for the API
// Base handler structure holding the shared service facade
type HandlerService struct {
	svc *service.SyncService
}

// NewHandlerService creates a new handler service
func NewHandlerService(svc *service.SyncService) *HandlerService {
	return &HandlerService{svc: svc}
}
