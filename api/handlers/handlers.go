package handlers

import (
	"github.com/andeptrai/ocr-studio/internal/service/studio"
	"github.com/andeptrai/ocr-studio/pkg/logger"
)

type Handlers struct {
	Studio *StudioHandler
}

func NewHandlers(
	studioService studio.StudioService,
	logger logger.Logger,
) *Handlers {
	return &Handlers{
		Studio: NewStudioHandler(studioService, logger),
	}
}
