package middleware

import (
	"github.com/nurkan-dev/ride-dispatch/pkg/logger"
	"github.com/nurkan-dev/ride-dispatch/pkg/token"
)

type Middleware struct {
	tokens *token.Manager
	log    logger.Logger
}

func NewMiddleware(tokens *token.Manager, log logger.Logger) *Middleware {
	return &Middleware{
		tokens: tokens,
		log:    log,
	}
}
