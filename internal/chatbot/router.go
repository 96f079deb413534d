package chatbot

import (
	"go.uber.org/zap"
)

// route is one entry of the dispatcher: a predicate and its handler.
type route struct {
	name   string
	match  func(*Inbound) bool
	handle func(*Inbound) error
}

// Router dispatches an inbound message to the first route whose predicate
// matches. Route order is the routing policy: commands win over menu
// buttons, menu buttons over dialog-state replies, dialog-state replies
// over free text.
type Router struct {
	routes []route
	logger *zap.Logger
}

// NewRouter creates a router over the given ordered routes.
func NewRouter(routes []route, logger *zap.Logger) *Router {
	return &Router{routes: routes, logger: logger}
}

// Dispatch runs the first matching route. Unroutable messages are dropped
// with a debug log; a panicking handler is recovered so one bad update
// cannot take the webhook down.
func (r *Router) Dispatch(inbound *Inbound) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Handler panicked",
				zap.String("user_id", inbound.UserID.String()),
				zap.Any("panic", rec))
			err = nil
		}
	}()

	for _, rt := range r.routes {
		if !rt.match(inbound) {
			continue
		}
		r.logger.Debug("Routing message",
			zap.String("route", rt.name),
			zap.String("user_id", inbound.UserID.String()))
		return rt.handle(inbound)
	}

	r.logger.Debug("No route matched",
		zap.String("user_id", inbound.UserID.String()),
		zap.Int("text_length", len(inbound.Text)))
	return nil
}
