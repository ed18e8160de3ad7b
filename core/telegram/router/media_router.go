package router

import (
	"time"

	tg "github.com/m3rciful/ordersbot/core/telegram"
	"github.com/m3rciful/ordersbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// MediaOptions wires the shared handler for incoming photos and documents.
// A single handler receives both kinds so it can branch on conversation
// state rather than on update type.
type MediaOptions struct {
	Handler tele.HandlerFunc
}

// MediaRoutes builds routes for photo and document updates.
func MediaRoutes(opts MediaOptions) []tg.Route {
	build := func(name string) tele.HandlerFunc {
		return func(c tele.Context) error {
			start := time.Now()
			if opts.Handler != nil {
				return handleWithSummary(c, name, start, "", "", func() error {
					return opts.Handler(c)
				})
			}
			logHandlerSummary(c, name, start, "skip", "ok", nil)
			return nil
		}
	}

	return []tg.Route{
		{
			Endpoint: tele.OnPhoto,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(build("media_photo"))),
		},
		{
			Endpoint: tele.OnDocument,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(build("media_document"))),
		},
	}
}
