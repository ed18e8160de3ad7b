package middleware

import tele "gopkg.in/telebot.v4"

// AdminOptions defines how operator-only checks should behave. ChatID
// identifies the operator chat; commands are accepted only when they
// arrive from that chat, not merely from a particular user.
type AdminOptions struct {
	ChatID   int64
	OnReject tele.HandlerFunc
}

// AdminOnlyMiddleware ensures downstream handlers only run for updates
// originating in the operator chat.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if opts.ChatID != 0 {
				chat := c.Chat()
				if chat == nil || chat.ID != opts.ChatID {
					if opts.OnReject != nil {
						return opts.OnReject(c)
					}
					return nil
				}
			}
			return next(c)
		}
	}
}
