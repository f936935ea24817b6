package state

import tele "gopkg.in/telebot.v4"

const sessionKey = "fsm_session"

// WithSession injects a snapshot of the sender's session into the handler context.
func WithSession(mgr Manager) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if sender := c.Sender(); sender != nil {
				c.Set(sessionKey, mgr.Get(sender.ID))
			}
			return next(c)
		}
	}
}

// FromContext returns the session snapshot stored by WithSession.
func FromContext(c tele.Context) (Session, bool) {
	sess, ok := c.Get(sessionKey).(Session)
	return sess, ok
}
