package engine

import "time"

// Session is a daily trading window in exchange-local wall time.
type Session struct {
	OpenHour    int
	OpenMinute  int
	CloseHour   int
	CloseMinute int
}

// RegularSession is the 08:30-15:00 cash session the strategy's hour rules
// assume.
func RegularSession() Session {
	return Session{OpenHour: 8, OpenMinute: 30, CloseHour: 15, CloseMinute: 0}
}

// Contains reports whether t falls inside the window, close minute
// inclusive.
func (s Session) Contains(t time.Time) bool {
	m := t.Hour()*60 + t.Minute()
	return m >= s.OpenHour*60+s.OpenMinute && m <= s.CloseHour*60+s.CloseMinute
}

// FilterSession keeps only the bars inside the session window, preserving
// order.
func FilterSession(bars []Bar, s Session) []Bar {
	out := make([]Bar, 0, len(bars))
	for _, b := range bars {
		if s.Contains(b.Timestamp) {
			out = append(out, b)
		}
	}
	return out
}
