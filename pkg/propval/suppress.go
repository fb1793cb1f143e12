package propval

// Suppress disables notification on the given container and returns a
// restore function that reinstates the previous notification state.
// Intended for bracketing bulk updates:
//
//	restore := propval.Suppress(v, false)
//	defer restore()
//
// If notify is true, the restore function triggers a notification after
// reinstating the previous state, so observers see the net result of the
// bracketed changes.
func Suppress(c Container, notify bool) func() {
	v := c.PV()
	state := v.NotificationState()
	v.DisableNotification()

	return func() {
		v.SetNotificationState(state)
		if notify {
			v.Notify()
		}
	}
}

// SuppressAll disables notification on all of the given containers and
// returns a single restore function reinstating every previous state.
func SuppressAll(cs ...Container) func() {
	restores := make([]func(), len(cs))
	for i, c := range cs {
		restores[i] = Suppress(c, false)
	}
	return func() {
		for _, restore := range restores {
			restore()
		}
	}
}
