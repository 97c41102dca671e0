package assignment

import "time"

// SetNow freezes the service clock at now until the returned func is called.
func SetNow(now time.Time) (restore func()) {
	orig := nowFunc
	nowFunc = func() time.Time { return now }
	return func() { nowFunc = orig }
}
