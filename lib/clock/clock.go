package clock

import "time"

func Now() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05Z")
}

// LinkTTL is how long a freshly generated registration link stays valid.
const LinkTTL = 7 * 24 * time.Hour

// PendingPaymentTTL is how long a pending gateway payment may sit before
// the hourly sweep expires it.
const PendingPaymentTTL = 24 * time.Hour
