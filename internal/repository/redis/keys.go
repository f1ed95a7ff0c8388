package redis

import (
	"fmt"
	"strings"
)

const ns = "frontdesk:v1"

// KeyViewGeneration is bumped on every committed change. View keys embed the
// generation they were computed at, so bumping it invalidates all of them at once.
func KeyViewGeneration() string {
	return ns + ":views:gen"
}

func KeyView(gen int64, name string, parts ...string) string {
	if len(parts) == 0 {
		return fmt.Sprintf("%s:views:%d:%s", ns, gen, name)
	}
	return fmt.Sprintf("%s:views:%d:%s:%s", ns, gen, name, strings.Join(parts, ":"))
}

func KeyRateLimit(scope, id string) string {
	return fmt.Sprintf("%s:rl:%s:%s", ns, scope, id)
}

func KeyIdemBooking(ownerID, idemKey string) string {
	return fmt.Sprintf("%s:idem:booking:%s:%s", ns, ownerID, idemKey)
}

func ChannelChanges() string {
	return ns + ":changes"
}
