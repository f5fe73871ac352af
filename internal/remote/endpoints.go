package remote

import (
	"fmt"
	"net/url"
)

const (
	GamesEndpoint  = "/games"
	ByCodeEndpoint = "/games/by-code/%s"

	AudioFormField = "file"
)

func gamePath(sessionID, suffix string) string {
	return fmt.Sprintf("%s/%s%s", GamesEndpoint, url.PathEscape(sessionID), suffix)
}

func playerPath(sessionID, playerID, suffix string) string {
	return gamePath(sessionID, "/players/"+url.PathEscape(playerID)+suffix)
}
