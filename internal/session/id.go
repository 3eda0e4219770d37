package session

import "github.com/teris-io/shortid"

func generateShortId() (string, error) {
	return shortid.Generate()
}
