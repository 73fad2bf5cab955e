package domain

import (
	"errors"
	"fmt"
)

// Messages returned to the browser. The front-end is French.
const (
	MsgNotConfigured   = "TWITCH_CLIENT_ID et TWITCH_CLIENT_SECRET doivent être définis"
	MsgTokenFailed     = "Erreur lors de l'obtention du token d'accès"
	MsgCategoryFailed  = "Erreur lors de la récupération du game ID"
	MsgStreamsFailed   = "Erreur lors de la récupération des streams"
	msgCategoryMissing = "Catégorie %q non trouvée"
)

func CategoryNotFoundMessage(name string) string {
	return fmt.Sprintf(msgCategoryMissing, name)
}

// ErrEmptyToken is returned when the token endpoint answers 2xx without a token.
var ErrEmptyToken = errors.New("token endpoint returned an empty access token")

// StatusError is a non-2xx answer from a Twitch endpoint.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("twitch %s: unexpected status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("twitch %s: unexpected status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}
