package agent

import (
	"context"
	"errors"
	"strings"
)

// failureCause is a user-presentable class of gateway failure.
type failureCause int

const (
	causeUnavailable failureCause = iota
	causeTimeout
	causeCancelled
	causeRateLimited
	causeCredentials
)

var causeText = map[failureCause][2]string{
	causeUnavailable: {"the language model service is unavailable right now", "el servicio del modelo de lenguaje no está disponible en este momento"},
	causeTimeout:     {"the language model took too long to respond", "el modelo de lenguaje tardó demasiado en responder"},
	causeCancelled:   {"the request was cancelled", "la solicitud fue cancelada"},
	causeRateLimited: {"the language model service is receiving too many requests", "el servicio del modelo de lenguaje está recibiendo demasiadas solicitudes"},
	causeCredentials: {"the language model service rejected the configured credentials", "el servicio del modelo de lenguaje rechazó las credenciales configuradas"},
}

func classify(err error) failureCause {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return causeTimeout
	case errors.Is(err, context.Canceled):
		return causeCancelled
	}
	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "429", "rate limit", "quota", "resource exhausted", "resource_exhausted", "too many requests"):
		return causeRateLimited
	case containsAny(msg, "401", "403", "api key", "api_key", "unauthorized", "permission denied", "authentication"):
		return causeCredentials
	case containsAny(msg, "timeout", "timed out", "deadline"):
		return causeTimeout
	}
	return causeUnavailable
}

// Apology turns a gateway failure into a single user-facing message. Raw
// provider errors never appear in it.
func Apology(err error, spanish bool) string {
	cause := causeText[classify(err)]
	if spanish {
		return "Lo siento, no he podido completar tu solicitud: " + cause[1] + ". Por favor, inténtalo de nuevo en unos momentos."
	}
	return "Sorry, I couldn't complete your request: " + cause[0] + ". Please try again in a moment."
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
