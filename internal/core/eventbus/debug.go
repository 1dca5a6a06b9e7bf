package eventbus

import (
	"fmt"

	"github.com/rs/zerolog"
)

// RegisterDebugLogger registers bus hooks that log event traffic: fired and
// subscribed events at debug, drops at warn, subscriber panics at error.
func RegisterDebugLogger(bus *EventBus, logger zerolog.Logger) {
	bus.OnPublish(func(event Event, payload any) {
		e := logger.Debug().Str("event", string(event))
		if owner := payloadOwner(payload); owner != "" {
			e = e.Str("owner_id", owner)
		}
		e.Msg("event fired")
	})

	bus.OnSubscribe(func(event Event) {
		logger.Debug().Str("event", string(event)).Msg("subscriber added")
	})

	bus.OnDrop(func(event Event, _ any) {
		logger.Warn().Str("event", string(event)).Msg("event dropped: buffer full")
	})

	bus.OnPanic(func(event Event, _ any, recovered any) {
		logger.Error().
			Str("event", string(event)).
			Str("panic", fmt.Sprint(recovered)).
			Msg("subscriber panicked")
	})
}

func payloadOwner(payload any) string {
	switch p := payload.(type) {
	case ThreadsUpdatedPayload:
		return p.Update.OwnerID
	case ProviderRemovedPayload:
		return p.OwnerID
	case ProviderSetPayload:
		return p.OwnerID
	case RangesUpdatedPayload:
		return p.OwnerID
	default:
		return ""
	}
}
