package service

import (
	"context"
	"sync"

	"github.com/Skotchmaster/baseball_stats/internal/events"
	"github.com/Skotchmaster/baseball_stats/internal/validation"
	"github.com/Skotchmaster/baseball_stats/pkg/logging"
)

var defaultValidator = sync.OnceValue(validation.New)

// publish never fails the caller: a lost event is logged and dropped.
func publish(ctx context.Context, pub events.Publisher, topic, key string, event any) {
	if pub == nil {
		return
	}
	if err := pub.PublishEvent(context.WithoutCancel(ctx), topic, key, event); err != nil {
		logging.FromContext(ctx).Warn("publish_event_failed", "topic", topic, "key", key, "error", err)
	}
}

func validate(v *validation.Validator, s any) error {
	if v == nil {
		v = defaultValidator()
	}
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	if fe, ok := err.(validation.FieldErrors); ok {
		return &ValidationError{Fields: fe}
	}
	return err
}
