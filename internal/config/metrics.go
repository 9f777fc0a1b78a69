package config

import (
	"context"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var loadEvents = sync.OnceValue(func() metric.Int64Counter {
	counter, err := otel.Meter("socialwall").Int64Counter("config.load.events")
	if err != nil {
		return nil
	}
	return counter
})

// recordLoad counts one configuration load attempt, tagged with the resolved
// environment, the outcome and a coarse error class.
func recordLoad(ctx context.Context, environment, outcome string, err error) {
	counter := loadEvents()
	if counter == nil {
		return
	}
	counter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("environment", environmentLabel(environment)),
		attribute.String("outcome", outcome),
		attribute.String("error_class", loadErrorClass(err)),
	))
}

func environmentLabel(environment string) string {
	label := strings.TrimSpace(strings.ToLower(environment))
	if label == "" {
		return "unknown"
	}
	return label
}

func loadErrorClass(err error) string {
	if err == nil {
		return "none"
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "validate config:"):
		return "validation"
	case strings.Contains(msg, "parse"):
		return "parse"
	default:
		return "load"
	}
}
