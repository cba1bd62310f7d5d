package eventbus_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonwraymond/healthgate/eventbus"
)

func ExampleBus_Emit() {
	bus := eventbus.New(eventbus.WithErrorHandler(func(e eventbus.Event, err error) {
		fmt.Println("failed:", e.Type, err)
	}))

	bus.Subscribe("activity.created", func(_ context.Context, e eventbus.Event) error {
		return errors.New("audit sink offline")
	})

	bus.Emit(context.Background(), "activity.created", nil)
	fmt.Println("listeners:", bus.ListenerCount("activity.created"))
	// Output:
	// failed: activity.created audit sink offline
	// listeners: 1
}
