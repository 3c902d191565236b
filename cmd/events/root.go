// Package events wires the eventengine demo commands into the CLI.
package events

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/eneq/misc/lib/config"
	"github.com/eneq/misc/lib/eventengine"
	"github.com/eneq/misc/lib/logging"
)

// EventsCmd represents the events command group.
var EventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Exercise the event engine end to end",
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Register a type, dispatch a session and print its stats",
	RunE:  runDemo,
}

func init() {
	config.BindEngineFlags(demoCmd)
	EventsCmd.AddCommand(demoCmd)
}

func runDemo(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadEngineConfig(cmd)
	if err != nil {
		return err
	}
	fmt.Println(cfg)

	logger := logging.New("events-demo")
	logger.SetLevel(logging.ParseLevel(cfg.LogLevel))

	e := eventengine.New(cfg.Workers, cfg.MaintenancePeriod, eventengine.WithLogger(logger))
	if e == nil {
		return fmt.Errorf("invalid engine parameters")
	}
	defer e.Close()

	eid := e.GenerateEventTypeID("demo.order.created")
	e.RegisterType(eid, func(event *eventengine.Event, buf []byte) int {
		return copy(buf, fmt.Sprintf("order=%v", event.Data()))
	})

	e.AddListener(eid, func(_ *eventengine.Session, event *eventengine.Event, _ any) bool {
		fmt.Printf("listener saw %s\n", event.Strep())
		return true
	}, nil, nil)

	done := make(chan struct{})
	e.StartSession(eid, "A-100", func(event *eventengine.Event, dispatched bool, _ any) {
		fmt.Printf("event destroyed dispatched=%v\n", dispatched)
	}, func(_ *eventengine.Session, msg *eventengine.SessionMessage, _ any) {
		if msg.Reason == eventengine.SessionDestroy {
			close(done)
		}
	}, nil)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		return fmt.Errorf("demo session never completed")
	}

	stats := e.Stats()
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%s = %d\n", name, stats[name])
	}

	return nil
}
