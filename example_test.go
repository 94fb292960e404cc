package plugkit_test

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/zero-day-ai/plugkit"
	"github.com/zero-day-ai/plugkit/plugin"
	"github.com/zero-day-ai/plugkit/settings"
	"github.com/zero-day-ai/plugkit/widget"
)

// Example shows a site turning on popovers from its settings.
func Example() {
	ctx := context.Background()
	fw, err := plugkit.New(plugkit.WithSettings(settings.New(
		"popover_enabled", "true",
		"popover_placement", "left",
		"popover_delay", "250",
	)))
	if err != nil {
		log.Fatal(err)
	}

	if err := widget.Register(ctx, fw.Registry()); err != nil {
		log.Fatal(err)
	}
	if _, err := widget.ExtendPopover(ctx, fw.Registry()); err != nil {
		log.Fatal(err)
	}

	popover := fw.Plugin(widget.PopoverID)
	fmt.Println(widget.Enabled(fw.Registry(), widget.PopoverID))
	fmt.Println(widget.Option(popover, nil, "placement", "right"))
	fmt.Println(widget.Option(popover, nil, "delay", 0))

	_, err = fw.ExtendPlugin(ctx, "carousel", plugin.Extension(widget.PopoverSiteDefaults))
	fmt.Println(errors.Is(err, plugkit.ErrUnknownIdentifier))

	// Output:
	// true
	// left
	// 250
	// true
}
