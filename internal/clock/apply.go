package clock

import (
	"context"

	"github.com/ravello-tools/ravello-rtc/internal/ravello"
)

// Apply sets rtc on the targeted VM (or on every VM in the design when
// vm is nil), submits the application, and republishes it when the
// service reports it as published. It returns whether a republish
// happened.
//
// vm must point into app.Design.VMs; ResolveTargets guarantees that.
func Apply(ctx context.Context, api API, app *ravello.Application, vm *ravello.VM, rtc ravello.RTC) (bool, error) {
	if vm != nil {
		vm.RTC = &rtc
	} else {
		for i := range app.Design.VMs {
			app.Design.VMs[i].RTC = &rtc
		}
	}

	// The service intermittently drops the rtc field when the design is
	// submitted once; submitting the identical payload a second time
	// makes it stick. Root cause unknown, keep both calls.
	if _, err := api.UpdateApplication(ctx, app); err != nil {
		return false, err
	}
	updated, err := api.UpdateApplication(ctx, app)
	if err != nil {
		return false, err
	}

	if !updated.Published {
		return false, nil
	}
	if err := api.PublishUpdates(ctx, updated.ID); err != nil {
		return false, err
	}
	return true, nil
}
