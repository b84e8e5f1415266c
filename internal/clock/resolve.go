package clock

import (
	"context"
	"strconv"

	"github.com/ravello-tools/ravello-rtc/internal/ravello"
)

// ResolveTargets fetches the application named by appIdent and, when
// vmIdent is non-empty, selects the matching VM inside its design. A
// nil VM means every VM in the design is targeted.
//
// The VM scan walks the design in service order; per VM the ID is
// compared before the name, and the first match wins. IDs are unique
// service-side, names are not guaranteed to be.
func ResolveTargets(ctx context.Context, api API, appIdent, vmIdent string) (*ravello.Application, *ravello.VM, error) {
	app, err := api.GetApplication(ctx, appIdent)
	if err != nil {
		return nil, nil, err
	}
	if app == nil {
		return nil, nil, &NotFoundError{Kind: "application", Identifier: appIdent}
	}
	if vmIdent == "" {
		return app, nil, nil
	}
	for i := range app.Design.VMs {
		vm := &app.Design.VMs[i]
		if strconv.FormatInt(vm.ID, 10) == vmIdent || vm.Name == vmIdent {
			return app, vm, nil
		}
	}
	return nil, nil, &NotFoundError{Kind: "VM", Identifier: vmIdent}
}
