package pricing

import (
	"fmt"

	"github.com/google/uuid"
)

// totalAddons prices the requested add-ons and auto-includes required ones
// that were omitted, at their minimum quantity. Quantities are validated
// against [MinQty, MaxQty]; a nil MaxQty is unbounded.
func totalAddons(snap Snapshot, selections []AddonSelection, travelers int) ([]AddonLine, Money, error) {
	requested := make(map[uuid.UUID]int, len(selections))
	order := make([]uuid.UUID, 0, len(selections))
	for _, sel := range selections {
		if _, dup := requested[sel.AddonID]; !dup {
			order = append(order, sel.AddonID)
		}
		requested[sel.AddonID] += sel.Quantity
	}

	lines := make([]AddonLine, 0, len(order))
	var total Money
	for _, id := range order {
		addon, ok := findAddon(snap, id)
		if !ok {
			return nil, 0, fmt.Errorf("add-on %s not found: %w", id, ErrInvalidAddonQuantity)
		}
		qty := requested[id]
		if qty < addon.MinQty || qty < 1 {
			return nil, 0, fmt.Errorf("add-on %q quantity %d below minimum %d: %w", addon.Name, qty, addon.MinQty, ErrInvalidAddonQuantity)
		}
		if addon.MaxQty != nil && qty > *addon.MaxQty {
			return nil, 0, fmt.Errorf("add-on %q quantity %d above maximum %d: %w", addon.Name, qty, *addon.MaxQty, ErrInvalidAddonQuantity)
		}
		line := addonLine(addon, qty, travelers, false)
		lines = append(lines, line)
		total += line.LineTotal
	}

	// Required add-ons the request left out are included at MinQty.
	for _, addon := range snap.Addons {
		if !addon.Active || !addon.Required {
			continue
		}
		if _, ok := requested[addon.ID]; ok {
			continue
		}
		qty := addon.MinQty
		if qty < 1 {
			qty = 1
		}
		line := addonLine(addon, qty, travelers, true)
		lines = append(lines, line)
		total += line.LineTotal
	}
	return lines, total, nil
}

func addonLine(addon Addon, qty, travelers int, auto bool) AddonLine {
	line := AddonLine{
		AddonID:   addon.ID,
		Name:      addon.Name,
		Pricing:   addon.Pricing,
		UnitPrice: addon.Price,
		Quantity:  qty,
		AutoAdded: auto,
	}
	switch addon.Pricing {
	case AddonPerPerson:
		line.Travelers = travelers
		line.LineTotal = addon.Price * Money(qty) * Money(travelers)
	default:
		line.LineTotal = addon.Price * Money(qty)
	}
	return line
}

func findAddon(snap Snapshot, id uuid.UUID) (Addon, bool) {
	for _, addon := range snap.Addons {
		if addon.Active && addon.ID == id {
			return addon, true
		}
	}
	return Addon{}, false
}
