package services

import (
	"fmt"
	"strings"

	"github.com/kreasi-nusantara/compro/internal/shared"
)

// PlanItems compares target with persisted. Rows are ordered by their position
// in target. Ids that do not belong to persisted are rejected.
func PlanItems(persisted []Item, target []ItemInput) (ItemPlan, error) {
	byID := make(map[int64]Item, len(persisted))
	for _, it := range persisted {
		byID[it.ID] = it
	}
	var plan ItemPlan
	kept := make(map[int64]struct{}, len(target))
	for i, in := range target {
		name := strings.TrimSpace(in.Name)
		if in.ID == nil || *in.ID == 0 {
			plan.Insert = append(plan.Insert, Item{Name: name, SortOrder: i})
			continue
		}
		id := int64(*in.ID)
		current, ok := byID[id]
		if !ok {
			return ItemPlan{}, shared.NewValidationError(fmt.Sprintf("items[%d].id", i), "sub layanan tidak ditemukan")
		}
		if _, dup := kept[id]; dup {
			return ItemPlan{}, shared.NewValidationError(fmt.Sprintf("items[%d].id", i), "duplikat")
		}
		kept[id] = struct{}{}
		if current.Name != name || current.SortOrder != i {
			plan.Update = append(plan.Update, Item{ID: id, Name: name, SortOrder: i})
		}
	}
	for _, it := range persisted {
		if _, ok := kept[it.ID]; !ok {
			plan.Delete = append(plan.Delete, it.ID)
		}
	}
	return plan, nil
}
