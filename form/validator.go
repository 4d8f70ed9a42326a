// ABOUTME: Classification form validation and property persistence
// ABOUTME: Decides engagement-type lock and submit gate; loads and saves the item's custom properties
package form

import (
	"context"
	"fmt"
	"strconv"

	"github.com/harperreed/timeline/mailitem"
	"github.com/harperreed/timeline/models"
)

// Validate decides what the form should show for state. It must be called
// after every change, including values loaded from the item.
// Values are not trimmed: whitespace counts as content.
func Validate(state models.FormState) models.Decision {
	d := models.Decision{EngagementTypeValue: state.EngagementType}

	pto := state.ActivityType == models.ActivityPTO
	if pto {
		d.EngagementTypeValue = ""
		d.EngagementTypeDisabled = true
	}

	if state.ActivityType != "" && state.CustomerEventText != "" {
		d.SubmitEnabled = pto || d.EngagementTypeValue != ""
	}

	return d
}

// Load reads the saved classification from the item's property bag.
// Missing properties leave the zero value.
func Load(store mailitem.PropertyStore) models.FormState {
	var state models.FormState
	state.ActivityType, _ = store.Get(models.PropActivityType)
	state.EngagementType, _ = store.Get(models.PropEngagementType)
	state.CustomerEventText, _ = store.Get(models.PropCustomerEvent)
	state.OnSite = flag(store, models.PropOnSite)
	state.CustInteraction = flag(store, models.PropCustInteraction)
	state.CLevel = flag(store, models.PropClevel)
	return state
}

func flag(store mailitem.PropertyStore, key string) bool {
	v, ok := store.Get(key)
	return ok && v == "true"
}

// Save writes state to the property bag and persists it.
func Save(ctx context.Context, store mailitem.PropertyStore, state models.FormState) error {
	store.Set(models.PropActivityType, state.ActivityType)
	store.Set(models.PropEngagementType, state.EngagementType)
	store.Set(models.PropCustomerEvent, state.CustomerEventText)
	store.Set(models.PropOnSite, strconv.FormatBool(state.OnSite))
	store.Set(models.PropCustInteraction, strconv.FormatBool(state.CustInteraction))
	store.Set(models.PropClevel, strconv.FormatBool(state.CLevel))

	if err := store.Save(ctx); err != nil {
		return fmt.Errorf("failed to save custom properties: %w", err)
	}
	return nil
}
