// ABOUTME: Gathers an AppointmentRecord from an item and its property bag
// ABOUTME: Runs value extraction, organizer, body and property stages in order
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/timeline/form"
	"github.com/harperreed/timeline/logging"
	"github.com/harperreed/timeline/mailitem"
	"github.com/harperreed/timeline/models"
)

// itemValues is the output of the value extraction stage.
type itemValues struct {
	subject  string
	location string
	start    time.Time
	end      time.Time
}

func extractValues(ctx context.Context, item mailitem.Accessor) (itemValues, error) {
	var v itemValues
	var err error

	if v.subject, err = item.Subject(ctx); err != nil {
		return v, fmt.Errorf("failed to read subject: %w", err)
	}
	if v.location, err = item.Location(ctx); err != nil {
		return v, fmt.Errorf("failed to read location: %w", err)
	}
	if v.start, err = item.Start(ctx); err != nil {
		return v, fmt.Errorf("failed to read start: %w", err)
	}
	if v.end, err = item.End(ctx); err != nil {
		return v, fmt.Errorf("failed to read end: %w", err)
	}
	return v, nil
}

func resolveOrganizer(ctx context.Context, item mailitem.Accessor) (string, error) {
	org, err := item.Organizer(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read organizer: %w", err)
	}
	return org.String(), nil
}

// fetchBody tolerates failure: the appointment is still sent without a note.
func fetchBody(ctx context.Context, item mailitem.Accessor) string {
	body, err := item.Body(ctx)
	if err != nil {
		logging.Default().Warn("body fetch failed, sending without note", "err", err)
		return ""
	}
	return body
}

// GatherAppointment builds the record for one sync attempt. Identifiers are
// left empty; see ResolveEntryID and ResolveGlobalID.
func GatherAppointment(ctx context.Context, item mailitem.Accessor, store mailitem.PropertyStore) (models.AppointmentRecord, error) {
	values, err := extractValues(ctx, item)
	if err != nil {
		return models.AppointmentRecord{}, err
	}

	organizer, err := resolveOrganizer(ctx, item)
	if err != nil {
		return models.AppointmentRecord{}, err
	}

	body := fetchBody(ctx, item)

	state := form.Load(store)

	return models.AppointmentRecord{
		Subject:         values.subject,
		Location:        values.location,
		Body:            body,
		Start:           values.start,
		End:             values.end,
		Organizer:       organizer,
		ActivityType:    state.ActivityType,
		EngagementType:  state.EngagementType,
		CustomerEvent:   state.CustomerEventText,
		OnSite:          state.OnSite,
		CustInteraction: state.CustInteraction,
		CLevel:          state.CLevel,
	}, nil
}
