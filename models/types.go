// ABOUTME: Data models for appointment classification and Timeline ingestion
// ABOUTME: Defines FormState, Decision, AppointmentRecord, OutboundPayload and Status
package models

import (
	"errors"
	"time"
)

// ActivityPTO is the reserved activity type for personal time off.
const ActivityPTO = "PTO"

// Custom property names used to persist the classification on an item.
const (
	PropActivityType    = "ActivityType"
	PropEngagementType  = "EngagementType"
	PropCustomerEvent   = "CustomerEvent"
	PropOnSite          = "OnSite"
	PropCustInteraction = "CustInteraction"
	PropClevel          = "Clevel"
)

// PropertyNames lists every classification property.
var PropertyNames = []string{
	PropActivityType,
	PropEngagementType,
	PropCustomerEvent,
	PropOnSite,
	PropCustInteraction,
	PropClevel,
}

// FormState is the current content of the classification form.
type FormState struct {
	ActivityType      string `json:"activity_type"`
	EngagementType    string `json:"engagement_type"`
	CustomerEventText string `json:"customer_event"`
	OnSite            bool   `json:"on_site"`
	CustInteraction   bool   `json:"cust_interaction"`
	CLevel            bool   `json:"c_level"`
}

// Decision is what the validator tells the form to display.
type Decision struct {
	EngagementTypeDisabled bool   `json:"engagement_type_disabled"`
	EngagementTypeValue    string `json:"engagement_type_value"`
	SubmitEnabled          bool   `json:"submit_enabled"`
}

// Apply returns state with the engagement type the decision forces.
func (d Decision) Apply(state FormState) FormState {
	state.EngagementType = d.EngagementTypeValue
	return state
}

// AppointmentRecord is built once per sync attempt and discarded afterwards.
type AppointmentRecord struct {
	Subject   string
	Location  string
	Body      string
	Start     time.Time
	End       time.Time
	Organizer string // email address, display name, or empty

	EntryID  string
	GlobalID string

	// Classification as stored on the item. CustomerEvent is empty when the
	// property was never saved.
	ActivityType    string
	EngagementType  string
	CustomerEvent   string
	OnSite          bool
	CustInteraction bool
	CLevel          bool
}

// OutboundPayload is the Timeline ingestion record. Field names are fixed by
// the receiving system; the three flags are deliberately strings.
type OutboundPayload struct {
	EntryID         string `json:"EntryID"`
	GlobalID        string `json:"globalID"`
	Organizer       string `json:"Organizer"`
	AuthorAlias     string `json:"AuthorAlias"`
	AuthorFirstname string `json:"AuthorFirstname"`
	AuthorLastname  string `json:"AuthorLastname"`
	OwnerEmail      string `json:"OwnerEmail"`
	Subject         string `json:"Subject"`
	Start           string `json:"Start"`
	End             string `json:"End"`
	Location        string `json:"Location"`
	CreationTime    string `json:"CreationTime"`
	ActivityType    string `json:"ActivityType"`
	EngagementType  string `json:"EngagementType"`
	OnSite          string `json:"OnSite"`
	CustInteraction string `json:"CustInteraction"`
	Clevel          string `json:"Clevel"`
	Note            string `json:"Note"`
}

// StatusKind classifies a status message.
type StatusKind string

const (
	StatusSuccess StatusKind = "success"
	StatusError   StatusKind = "error"
)

// Status is the message shown to the user after a sync attempt.
type Status struct {
	Kind    StatusKind `json:"kind"`
	Message string     `json:"message"`
}

// OK reports whether the status is a success.
func (s Status) OK() bool {
	return s.Kind == StatusSuccess
}

// Err returns the message as an error for error statuses, nil otherwise.
func (s Status) Err() error {
	if s.OK() {
		return nil
	}
	return errors.New(s.Message)
}

// SuccessStatus builds a success status.
func SuccessStatus(msg string) Status {
	return Status{Kind: StatusSuccess, Message: msg}
}

// ErrorStatus builds an error status.
func ErrorStatus(msg string) Status {
	return Status{Kind: StatusError, Message: msg}
}
