package extraction

import (
	"fmt"

	"github.com/turtacn/MedRx-Intelligence/internal/domain/prescription"
)

// AlertCause tags a validation alert with the condition that produced it.
type AlertCause string

const (
	CauseNoDrugsFound     AlertCause = "no_drugs_found"
	CauseMissingDosage    AlertCause = "missing_dosage"
	CauseMissingFrequency AlertCause = "missing_frequency"
	CauseInteraction      AlertCause = "interaction"
)

// Alert is an immutable human-readable validation message tagged by cause.
// Alerts carry no severity and are not deduplicated.
type Alert struct {
	Cause   AlertCause `json:"cause"`
	Message string     `json:"message"`
}

func (a Alert) String() string { return a.Message }

// Messages flattens alerts to their message strings, preserving order.
func Messages(alerts []Alert) []string {
	out := make([]string, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, a.Message)
	}
	return out
}

// BuildAlerts inspects the final drug list.  An empty list yields exactly one
// no-drugs alert and short-circuits per-drug checks; otherwise each drug is
// checked in list order for missing dosage, then missing frequency.  Missing
// duration never alerts.
func BuildAlerts(drugs []prescription.DrugMention) []Alert {
	if len(drugs) == 0 {
		return []Alert{{
			Cause:   CauseNoDrugsFound,
			Message: "No medications detected in prescription",
		}}
	}

	var alerts []Alert
	for _, d := range drugs {
		if d.Dosage == "" {
			alerts = append(alerts, Alert{
				Cause:   CauseMissingDosage,
				Message: fmt.Sprintf("Dosage unclear for %s", d.DisplayName()),
			})
		}
		if d.Frequency == "" {
			alerts = append(alerts, Alert{
				Cause:   CauseMissingFrequency,
				Message: fmt.Sprintf("Frequency not specified for %s", d.DisplayName()),
			})
		}
	}
	return alerts
}
