package notification

import (
	"bytes"
	"fmt"
	"html/template"
	"math"

	"github.com/hackgods/blood-donation-coordination/internal/domain"
)

var alertHTML = template.Must(template.New("alert").Parse(`<p>Dear {{.DonorName}},</p>
<p>There is an <strong>{{.Urgency}}</strong> need for <strong>{{.BloodType}}</strong> blood at <strong>{{.HospitalName}}</strong>.</p>
<p><strong>{{.UnitsNeeded}} units</strong> are required. The hospital is approximately {{.DistanceKm}} km away.</p>
<p>Please consider visiting the hospital or booking an appointment.</p>
<p>Thank you for being a donor.</p>
`))

type alertData struct {
	DonorName    string
	Urgency      domain.Urgency
	BloodType    domain.BloodType
	HospitalName string
	UnitsNeeded  int
	DistanceKm   int
}

// Render builds the alert sent to one donor.
func Render(n NeedDetails, donorName string, distanceKm float64) (Message, error) {
	data := alertData{
		DonorName:    donorName,
		Urgency:      n.Urgency,
		BloodType:    n.BloodType,
		HospitalName: n.HospitalName,
		UnitsNeeded:  n.UnitsNeeded,
		DistanceKm:   int(math.Round(distanceKm)),
	}

	var html bytes.Buffer
	if err := alertHTML.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("render alert: %w", err)
	}

	return Message{
		Subject: fmt.Sprintf("Blood donation needed: %s at %s", n.BloodType, n.HospitalName),
		Text: fmt.Sprintf(
			"%s need for %s blood at %s. %d units required. The hospital is about %d km away. Please consider donating.",
			urgencyLabel(n.Urgency), n.BloodType, n.HospitalName, n.UnitsNeeded, data.DistanceKm,
		),
		HTML: html.String(),
	}, nil
}

func urgencyLabel(u domain.Urgency) string {
	switch u {
	case domain.UrgencyCritical:
		return "Critical"
	case domain.UrgencyUrgent:
		return "Urgent"
	default:
		return "New"
	}
}
