package api

import (
	"net/http"

	"github.com/hackgods/blood-donation-coordination/internal/domain"
	"github.com/hackgods/blood-donation-coordination/internal/donation"
)

func recordDonationHandler(svc DonationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mustActor(w, r)
		if !ok {
			return
		}
		var req RecordDonationRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		d, err := svc.RecordDonation(r.Context(), actor, donation.RecordInput{
			DonorID:        req.DonorID,
			Status:         donation.Status(req.Status),
			BloodType:      domain.BloodType(req.BloodType),
			UnitsDonated:   req.UnitsDonated,
			DeferralReason: req.DeferralReason,
			AppointmentID:  req.AppointmentID,
			NeedID:         req.NeedID,
			DonationDate:   req.DonationDate,
		})
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, toDonationResponse(*d))
	}
}

func listDonationsHandler(svc DonationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mustActor(w, r)
		if !ok {
			return
		}

		list, err := svc.ListForActor(r.Context(), actor)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		out := make([]DonationResponse, 0, len(list))
		for _, d := range list {
			out = append(out, toDonationResponse(d))
		}
		writeJSON(w, http.StatusOK, out)
	}
}
