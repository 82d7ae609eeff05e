package api

import (
	"math"
	"net/http"
	"strconv"

	"github.com/hackgods/blood-donation-coordination/internal/domain"
	"github.com/hackgods/blood-donation-coordination/internal/profile"
)

func getDonorProfileHandler(svc ProfileService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mustActor(w, r)
		if !ok {
			return
		}

		d, err := svc.DonorProfile(r.Context(), actor)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toDonorProfileResponse(*d))
	}
}

func updateDonorProfileHandler(svc ProfileService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mustActor(w, r)
		if !ok {
			return
		}
		var req UpdateDonorProfileRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		p := profile.DonorPatch{
			FullName:    req.FullName,
			Phone:       req.Phone,
			Location:    req.Location,
			AlertsOptIn: req.AlertsOptIn,
		}
		if req.BloodType != nil {
			bt := domain.BloodType(*req.BloodType)
			p.BloodType = &bt
		}
		if req.PreferredContact != nil {
			c := domain.ContactChannel(*req.PreferredContact)
			p.PreferredContact = &c
		}

		d, err := svc.UpdateDonorProfile(r.Context(), actor, p)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toDonorProfileResponse(*d))
	}
}

func getHospitalProfileHandler(svc ProfileService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mustActor(w, r)
		if !ok {
			return
		}

		h, err := svc.HospitalProfile(r.Context(), actor)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toHospitalResponse(*h, nil))
	}
}

func updateHospitalProfileHandler(svc ProfileService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mustActor(w, r)
		if !ok {
			return
		}
		var req UpdateHospitalProfileRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		h, err := svc.UpdateHospitalProfile(r.Context(), actor, profile.HospitalPatch{
			Name:         req.Name,
			Address:      req.Address,
			Phone:        req.Phone,
			ContactEmail: req.ContactEmail,
			Location:     req.Location,
		})
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toHospitalResponse(*h, nil))
	}
}

func getHospitalHandler(svc ProfileService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mustActor(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		view, err := svc.Hospital(r.Context(), actor, id)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toHospitalResponse(view.Hospital, view.DistanceKm))
	}
}

func searchDonorsHandler(svc ProfileService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mustActor(w, r)
		if !ok {
			return
		}

		q := r.URL.Query()
		sq := profile.SearchQuery{Text: q.Get("q")}
		if raw := q.Get("bloodType"); raw != "" {
			bt := domain.BloodType(raw)
			sq.BloodType = &bt
		}
		if raw := q.Get("available"); raw != "" {
			available, err := strconv.ParseBool(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "validation_error", "available must be true or false")
				return
			}
			sq.AlertsOptIn = &available
		}
		if raw := q.Get("maxDistanceKm"); raw != "" {
			km, err := strconv.ParseFloat(raw, 64)
			if err != nil || math.IsNaN(km) || math.IsInf(km, 0) {
				writeError(w, http.StatusBadRequest, "validation_error", "maxDistanceKm must be a number")
				return
			}
			sq.MaxDistanceKm = &km
		}
		limit, err := queryInt(r, "limit", 0)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		sq.Limit = limit

		matches, err := svc.SearchDonors(r.Context(), actor, sq)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toDonorSearchResponses(matches))
	}
}
