package api

import (
	"math"
	"net/http"
	"strconv"

	"github.com/hackgods/blood-donation-coordination/internal/domain"
	"github.com/hackgods/blood-donation-coordination/internal/need"
)

func createNeedHandler(svc NeedService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mustActor(w, r)
		if !ok {
			return
		}
		var req CreateNeedRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		n, err := svc.Create(r.Context(), actor, need.CreateInput{
			BloodType:   domain.BloodType(req.BloodType),
			UnitsNeeded: req.UnitsNeeded,
			Urgency:     domain.Urgency(req.Urgency),
			Details:     req.Details,
			ExpiresAt:   req.ExpiresAt,
		})
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, toNeedResponse(*n))
	}
}

func listActiveNeedsHandler(svc NeedService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mustActor(w, r)
		if !ok {
			return
		}

		var f need.Filter
		q := r.URL.Query()
		if raw := q.Get("bloodType"); raw != "" {
			bt := domain.BloodType(raw)
			f.BloodType = &bt
		}
		if raw := q.Get("maxDistanceKm"); raw != "" {
			km, err := strconv.ParseFloat(raw, 64)
			if err != nil || math.IsNaN(km) || math.IsInf(km, 0) {
				writeError(w, http.StatusBadRequest, "validation_error", "maxDistanceKm must be a number")
				return
			}
			f.MaxDistanceKm = &km
		}

		needs, err := svc.ListActive(r.Context(), actor, f)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toNeedResponses(needs))
	}
}

func getNeedHandler(svc NeedService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mustActor(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		n, err := svc.Get(r.Context(), actor, id)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toNeedResponse(*n))
	}
}

func listHospitalNeedsHandler(svc NeedService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mustActor(w, r)
		if !ok {
			return
		}

		needs, err := svc.ListForHospital(r.Context(), actor)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toNeedResponses(needs))
	}
}

func updateNeedHandler(svc NeedService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mustActor(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var req UpdateNeedRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		p := need.Patch{
			UnitsNeeded: req.UnitsNeeded,
			Details:     req.Details,
			ExpiresAt:   req.ExpiresAt,
		}
		if req.Urgency != nil {
			u := domain.Urgency(*req.Urgency)
			p.Urgency = &u
		}

		n, err := svc.Update(r.Context(), actor, id, p)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toNeedResponse(*n))
	}
}

func deleteNeedHandler(svc NeedService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mustActor(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		if err := svc.Delete(r.Context(), actor, id); err != nil {
			handleServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, MessageResponse{Message: "blood need deleted"})
	}
}
