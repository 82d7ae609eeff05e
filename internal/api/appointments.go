package api

import (
	"net/http"

	"github.com/hackgods/blood-donation-coordination/internal/appointment"
)

func bookAppointmentHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mustActor(w, r)
		if !ok {
			return
		}
		var req BookAppointmentRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		appt, err := svc.Book(r.Context(), actor, appointment.BookInput{
			HospitalID:  req.HospitalID,
			ScheduledAt: req.ScheduledAt,
			NeedID:      req.NeedID,
			Notes:       req.Notes,
		})
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(*appt))
	}
}

func listAppointmentsHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mustActor(w, r)
		if !ok {
			return
		}
		limit, err := queryInt(r, "limit", 0)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		offset, err := queryInt(r, "offset", 0)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		list, err := svc.ListForActor(r.Context(), actor, limit, offset)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		out := make([]AppointmentResponse, 0, len(list))
		for _, a := range list {
			out = append(out, toAppointmentResponse(a))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func updateAppointmentStatusHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mustActor(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var req UpdateAppointmentStatusRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		appt, err := svc.TransitionStatus(r.Context(), actor, id, appointment.AppointmentStatus(req.Status))
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(*appt))
	}
}

func deleteAppointmentHandler(svc AppointmentService) http.HandlerFunc {
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

		writeJSON(w, http.StatusOK, MessageResponse{Message: "appointment deleted"})
	}
}
