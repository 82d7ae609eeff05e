package api

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/hackgods/blood-donation-coordination/internal/domain"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func adjustInventoryHandler(svc InventoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mustActor(w, r)
		if !ok {
			return
		}
		var req AdjustInventoryRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		bt := domain.BloodType(req.BloodType)
		stock, err := svc.AdjustStock(r.Context(), actor, bt, req.Delta)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, AdjustInventoryResponse{BloodType: bt, NewStock: stock})
	}
}

func listInventoryHandler(svc InventoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mustActor(w, r)
		if !ok {
			return
		}

		entries, err := svc.List(r.Context(), actor)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toInventoryResponses(entries))
	}
}

func exportInventoryHandler(svc InventoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mustActor(w, r)
		if !ok {
			return
		}

		// Buffer so a failed export still gets a JSON error response.
		var buf bytes.Buffer
		if err := svc.Export(r.Context(), actor, &buf); err != nil {
			handleServiceError(w, r, err)
			return
		}

		filename := fmt.Sprintf("inventory-%s.xlsx", time.Now().UTC().Format("20060102"))
		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
	}
}
