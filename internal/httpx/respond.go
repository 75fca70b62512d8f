package httpx

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ariefcatur/go-catalog-orders/internal/apperr"
	"github.com/go-chi/chi/v5"
)

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the error taxonomy onto HTTP status codes. The first
// matching kind anywhere in the chain wins, so an aborted transaction
// caused by a stock conflict is reported as 409.
func writeError(w http.ResponseWriter, err error) {
	code, kind := http.StatusInternalServerError, apperr.KindInternal
	for _, m := range []struct {
		kind apperr.Kind
		code int
	}{
		{apperr.KindValidation, http.StatusBadRequest},
		{apperr.KindNotFound, http.StatusNotFound},
		{apperr.KindConflict, http.StatusConflict},
	} {
		if apperr.Is(err, m.kind) {
			code, kind = m.code, m.kind
			break
		}
	}
	msg := apperr.Message(err)
	if code == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeJSON(w, code, errorBody{Error: msg, Kind: kind.String()})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid json: " + err.Error(), Kind: apperr.KindValidation.String()})
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid " + name, Kind: apperr.KindValidation.String()})
		return 0, false
	}
	return id, true
}
