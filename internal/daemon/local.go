package daemon

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strconv"

	"github.com/gorilla/mux"

	"satchel/internal/storage"
)

// handleLocalFetch serves objects behind presigned links minted by the
// local backend. The signature covers the decoded bucket, key, and
// expiry, so everything is decoded before verification.
func (d *Daemon) handleLocalFetch(local *storage.LocalClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		bucket, err := url.PathUnescape(vars["bucket"])
		if err != nil {
			d.writeError(w, http.StatusBadRequest, "invalid bucket encoding")
			return
		}
		key, err := url.PathUnescape(vars["key"])
		if err != nil {
			d.writeError(w, http.StatusBadRequest, "invalid key encoding")
			return
		}

		query := r.URL.Query()
		expires, err := strconv.ParseInt(query.Get("expires"), 10, 64)
		if err != nil {
			d.writeError(w, http.StatusForbidden, "invalid signature")
			return
		}
		if err := local.VerifyPresignedGet(bucket, key, expires, query.Get("signature")); err != nil {
			d.writeError(w, http.StatusForbidden, err.Error())
			return
		}

		data, err := local.GetObject(r.Context(), bucket, key)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				d.writeError(w, http.StatusNotFound, "not found")
				return
			}
			d.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", path.Base(key)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
