package api

import (
	"net/http"

	"github.com/lzjever/streaming-lag/internal/core"
)

// HealthHandler returns 200 while the process is up.
func (a *API) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// ReadyHandler returns 200 once the heartbeat loop is running.
func (a *API) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	st := a.source.Status()
	if !st.State.Serving() {
		WriteError(w, core.NewAppError(core.ErrUnavailable, "worker is "+st.State.String()))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (a *API) StatusHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, a.source.Status())
}
