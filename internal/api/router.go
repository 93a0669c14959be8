package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"clockout.service/internal/api/handler"
)

// NewRouter sets up the gorilla/mux router and defines all API routes.
func NewRouter(service handler.AttendanceService) *mux.Router {

	attendanceHandler := handler.AttendanceHandler{
		Service: service,
	}

	r := mux.NewRouter()

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/clock-in", attendanceHandler.ClockIn).Methods(http.MethodPost)
	api.HandleFunc("/clock-out", attendanceHandler.ClockOut).Methods(http.MethodPost)
	api.HandleFunc("/today", attendanceHandler.Today).Methods(http.MethodGet)
	api.HandleFunc("/calculate", attendanceHandler.Calculate).Methods(http.MethodPost)
	api.HandleFunc("/records", attendanceHandler.Records).Methods(http.MethodGet)
	api.HandleFunc("/export", attendanceHandler.Export).Methods(http.MethodGet)
	api.HandleFunc("/exports", attendanceHandler.RequestExport).Methods(http.MethodPost)
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Service is operational."))
	}).Methods(http.MethodGet)

	return r
}
