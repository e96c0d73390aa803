package server

import (
	"net/http"

	"github.com/edgee-ai/matomo-component/internal/model"

	"github.com/gorilla/mux"
)

// NewRouter
//
// 엔드포인트:
//   - POST /v1/page, /v1/track, /v1/user : 종류가 고정된 수집
//   - POST /v1/event                      : 이벤트 type 으로 분기
//   - GET  /metrics                       : 운영 카운터
//   - GET  /health                        : LB health check
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/page", h.HandleKind(model.EventPage)).Methods(http.MethodPost)
	v1.HandleFunc("/track", h.HandleKind(model.EventTrack)).Methods(http.MethodPost)
	v1.HandleFunc("/user", h.HandleKind(model.EventUser)).Methods(http.MethodPost)
	v1.HandleFunc("/event", h.HandleEvent).Methods(http.MethodPost)

	r.HandleFunc("/metrics", h.HandleMetrics).Methods(http.MethodGet)
	r.HandleFunc("/health", HandleHealth).Methods(http.MethodGet)

	return r
}
