package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// HandleHandler 支持 http.Handler 接口（用于 pprof 等）
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

const (
	diagnosticPrefix = "/bedside/api/v1/diagnostic/"
	roomsPrefix      = "/bedside/api/v1/rooms/"
)

// RegisterDiagnosticRoutes 诊断页路由
//
//	GET  /bedside/api/v1/diagnostic/{residentId}
//	POST /bedside/api/v1/diagnostic/{residentId}/refresh
//	GET  /bedside/api/v1/diagnostic/{residentId}/history
//	GET  /bedside/api/v1/diagnostic/{residentId}/history/export
func (r *Router) RegisterDiagnosticRoutes(d *DiagnosticHandler) {
	r.Handle(diagnosticPrefix, func(w http.ResponseWriter, req *http.Request) {
		segments := pathSegments(req.URL.Path, diagnosticPrefix)
		switch {
		case len(segments) == 1:
			if req.Method != http.MethodGet {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			d.GetDiagnostic(w, req, segments[0])
		case len(segments) == 2 && segments[1] == "refresh":
			if req.Method != http.MethodPost {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			d.RefreshDiagnostic(w, req, segments[0])
		case len(segments) == 2 && segments[1] == "history":
			if req.Method != http.MethodGet {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			d.GetHistory(w, req, segments[0])
		case len(segments) == 3 && segments[1] == "history" && segments[2] == "export":
			if req.Method != http.MethodGet {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			d.ExportHistory(w, req, segments[0])
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

// RegisterRoomRoutes 房间详情页路由
//
//	GET  /bedside/api/v1/rooms/{roomId}
//	POST /bedside/api/v1/rooms/{roomId}/devices/{deviceId}/toggle
func (r *Router) RegisterRoomRoutes(h *RoomHandler) {
	r.Handle(roomsPrefix, func(w http.ResponseWriter, req *http.Request) {
		segments := pathSegments(req.URL.Path, roomsPrefix)
		switch {
		case len(segments) == 1:
			if req.Method != http.MethodGet {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			h.GetRoom(w, req, segments[0])
		case len(segments) == 4 && segments[1] == "devices" && segments[3] == "toggle":
			if req.Method != http.MethodPost {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			h.ToggleDevice(w, req, segments[0], segments[2])
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

// RegisterHealthRoutes 存活探针
func (r *Router) RegisterHealthRoutes(h *HealthHandler) {
	r.Handle("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Healthz(w, req)
	})
}
