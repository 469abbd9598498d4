package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/activity"
	"github.com/cmlabs-hris/payroll-engine-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/payroll-engine-go/internal/handler/http/response"
)

const streamKeepalive = 30 * time.Second

type ActivityHandler interface {
	ListRecent(w http.ResponseWriter, r *http.Request)
	Stream(w http.ResponseWriter, r *http.Request)
}

type activityHandlerImpl struct {
	activityService activity.ActivityService
}

func NewActivityHandler(activityService activity.ActivityService) ActivityHandler {
	return &activityHandlerImpl{activityService: activityService}
}

// ListRecent handles GET /payroll/activities
func (h *activityHandlerImpl) ListRecent(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil {
			response.BadRequest(w, "invalid limit parameter", nil)
			return
		}
		limit = l
	}

	result, err := h.activityService.ListRecent(r.Context(), middleware.CompanyIDFromContext(r.Context()), limit)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Stream handles GET /payroll/activities/stream. Browsers cannot set headers
// on EventSource, so the router also accepts the token as ?jwt=.
func (h *activityHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	companyID := middleware.CompanyIDFromContext(r.Context())

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	activities, cleanup := h.activityService.Subscribe(r.Context(), companyID)
	defer cleanup()

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"company_id\":\"%s\"}\n\n", companyID)
	flusher.Flush()

	keepalive := time.NewTicker(streamKeepalive)
	defer keepalive.Stop()

	for {
		select {
		case a, ok := <-activities:
			if !ok {
				return
			}
			data, err := json.Marshal(a)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: activity\ndata: %s\n\n", data)
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
