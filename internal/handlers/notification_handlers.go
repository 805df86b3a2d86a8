package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"stocklens/internal/db"
	"stocklens/internal/notify"
)

// NotifySender is set from main.go to enable test-fire. It uses the
// same Sender interface as the dispatcher.
var NotifySender notify.Sender

// ─── Provider definitions ───────────────────────────────────────────────

// GetNotificationProviders returns the provider field schemas for the
// frontend wizard.
// GET /api/notifications/providers
func GetNotificationProviders(w http.ResponseWriter, r *http.Request) {
	JSONResponse(w, notify.GetProviderDefs())
}

// ─── Service CRUD ────────────────────────────────────────────────────────

// ListNotificationServices returns all configured services.
// GET /api/notifications/services
func ListNotificationServices(w http.ResponseWriter, r *http.Request) {
	services, err := notify.ListServices(db.DB)
	if err != nil {
		log.Printf("❌ List notification services: %v", err)
		JSONError(w, "Failed to list services", http.StatusInternalServerError)
		return
	}
	if services == nil {
		services = []notify.NotificationService{}
	}
	for i := range services {
		services[i].ConfigJSON = maskConfigSecrets(services[i].ServiceType, services[i].ConfigJSON)
	}
	JSONResponse(w, services)
}

// GetNotificationService returns a single service with its rules and
// quiet hours. Secret fields in the config are masked.
// GET /api/notifications/services/{id}
func GetNotificationService(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		JSONError(w, "Invalid service ID", http.StatusBadRequest)
		return
	}

	svc, err := notify.GetService(db.DB, id)
	if err != nil {
		log.Printf("❌ Get notification service: %v", err)
		JSONError(w, "Failed to get service", http.StatusInternalServerError)
		return
	}
	if svc == nil {
		JSONError(w, "Service not found", http.StatusNotFound)
		return
	}

	rules, _ := notify.GetEventRules(db.DB, id)
	qh, _ := notify.GetQuietHours(db.DB, id)
	if rules == nil {
		rules = []notify.EventRule{}
	}

	svc.ConfigJSON = maskConfigSecrets(svc.ServiceType, svc.ConfigJSON)

	JSONResponse(w, map[string]interface{}{
		"service":     svc,
		"event_rules": rules,
		"quiet_hours": qh,
	})
}

type notificationServiceRequest struct {
	Name             string            `json:"name"`
	ServiceType      string            `json:"service_type"`
	ConfigFields     map[string]string `json:"config_fields"`
	Enabled          bool              `json:"enabled"`
	NotifyOnCritical bool              `json:"notify_on_critical"`
	NotifyOnWarning  bool              `json:"notify_on_warning"`
	NotifyOnInfo     bool              `json:"notify_on_info"`
}

// CreateNotificationService adds a new service. The Shoutrrr URL is
// built server-side from the structured fields.
// POST /api/notifications/services
func CreateNotificationService(w http.ResponseWriter, r *http.Request) {
	var req notificationServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.ServiceType == "" {
		JSONError(w, "name and service_type are required", http.StatusBadRequest)
		return
	}
	if req.ConfigFields == nil {
		JSONError(w, "config_fields is required", http.StatusBadRequest)
		return
	}

	configJSON, err := buildConfigJSON(req.ServiceType, req.ConfigFields)
	if err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	svc := &notify.NotificationService{
		Name:             req.Name,
		ServiceType:      req.ServiceType,
		ConfigJSON:       configJSON,
		Enabled:          req.Enabled,
		NotifyOnCritical: req.NotifyOnCritical,
		NotifyOnWarning:  req.NotifyOnWarning,
		NotifyOnInfo:     req.NotifyOnInfo,
	}
	id, err := notify.CreateService(db.DB, svc)
	if err != nil {
		log.Printf("❌ Create notification service: %v", err)
		JSONError(w, "Failed to create service", http.StatusInternalServerError)
		return
	}

	log.Printf("🔔 Notification service added: %s (%s)", req.Name, req.ServiceType)
	w.WriteHeader(http.StatusCreated)
	JSONResponse(w, map[string]interface{}{"id": id})
}

// UpdateNotificationService updates a service. Omitting config_fields
// keeps the stored configuration.
// PUT /api/notifications/services/{id}
func UpdateNotificationService(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		JSONError(w, "Invalid service ID", http.StatusBadRequest)
		return
	}

	svc, err := notify.GetService(db.DB, id)
	if err != nil {
		log.Printf("❌ Get notification service: %v", err)
		JSONError(w, "Failed to update service", http.StatusInternalServerError)
		return
	}
	if svc == nil {
		JSONError(w, "Service not found", http.StatusNotFound)
		return
	}

	var req notificationServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if req.Name != "" {
		svc.Name = req.Name
	}
	if req.ConfigFields != nil {
		configJSON, err := buildConfigJSON(svc.ServiceType, req.ConfigFields)
		if err != nil {
			JSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		svc.ConfigJSON = configJSON
	}
	svc.Enabled = req.Enabled
	svc.NotifyOnCritical = req.NotifyOnCritical
	svc.NotifyOnWarning = req.NotifyOnWarning
	svc.NotifyOnInfo = req.NotifyOnInfo

	if err := notify.UpdateService(db.DB, svc); err != nil {
		log.Printf("❌ Update notification service: %v", err)
		JSONError(w, "Failed to update service", http.StatusInternalServerError)
		return
	}
	JSONResponse(w, map[string]string{"status": "updated"})
}

// DeleteNotificationService removes a service and its rules.
// DELETE /api/notifications/services/{id}
func DeleteNotificationService(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		JSONError(w, "Invalid service ID", http.StatusBadRequest)
		return
	}

	if err := notify.DeleteService(db.DB, id); err != nil {
		log.Printf("❌ Delete notification service: %v", err)
		JSONError(w, "Failed to delete service", http.StatusInternalServerError)
		return
	}
	JSONResponse(w, map[string]string{"status": "deleted"})
}

// ─── Rules and quiet hours ───────────────────────────────────────────────

// UpdateEventRules replaces the per-event-type rules for a service.
// PUT /api/notifications/services/{id}/rules
func UpdateEventRules(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		JSONError(w, "Invalid service ID", http.StatusBadRequest)
		return
	}

	var rules []notify.EventRule
	if err := json.NewDecoder(r.Body).Decode(&rules); err != nil {
		JSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	for i := range rules {
		rules[i].ServiceID = id
		if err := notify.UpsertEventRule(db.DB, &rules[i]); err != nil {
			log.Printf("❌ Upsert event rule: %v", err)
			JSONError(w, "Failed to save rules", http.StatusInternalServerError)
			return
		}
	}
	JSONResponse(w, map[string]string{"status": "updated"})
}

// UpdateQuietHours sets the daily suppression window for a service.
// PUT /api/notifications/services/{id}/quiet-hours
func UpdateQuietHours(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		JSONError(w, "Invalid service ID", http.StatusBadRequest)
		return
	}

	var qh notify.QuietHours
	if err := json.NewDecoder(r.Body).Decode(&qh); err != nil {
		JSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	qh.ServiceID = id

	if err := notify.UpsertQuietHours(db.DB, &qh); err != nil {
		log.Printf("❌ Upsert quiet hours: %v", err)
		JSONError(w, "Failed to save quiet hours", http.StatusInternalServerError)
		return
	}
	JSONResponse(w, map[string]string{"status": "updated"})
}

// ─── History and test ────────────────────────────────────────────────────

// NotificationHistory returns the most recent dispatch attempts.
// GET /api/notifications/history?limit=
func NotificationHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	history, err := notify.RecentHistory(db.DB, limit)
	if err != nil {
		log.Printf("❌ Notification history: %v", err)
		JSONError(w, "Failed to load history", http.StatusInternalServerError)
		return
	}
	if history == nil {
		history = []notify.NotificationRecord{}
	}
	JSONResponse(w, history)
}

// TestFireNotification sends a test message through a configured
// service.
// POST /api/notifications/test
func TestFireNotification(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ServiceID int64 `json:"service_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	svc, err := notify.GetService(db.DB, req.ServiceID)
	if err != nil || svc == nil {
		JSONError(w, "Service not found", http.StatusNotFound)
		return
	}

	url, err := shoutrrrURLFromConfig(svc.ConfigJSON)
	if err != nil {
		JSONError(w, "Service has no usable configuration", http.StatusBadRequest)
		return
	}

	sender := NotifySender
	if sender == nil {
		sender = notify.ShoutrrrSender{}
	}
	if err := sender.Send(url, "Test notification from StockLens"); err != nil {
		JSONError(w, "Send failed: "+err.Error(), http.StatusBadGateway)
		return
	}
	JSONResponse(w, map[string]string{"status": "sent"})
}

// ─── Config helpers ──────────────────────────────────────────────────────

// buildConfigJSON validates the structured fields and stores them next
// to the derived Shoutrrr URL
func buildConfigJSON(serviceType string, fields map[string]string) (string, error) {
	if err := notify.ValidateFields(serviceType, fields); err != nil {
		return "", err
	}
	url, err := notify.BuildShoutrrrURL(serviceType, fields)
	if err != nil {
		return "", err
	}

	config := make(map[string]string, len(fields)+1)
	for k, v := range fields {
		config[k] = v
	}
	config["shoutrrr_url"] = url

	raw, err := json.Marshal(config)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// maskConfigSecrets hides password-type fields and the derived URL
// before a config leaves the server
func maskConfigSecrets(serviceType, configJSON string) string {
	var config map[string]string
	if err := json.Unmarshal([]byte(configJSON), &config); err != nil {
		return "{}"
	}
	if _, ok := config["shoutrrr_url"]; ok {
		config["shoutrrr_url"] = notify.SecretMask
	}
	masked := notify.MaskSecrets(serviceType, config)
	raw, err := json.Marshal(masked)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

func shoutrrrURLFromConfig(configJSON string) (string, error) {
	var config map[string]string
	if err := json.Unmarshal([]byte(configJSON), &config); err != nil {
		return "", err
	}
	url := config["shoutrrr_url"]
	if url == "" {
		return "", errors.New("config has no shoutrrr_url")
	}
	return url, nil
}

// RegisterNotificationRoutes wires the notification endpoints
func RegisterNotificationRoutes(mux *http.ServeMux, adminOnly func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("GET /api/notifications/providers", adminOnly(GetNotificationProviders))

	mux.HandleFunc("GET /api/notifications/services", adminOnly(ListNotificationServices))
	mux.HandleFunc("GET /api/notifications/services/{id}", adminOnly(GetNotificationService))
	mux.HandleFunc("POST /api/notifications/services", adminOnly(CreateNotificationService))
	mux.HandleFunc("PUT /api/notifications/services/{id}", adminOnly(UpdateNotificationService))
	mux.HandleFunc("DELETE /api/notifications/services/{id}", adminOnly(DeleteNotificationService))

	mux.HandleFunc("PUT /api/notifications/services/{id}/rules", adminOnly(UpdateEventRules))
	mux.HandleFunc("PUT /api/notifications/services/{id}/quiet-hours", adminOnly(UpdateQuietHours))

	mux.HandleFunc("GET /api/notifications/history", adminOnly(NotificationHistory))
	mux.HandleFunc("POST /api/notifications/test", adminOnly(TestFireNotification))
}
