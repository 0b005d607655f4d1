package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rennerdo30/proxyconf/internal/logging"
	"github.com/rennerdo30/proxyconf/internal/netproxy"
	"github.com/rennerdo30/proxyconf/internal/version"
)

// ProxyStatus is the response of GET /api/v1/proxy. The password is
// omitted from the configuration and masked in the environment.
type ProxyStatus struct {
	Configuration          netproxy.Configuration `json:"configuration"`
	PasswordSet            bool                   `json:"password_set"`
	Disabled               bool                   `json:"disabled"`
	AuthenticationRequired bool                   `json:"authentication_required"`
	Environment            map[string]string      `json:"environment"`
}

// ProxyRequest is the body of PUT /api/v1/proxy. An omitted password
// keeps the stored one, so a status read can be edited and sent back.
type ProxyRequest struct {
	Type     netproxy.Type `json:"type"`
	IP       string        `json:"ip"`
	Port     uint16        `json:"port"`
	Username string        `json:"username"`
	Password *string       `json:"password,omitempty"`
}

// DisabledRequest is the body of PUT /api/v1/proxy/disabled.
type DisabledRequest struct {
	Disabled *bool `json:"disabled"`
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (a *API) handleVersion(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, version.GetInfo())
}

func (a *API) handleGetProxy(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, StatusOf(a.manager))
}

func (a *API) handleSetProxy(w http.ResponseWriter, r *http.Request) {
	var req ProxyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	cfg := netproxy.Configuration{
		Type:     req.Type,
		IP:       req.IP,
		Port:     req.Port,
		Username: req.Username,
	}
	if req.Password != nil {
		cfg.Password = *req.Password
	} else {
		cfg.Password = a.manager.Configuration().Password
	}

	a.manager.SetConfiguration(cfg)
	logging.FromContext(r.Context()).Info("proxy configuration updated", "type", cfg.Type, "ip", cfg.IP, "port", cfg.Port)

	a.writeJSON(w, http.StatusOK, StatusOf(a.manager))
}

func (a *API) handleSetDisabled(w http.ResponseWriter, r *http.Request) {
	var req DisabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Disabled == nil {
		a.writeError(w, http.StatusBadRequest, "missing field: disabled")
		return
	}

	a.manager.SetDisabled(*req.Disabled)
	logging.FromContext(r.Context()).Info("proxy disabled flag updated", "disabled", *req.Disabled)

	a.writeJSON(w, http.StatusOK, StatusOf(a.manager))
}

// StatusOf reports the state of m without credentials.
func StatusOf(m ProxyManager) ProxyStatus {
	return statusOf(m, false)
}

// RevealedStatusOf reports the state of m including the password.
func RevealedStatusOf(m ProxyManager) ProxyStatus {
	return statusOf(m, true)
}

func statusOf(m ProxyManager, reveal bool) ProxyStatus {
	cfg := m.Configuration()
	disabled := m.IsDisabled()
	status := ProxyStatus{
		PasswordSet:            cfg.Password != "",
		Disabled:               disabled,
		AuthenticationRequired: m.IsAuthenticationRequired(),
	}

	if !reveal {
		cfg = cfg.Redacted()
	}
	env := netproxy.RenderEnv(cfg, disabled)
	status.Environment = make(map[string]string, 3)
	for _, v := range env.Vars() {
		status.Environment[v.Name] = v.Value
	}

	if !reveal {
		cfg.Password = ""
	}
	status.Configuration = cfg
	return status
}
