// AngelaMos | 2026
// views.go

package router

import (
	"net/http"

	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/notify"
)

type Action struct {
	Name   string `json:"name"`
	Method string `json:"method"`
	Href   string `json:"href"`
}

type View struct {
	State   Kind     `json:"state"`
	Message string   `json:"message"`
	Actions []Action `json:"actions,omitempty"`
}

func renderLoading(w http.ResponseWriter, notes []notify.Notification) {
	w.Header().Set("Retry-After", "1")
	core.JSON(w, http.StatusServiceUnavailable, core.Response{
		Success: false,
		Data: View{
			State:   KindLoading,
			Message: "The session is still being resolved.",
		},
		Error: &core.ErrorBody{
			Code:    "SESSION_LOADING",
			Message: "session not ready",
		},
		Notifications: notes,
	})
}

// renderRecovery answers for a signed-in caller whose profile could not be
// loaded. It offers a retry of the same request and a sign-out, never a
// redirect.
func (d *Dispatcher) renderRecovery(
	w http.ResponseWriter,
	r *http.Request,
	notes []notify.Notification,
) {
	core.JSON(w, http.StatusServiceUnavailable, core.Response{
		Success: false,
		Data: View{
			State:   KindRecovery,
			Message: "Your profile could not be loaded. Reload to try again or sign out.",
			Actions: []Action{
				{Name: "reload", Method: r.Method, Href: r.URL.RequestURI()},
				{Name: "logout", Method: http.MethodPost, Href: d.base + "/auth/logout"},
			},
		},
		Error: &core.ErrorBody{
			Code:    "PROFILE_UNAVAILABLE",
			Message: "profile could not be loaded",
		},
		Notifications: notes,
	})
}
