// AngelaMos | 2026
// pages.go

package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/storefront/internal/core"
)

// Page is a static informational page. These are served to everyone and
// never touch the session.
type Page struct {
	Slug     string   `json:"slug"`
	Title    string   `json:"title"`
	Sections []string `json:"sections"`
}

var pages = map[string]Page{
	"about": {
		Slug:  "about",
		Title: "About us",
		Sections: []string{
			"We curate home and lifestyle products from independent makers.",
			"Every product is checked by our team before it is listed.",
		},
	},
	"contact": {
		Slug:  "contact",
		Title: "Contact",
		Sections: []string{
			"Write to support@storefront.example and we answer within one business day.",
		},
	},
	"shipping": {
		Slug:  "shipping",
		Title: "Shipping",
		Sections: []string{
			"Orders ship within two business days of payment.",
			"Tracking details are sent once the order is marked as shipped.",
		},
	},
	"returns": {
		Slug:  "returns",
		Title: "Returns",
		Sections: []string{
			"Unused items can be returned within 30 days of delivery.",
		},
	},
	"faq": {
		Slug:  "faq",
		Title: "Frequently asked questions",
		Sections: []string{
			"Orders can be followed from the orders view of your account.",
			"A pending order can still be cancelled by contacting support.",
		},
	},
	"warranty": {
		Slug:  "warranty",
		Title: "Warranty",
		Sections: []string{
			"Products carry a 12 month warranty against manufacturing defects.",
		},
	},
}

func registerPages(r chi.Router) {
	r.Get("/pages/{slug}", func(w http.ResponseWriter, r *http.Request) {
		page, ok := pages[chi.URLParam(r, "slug")]
		if !ok {
			core.NotFound(w, "page")
			return
		}
		core.OK(w, page)
	})
}
