package main

import (
	"fmt"
	"net/http"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	mw "github.com/Nixjoyer/Jump-Ship/internal/middleware"
	"github.com/Nixjoyer/Jump-Ship/internal/platform/observability"
)

const invalidEmailMessage = "Please enter a valid email address."

// newsletterHandler acknowledges a signup. Nothing is stored or sent.
func (a *app) newsletterHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	view := newsletterSignup(r.FormValue("email"))
	status := http.StatusOK
	if view.Invalid {
		status = http.StatusBadRequest
	} else {
		observability.FromContext(r.Context()).Info("newsletter signup", zap.Int("emailLength", len(view.Email)))
	}

	if mw.IsHTMX(r.Context()) {
		a.renderTemplate(w, r, status, "frag_newsletter", view)
		return
	}
	a.renderPage(w, r, status, PageData{
		Title:      "Newsletter | Jump Ship",
		Page:       "newsletter",
		Newsletter: view,
	})
}

func newsletterSignup(raw string) *NewsletterView {
	email := strings.TrimSpace(raw)
	addr, err := mail.ParseAddress(email)
	if email == "" || err != nil || addr.Address != email {
		return &NewsletterView{Email: email, Message: invalidEmailMessage, Invalid: true}
	}
	return &NewsletterView{
		Email:   email,
		Message: fmt.Sprintf("Quantum relay established for %s.", email),
	}
}
