package handlers

import (
	"net/http"

	apierrors "github.com/pribylovaa/techblog/internal/http/errors"
	"github.com/pribylovaa/techblog/internal/models"
)

// Contact - POST /api/contact.
func (h *Handlers) Contact(w http.ResponseWriter, r *http.Request) {
	var in models.ContactForm
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if err := h.svc.SubmitContact(r.Context(), in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Message sent successfully! We'll get back to you soon."})
}

// Subscribe - POST /api/newsletter.
func (h *Handlers) Subscribe(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
	}
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if err := h.svc.Subscribe(r.Context(), in.Email); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Successfully subscribed to newsletter! Check your email for confirmation."})
}
