package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/flowmasterhq/flowmaster-be/internal/auth"
	"github.com/flowmasterhq/flowmaster-be/internal/models"
	"github.com/flowmasterhq/flowmaster-be/internal/services"
)

// DailyCardHandler handles HTTP requests for daily cards.
type DailyCardHandler struct {
	service services.DailyCardServiceProvider
}

// NewDailyCardHandler creates a new DailyCardHandler.
func NewDailyCardHandler(service services.DailyCardServiceProvider) *DailyCardHandler {
	return &DailyCardHandler{service: service}
}

// CreateCardPayload defines the structure for card creation requests. The
// date defaults to the current UTC date when omitted.
type CreateCardPayload struct {
	Date  string            `json:"date"`
	Tasks []models.CardTask `json:"tasks"`
}

// Validate checks the payload, returning an error on the first violation.
func (p CreateCardPayload) Validate() error {
	if p.Date != "" {
		if _, err := time.Parse(models.CardDateLayout, p.Date); err != nil {
			return fmt.Errorf("date must be formatted as YYYY-MM-DD")
		}
	}
	return nil
}

// UpdateCardPayload defines the structure for card update requests. A nil
// task list leaves the card's task subset untouched.
type UpdateCardPayload struct {
	Tasks []models.CardTask `json:"tasks"`
}

// AccomplishmentPayload defines the structure for accomplishment requests.
type AccomplishmentPayload struct {
	Title  string  `json:"title"`
	Source string  `json:"source"`
	TaskID *string `json:"task_id"`
}

// Validate checks the payload, returning an error on the first violation.
func (p AccomplishmentPayload) Validate() error {
	if p.Title == "" {
		return fmt.Errorf("title is required")
	}
	if p.Source != models.SourceManual && p.Source != models.SourceTask {
		return fmt.Errorf("source must be %q or %q", models.SourceManual, models.SourceTask)
	}
	return nil
}

// GetAll returns the user's most recent daily cards.
func (h *DailyCardHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	cards, err := h.service.GetRecentCards(user.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to list daily cards")
		http.Error(w, "Failed to retrieve daily cards", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(cards)
}

// GetToday returns the user's card for the current UTC date.
func (h *DailyCardHandler) GetToday(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	card, err := h.service.GetTodayCard(user.ID)
	if err != nil {
		if errors.Is(err, services.ErrCardNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to get today's card")
		http.Error(w, "Failed to retrieve daily card", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(card)
}

// Create handles daily card creation.
func (h *DailyCardHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	var payload CreateCardPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := payload.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	card, err := h.service.CreateCard(user.ID, payload.Date, payload.Tasks)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCardExistsForDate), errors.Is(err, services.ErrTaskCountOutOfRange):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, services.ErrTaskNotFound):
			http.Error(w, "referenced task not found", http.StatusNotFound)
		default:
			log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to create daily card")
			http.Error(w, "Failed to create daily card", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(card)
}

// Update replaces a card's task subset.
func (h *DailyCardHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	cardID := chi.URLParam(r, "id")

	var payload UpdateCardPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	card, err := h.service.UpdateCard(user.ID, cardID, payload.Tasks)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTaskCountOutOfRange):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, services.ErrCardNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			log.Error().Err(err).Str("card_id", cardID).Msg("Failed to update daily card")
			http.Error(w, "Failed to update daily card", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(card)
}

// AddAccomplishment appends an accomplishment entry to a card.
func (h *DailyCardHandler) AddAccomplishment(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	cardID := chi.URLParam(r, "id")

	var payload AccomplishmentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := payload.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	entry, err := h.service.AddAccomplishment(user.ID, cardID, models.Accomplishment{
		Title:  payload.Title,
		Source: payload.Source,
		TaskID: payload.TaskID,
	})
	if err != nil {
		if errors.Is(err, services.ErrCardNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("card_id", cardID).Msg("Failed to add accomplishment")
		http.Error(w, "Failed to add accomplishment", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(entry)
}
