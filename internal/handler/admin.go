package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/shamsfin/shamsi/internal/cache"
	"github.com/shamsfin/shamsi/internal/errHandler"
	"github.com/shamsfin/shamsi/internal/repository"
	"github.com/shamsfin/shamsi/internal/response"
)

const (
	dashboardCacheKey = "dashboard:overview"

	// dashboard numbers may lag by a minute; the review queues always
	// read live data
	dashboardCacheTTL = 60 * time.Second
)

type DashboardOverview struct {
	UsersByVerificationStatus map[string]int `json:"users_by_verification_status"`
	ContractorsByStatus       map[string]int `json:"contractors_by_status"`
	QuotesByStatus            map[string]int `json:"quotes_by_status"`
	PendingDocuments          int            `json:"pending_documents"`
	GeneratedAt               string         `json:"generated_at"`
}

type AdminHandler struct {
	UserRepo       repository.UserRepository
	ContractorRepo repository.ContractorRepository
	QuoteRepo      repository.QuoteRepository
	DocRepo        repository.KycDocumentRepository
	AuditRepo      repository.AuditRepository
	Cache          *cache.Tiered
	ErrHandler     *errHandler.ErrorRepository
}

func NewAdminHandler(handler *AdminHandler) *AdminHandler {
	return &AdminHandler{
		UserRepo:       handler.UserRepo,
		ContractorRepo: handler.ContractorRepo,
		QuoteRepo:      handler.QuoteRepo,
		DocRepo:        handler.DocRepo,
		AuditRepo:      handler.AuditRepo,
		Cache:          handler.Cache,
		ErrHandler:     handler.ErrHandler,
	}
}

func (h *AdminHandler) HandleDashboardOverview(w http.ResponseWriter, r *http.Request) {
	message := "Data retrieved successfully"

	if cached, found := h.Cache.Get(dashboardCacheKey); found {
		var overview DashboardOverview
		if err := json.Unmarshal([]byte(cached), &overview); err == nil {
			err = response.JSONOkResponse(w, overview, message, nil)
			if err != nil {
				h.ErrHandler.ServerError(w, r, err)
			}
			return
		}
	}

	usersByStatus, err := h.UserRepo.CountByVerificationStatus()
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	contractorsByStatus, err := h.ContractorRepo.CountByStatus()
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	quotesByStatus, err := h.QuoteRepo.CountByStatus()
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	pendingDocs, err := h.DocRepo.CountPending()
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	overview := DashboardOverview{
		UsersByVerificationStatus: usersByStatus,
		ContractorsByStatus:       contractorsByStatus,
		QuotesByStatus:            quotesByStatus,
		PendingDocuments:          pendingDocs,
		GeneratedAt:               time.Now().Format(time.RFC3339),
	}

	if encoded, err := json.Marshal(overview); err == nil {
		if err := h.Cache.Set(dashboardCacheKey, string(encoded), dashboardCacheTTL); err != nil {
			log.Printf("Error caching dashboard overview: %v", err)
		}
	}

	err = response.JSONOkResponse(w, overview, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *AdminHandler) HandleListAuditLogs(w http.ResponseWriter, r *http.Request) {
	queryValues := retrieveUrlQueryValues(r)

	logs, err := h.AuditRepo.List(queryValues.Entity, queryValues.Limit, queryValues.Offset)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	type auditLogResponse struct {
		ID        string `json:"id"`
		ActorID   string `json:"actor_id"`
		Entity    string `json:"entity"`
		EntityID  string `json:"entity_id"`
		Action    string `json:"action"`
		CreatedAt string `json:"created_at"`
	}

	data := make([]auditLogResponse, len(logs))
	for i, entry := range logs {
		data[i] = auditLogResponse{
			ID:        entry.ID,
			ActorID:   entry.ActorID,
			Entity:    entry.Entity,
			EntityID:  entry.EntityId,
			Action:    entry.Action,
			CreatedAt: entry.CreatedAt.Format(time.RFC3339),
		}
	}

	message := "Data retrieved successfully"
	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
