package enrich

import (
	"placelink/internal/config"
	"placelink/internal/logger"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handler struct {
	svc       *Service
	store     EntryStore
	providers *config.Registry
	cfg       config.Config
	validate  *validator.Validate
	log       *logger.Logger
}

func NewHandler(svc *Service, store EntryStore, providers *config.Registry, cfg config.Config) *Handler {
	return &Handler{
		svc:       svc,
		store:     store,
		providers: providers,
		cfg:       cfg,
		validate:  validator.New(),
		log:       logger.New("EnrichHandler"),
	}
}

type createRequest struct {
	RequestID   string `json:"request_id"`
	PlaceID     string `json:"place_id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	CityHint    string `json:"city_hint"`
	AddressHint string `json:"address_hint"`
	Provider    string `json:"provider"`
}

type createResponse struct {
	Success   bool        `json:"success"`
	Queued    bool        `json:"queued"`
	RequestID string      `json:"request_id,omitempty"`
	Entry     *CacheEntry `json:"entry,omitempty"`
	Reason    string      `json:"reason,omitempty"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// HandleCreate accepts an enrichment request. Cache hits return the entry
// directly; otherwise the handler acquires the entity lock and enqueues a
// job. The response never waits on resolution.
func (h *Handler) HandleCreate(c *fiber.Ctx) error {
	if !h.cfg.EnrichEnabled {
		return c.JSON(createResponse{Success: true, Queued: false, Reason: "disabled"})
	}

	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "invalid body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: err.Error()})
	}
	if req.Provider == "" {
		req.Provider = h.cfg.DefaultProvider
	}
	if _, ok := h.providers.Get(req.Provider); !ok {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "unknown provider: " + req.Provider})
	}
	if req.RequestID == "" {
		req.RequestID = uuid.New().String()
	}

	ctx := c.Context()

	// Cache hit: no job needed.
	entry, err := h.store.GetEntry(ctx, req.Provider, req.PlaceID)
	if err != nil {
		h.log.LogError("cache check failed for "+req.Provider+"/"+req.PlaceID, err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(errorResponse{Error: "store unavailable"})
	}
	if entry != nil {
		return c.JSON(createResponse{Success: true, Queued: false, RequestID: req.RequestID, Entry: entry})
	}

	// Lock before enqueue; a held lock means another request is already
	// enriching this entity and its patch will land on that request's
	// channel instead.
	token := uuid.New().String()
	acquired, err := h.store.AcquireLock(ctx, req.Provider, req.PlaceID, token)
	if err != nil {
		h.log.LogError("lock acquire failed for "+req.Provider+"/"+req.PlaceID, err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(errorResponse{Error: "store unavailable"})
	}
	if !acquired {
		return c.JSON(createResponse{Success: true, Queued: false, RequestID: req.RequestID, Reason: "in_progress"})
	}

	job := Job{
		RequestID:   req.RequestID,
		PlaceID:     req.PlaceID,
		Name:        req.Name,
		CityHint:    req.CityHint,
		AddressHint: req.AddressHint,
		Provider:    req.Provider,
		LockToken:   token,
	}
	queued, err := h.svc.Enqueue(ctx, job)
	if err != nil {
		_, _ = h.store.ReleaseLock(ctx, req.Provider, req.PlaceID, token)
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "enqueue failed"})
	}
	if !queued {
		// Dedup drop: the queued job holds the lock, not us.
		_, _ = h.store.ReleaseLock(ctx, req.Provider, req.PlaceID, token)
		return c.JSON(createResponse{Success: true, Queued: false, RequestID: req.RequestID, Reason: "duplicate"})
	}
	return c.Status(fiber.StatusAccepted).JSON(createResponse{Success: true, Queued: true, RequestID: req.RequestID})
}

// HandleGet returns the cached entry for one provider/place pair.
func (h *Handler) HandleGet(c *fiber.Ctx) error {
	provider := c.Params("provider")
	placeID := c.Params("placeId")

	entry, err := h.store.GetEntry(c.Context(), provider, placeID)
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(errorResponse{Error: "store unavailable"})
	}
	if entry == nil {
		return c.Status(fiber.StatusNotFound).JSON(errorResponse{Error: "not_found"})
	}
	return c.JSON(fiber.Map{"success": true, "entry": entry})
}
