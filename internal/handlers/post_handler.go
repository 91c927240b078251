package handlers

import (
	"log/slog"
	"strconv"

	"blogapi/internal/middleware"
	"blogapi/internal/services"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultPage    = 1
	defaultPerPage = 5
)

// PostHandler handles HTTP requests for posts.
type PostHandler struct {
	service *services.PostService
	logger  *slog.Logger
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(service *services.PostService, logger *slog.Logger) *PostHandler {
	return &PostHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the post routes. Reads are public, mutations
// go through requireAuth.
func (h *PostHandler) RegisterRoutes(router fiber.Router, requireAuth fiber.Handler) {
	postRoutes := router.Group("/post")
	postRoutes.Get("/", h.HandleListPosts)
	postRoutes.Post("/", requireAuth, h.HandleCreatePost)
	postRoutes.Get("/:id", h.HandleGetPost)
	postRoutes.Put("/:id", requireAuth, h.HandleUpdatePost)
	postRoutes.Patch("/:id", requireAuth, h.HandleUpdatePost)
	postRoutes.Delete("/:id", requireAuth, h.HandleDeletePost)
}

// postID parses the :id segment. ok is false for anything but a positive
// integer.
func postID(c *fiber.Ctx) (uint, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// HandleCreatePost creates a post owned by the caller.
func (h *PostHandler) HandleCreatePost(c *fiber.Ctx) error {
	var req services.CreatePostInput
	if err := c.BodyParser(&req); err != nil {
		h.logger.Debug("invalid post body", slog.Any("error", err))
		return badRequest(c, "Invalid request body")
	}

	post, err := h.service.Create(c.UserContext(), middleware.CurrentUser(c).ID, req)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(newPostResponse(post))
}

// HandleListPosts returns one page of posts. Unparseable page or per_page
// values fall back to the defaults.
func (h *PostHandler) HandleListPosts(c *fiber.Ctx) error {
	page := c.QueryInt("page", defaultPage)
	perPage := c.QueryInt("per_page", defaultPerPage)

	result, err := h.service.List(c.UserContext(), page, perPage)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(newPostListResponse(result))
}

// HandleGetPost returns a single post.
func (h *PostHandler) HandleGetPost(c *fiber.Ctx) error {
	id, ok := postID(c)
	if !ok {
		return notFound(c)
	}

	post, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(newPostResponse(post))
}

// HandleUpdatePost changes title and/or content of the caller's post.
func (h *PostHandler) HandleUpdatePost(c *fiber.Ctx) error {
	id, ok := postID(c)
	if !ok {
		return notFound(c)
	}

	var req services.UpdatePostInput
	if err := c.BodyParser(&req); err != nil {
		h.logger.Debug("invalid post body", slog.Any("error", err))
		return badRequest(c, "Invalid request body")
	}

	post, err := h.service.Update(c.UserContext(), middleware.CurrentUser(c).ID, id, req)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(newPostResponse(post))
}

// HandleDeletePost deletes the caller's post.
func (h *PostHandler) HandleDeletePost(c *fiber.Ctx) error {
	id, ok := postID(c)
	if !ok {
		return notFound(c)
	}

	if err := h.service.Delete(c.UserContext(), middleware.CurrentUser(c).ID, id); err != nil {
		return writeError(c, h.logger, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
