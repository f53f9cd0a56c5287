package controller

import (
	"time"

	"tempnote-be/internal/dto"
	"tempnote-be/internal/entity"
	"tempnote-be/internal/mapper"
	"tempnote-be/internal/pkg/serverutils"
	"tempnote-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type INoteController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	MakePermanent(ctx *fiber.Ctx) error
}

type noteController struct {
	noteService service.INoteService
	mapper      *mapper.NoteMapper
	baseURL     string
	now         func() time.Time
}

func NewNoteController(noteService service.INoteService, baseURL string, now func() time.Time) INoteController {
	if now == nil {
		now = time.Now
	}
	return &noteController{
		noteService: noteService,
		mapper:      mapper.NewNoteMapper(),
		baseURL:     baseURL,
		now:         now,
	}
}

// RegisterRoutes expects the optional JWT middleware to run on r.
func (c *noteController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/note/v1")
	h.Post("", c.Create)
	h.Get("", c.List)
	h.Get(":id", c.Show)
	h.Put(":id", c.Update)
	h.Delete(":id", c.Delete)
	h.Post(":id/permanent", serverutils.RequireIdentity, c.MakePermanent)
}

func parseNoteID(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		// Malformed locators cannot name a note.
		return uuid.Nil, entity.ErrNotFound
	}
	return id, nil
}

func (c *noteController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateNoteRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	note, err := c.noteService.Create(ctx.UserContext(), serverutils.IdentityFrom(ctx), &req)
	if err != nil {
		return err
	}

	res := c.mapper.ToResponse(note, c.now(), c.baseURL)
	ctx.Location("/note/" + note.Id.String())
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create note", res))
}

func (c *noteController) List(ctx *fiber.Ctx) error {
	var viewer *uuid.UUID
	if identity := serverutils.IdentityFrom(ctx); identity != nil {
		viewer = &identity.UserID
	}

	notes, err := c.noteService.List(ctx.UserContext(), viewer)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list notes", c.mapper.ToResponses(notes, c.now(), c.baseURL)))
}

func (c *noteController) Show(ctx *fiber.Ctx) error {
	id, err := parseNoteID(ctx)
	if err != nil {
		return err
	}

	note, err := c.noteService.Show(ctx.UserContext(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show note", c.mapper.ToResponse(note, c.now(), c.baseURL)))
}

func (c *noteController) Update(ctx *fiber.Ctx) error {
	id, err := parseNoteID(ctx)
	if err != nil {
		return err
	}

	var req dto.UpdateNoteRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	req.Id = id

	note, err := c.noteService.UpdateContent(ctx.UserContext(), req.Id, req.Content)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success update note", c.mapper.ToResponse(note, c.now(), c.baseURL)))
}

func (c *noteController) Delete(ctx *fiber.Ctx) error {
	id, err := parseNoteID(ctx)
	if err != nil {
		return err
	}

	if err := c.noteService.Delete(ctx.UserContext(), id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete note", nil))
}

func (c *noteController) MakePermanent(ctx *fiber.Ctx) error {
	id, err := parseNoteID(ctx)
	if err != nil {
		return err
	}

	note, err := c.noteService.MakePermanent(ctx.UserContext(), id, serverutils.IdentityFrom(ctx))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Note saved permanently", c.mapper.ToResponse(note, c.now(), c.baseURL)))
}
