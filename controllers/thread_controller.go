package controller

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"

	"groscales/middleware"
	"groscales/repository"
	"groscales/services"
	"groscales/utils"
)

type DraftGenerator interface {
	Generate(ctx context.Context, ownerID, threadID uint) (*services.Draft, error)
}

type EventSubscriber interface {
	Subscribe(ownerID uint) (<-chan utils.ThreadEvent, func())
}

type ThreadController struct {
	threads  repository.ThreadRepository
	messages repository.MessageRepository
	drafts   DraftGenerator
	events   EventSubscriber
	logger   logrus.FieldLogger
}

func NewThreadController(
	threads repository.ThreadRepository,
	messages repository.MessageRepository,
	drafts DraftGenerator,
	events EventSubscriber,
	logger logrus.FieldLogger,
) *ThreadController {
	return &ThreadController{
		threads:  threads,
		messages: messages,
		drafts:   drafts,
		events:   events,
		logger:   logger.WithField("component", "threads"),
	}
}

func (tc *ThreadController) GetThreads(c *fiber.Ctx) error {
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 20)

	threads, total, err := tc.threads.List(c.UserContext(), middleware.CurrentUserID(c), page, limit)
	if err != nil {
		return respondError(c, tc.logger, "Failed to fetch threads", err)
	}
	return c.JSON(utils.SuccessResponse(utils.PaginatedResponse{
		Data:  threads,
		Total: total,
		Page:  page,
		Limit: limit,
	}))
}

func (tc *ThreadController) GetMessages(c *fiber.Ctx) error {
	id := utils.ParseUint(c.Params("id"))
	if id == 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid thread ID", nil)
	}

	thread, err := tc.threads.GetForOwner(c.UserContext(), middleware.CurrentUserID(c), id)
	if err != nil {
		return respondError(c, tc.logger, "Failed to fetch thread", err)
	}
	messages, err := tc.messages.ListByThread(c.UserContext(), thread.ID, queryInt(c, "limit", 50))
	if err != nil {
		return respondError(c, tc.logger, "Failed to fetch messages", err)
	}
	thread.Messages = messages
	return c.JSON(utils.SuccessResponse(thread))
}

func (tc *ThreadController) Draft(c *fiber.Ctx) error {
	id := utils.ParseUint(c.Params("id"))
	if id == 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid thread ID", nil)
	}
	draft, err := tc.drafts.Generate(c.UserContext(), middleware.CurrentUserID(c), id)
	if err != nil {
		return respondError(c, tc.logger, "Failed to generate draft", err)
	}
	return c.JSON(utils.SuccessResponse(draft))
}

// Stream pushes the caller's thread events over a websocket until the
// client goes away.
func (tc *ThreadController) Stream(conn *websocket.Conn) {
	defer conn.Close()

	ownerID, _ := conn.Locals(middleware.LocalUserID).(uint)
	if ownerID == 0 {
		return
	}
	events, unsubscribe := tc.events.Subscribe(ownerID)
	defer unsubscribe()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				tc.logger.WithError(err).WithField("owner_id", ownerID).Debug("Closing thread stream")
				return
			}
		}
	}
}
