package http

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/alexvidal/safewalk/internal/core/domain"
	"github.com/alexvidal/safewalk/internal/core/usecases"
)

// GetAssessmentHandler returns the current assessment snapshot.
func GetAssessmentHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(deps.State.Snapshot())
	}
}

// RefreshHandler kicks off a background assessment run. If one is already
// in flight the request is rejected rather than queued.
func RefreshHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Orchestrator.Start(); err != nil {
			if errors.Is(err, usecases.ErrRunInProgress) {
				return errConflict(c, "an assessment run is already in progress")
			}
			return errInternal(c, err.Error())
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"status": "refresh started",
		})
	}
}

// positionRequest is the body of POST /v1/position.
type positionRequest struct {
	Lat         float64            `json:"lat"`
	Lng         float64            `json:"lng"`
	Destination *domain.Coordinate `json:"destination,omitempty"`
}

func validCoordinate(lat, lng float64) bool {
	c := domain.Coordinate{Lat: lat, Lng: lng}
	return c.Valid() && lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// UpdatePositionHandler moves the user (and optionally the destination) and
// reconciles the map view against the new state.
func UpdatePositionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req positionRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		if !validCoordinate(req.Lat, req.Lng) {
			return errBadRequest(c, "lat/lng out of range")
		}
		if req.Destination != nil && !validCoordinate(req.Destination.Lat, req.Destination.Lng) {
			return errBadRequest(c, "destination lat/lng out of range")
		}

		deps.State.SetPosition(domain.Coordinate{Lat: req.Lat, Lng: req.Lng}, req.Destination)
		deps.Reconciler.Sync(deps.State.Snapshot())

		return c.JSON(deps.State.Snapshot())
	}
}

// ToggleDistressHandler flips distress mode and restyles the map view.
func ToggleDistressHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		active := deps.State.ToggleDistress()
		deps.Reconciler.Sync(deps.State.Snapshot())

		return c.JSON(fiber.Map{"distress": active})
	}
}

// chatRequest is the body of POST /v1/chat.
type chatRequest struct {
	Message string `json:"message"`
}

// ChatHandler sends one chat turn and returns the assistant's reply.
// Session failures come back as a canned reply, not an error status.
func ChatHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req chatRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		if strings.TrimSpace(req.Message) == "" {
			return errBadRequest(c, "message must not be empty")
		}

		reply, err := deps.Chat.SendTurn(c.Context(), req.Message)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		return c.JSON(fiber.Map{"reply": reply})
	}
}

// TranscriptHandler returns the full chat transcript.
func TranscriptHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		transcript := deps.State.Transcript()
		if transcript == nil {
			transcript = []domain.ChatMessage{}
		}
		return c.JSON(fiber.Map{
			"messages": transcript,
			"count":    len(transcript),
		})
	}
}
