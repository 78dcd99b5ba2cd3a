package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/fieldops/fieldservice/internal/api/dto"
	"github.com/fieldops/fieldservice/internal/calendar"
	"github.com/fieldops/fieldservice/internal/service"
	apperrors "github.com/fieldops/fieldservice/pkg/util/errorutil"
)

// CalendarSession is the OAuth session behind the calendar endpoints.
type CalendarSession interface {
	AuthCodeURL() string
	Login(ctx context.Context, state, code string) error
	Logout(ctx context.Context) error
	Authenticated() bool
}

// CalendarHandler drives the calendar OAuth flow and serves the timeline.
type CalendarHandler struct {
	session  CalendarSession
	schedule *service.ScheduleService
	enabled  bool
	// successRedirect, when set, is where the callback sends the browser.
	successRedirect string
	logger          *zap.Logger
	now             func() time.Time
}

// NewCalendarHandler constructs handler. A disabled handler answers the
// OAuth endpoints with 422 but still serves ticket-only timelines.
func NewCalendarHandler(session CalendarSession, schedule *service.ScheduleService, enabled bool, successRedirect string, logger *zap.Logger) *CalendarHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarHandler{
		session:         session,
		schedule:        schedule,
		enabled:         enabled,
		successRedirect: successRedirect,
		logger:          logger,
		now:             time.Now,
	}
}

func (h *CalendarHandler) requireEnabled() error {
	if !h.enabled || h.session == nil {
		return apperrors.NewUnprocessable("CALENDAR_DISABLED", "calendar integration is not configured", nil)
	}
	return nil
}

// Login GET /api/calendar/login returns the consent URL.
func (h *CalendarHandler) Login(c *fiber.Ctx) error {
	if err := h.requireEnabled(); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"auth_url": h.session.AuthCodeURL()}})
}

// Callback GET /api/calendar/callback completes the OAuth exchange.
func (h *CalendarHandler) Callback(c *fiber.Ctx) error {
	if err := h.requireEnabled(); err != nil {
		return err
	}
	if reason := c.Query("error"); reason != "" {
		return apperrors.NewValidationError("calendar consent refused", map[string]any{"reason": reason})
	}
	code := c.Query("code")
	if code == "" {
		return apperrors.NewValidationError("code required", map[string]any{"code": "required"})
	}
	if err := h.session.Login(c.UserContext(), c.Query("state"), code); err != nil {
		if errors.Is(err, calendar.ErrInvalidState) {
			return apperrors.NewValidationError("invalid or expired state", map[string]any{"state": "invalid"})
		}
		return apperrors.NewUpstreamError("calendar login failed", err)
	}
	if h.successRedirect != "" {
		return c.Redirect(h.successRedirect, fiber.StatusFound)
	}
	return c.JSON(fiber.Map{"data": dto.CalendarStatusResponse{Enabled: true, Authenticated: true}})
}

// Logout POST /api/calendar/logout.
func (h *CalendarHandler) Logout(c *fiber.Ctx) error {
	if err := h.requireEnabled(); err != nil {
		return err
	}
	if err := h.session.Logout(c.UserContext()); err != nil {
		h.logger.Warn("calendar token not cleared", zap.Error(err))
		return apperrors.NewInternalError(err)
	}
	return c.JSON(fiber.Map{"data": dto.CalendarStatusResponse{Enabled: true}})
}

// Status GET /api/calendar/status.
func (h *CalendarHandler) Status(c *fiber.Ctx) error {
	resp := dto.CalendarStatusResponse{Enabled: h.enabled && h.session != nil}
	if resp.Enabled {
		resp.Authenticated = h.session.Authenticated()
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Events GET /api/calendar/events returns the merged timeline.
func (h *CalendarHandler) Events(c *fiber.Ctx) error {
	timeline, err := h.schedule.Timeline(c.UserContext(), h.now())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTimelineResponse(timeline.Events, timeline.CalendarError)})
}
