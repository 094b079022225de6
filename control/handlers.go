package control

import (
	"errors"
	"net/http"

	"github.com/arloliu/msdsim/action"
	"github.com/arloliu/msdsim/engine"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type actionRequest struct {
	Method string `json:"method"`
	Param  string `json:"param"`
}

// handlePerformAction runs {"method": name}. The reply is an empty 200 for
// known and unknown actions alike.
func (s *Server) handlePerformAction(c echo.Context) error {
	req, err := s.bind(c)
	if err != nil {
		return err
	}
	outcome, err := s.dispatcher.Perform(c.Request().Context(), req.Method)

	return s.reply(c, req.Method, outcome, err)
}

// handlePerformActionWithParam runs {"method": name, "param": value}.
func (s *Server) handlePerformActionWithParam(c echo.Context) error {
	req, err := s.bind(c)
	if err != nil {
		return err
	}
	outcome, err := s.dispatcher.PerformWithParam(c.Request().Context(), req.Method, req.Param)

	return s.reply(c, req.Method, outcome, err)
}

// bind reads the body as JSON whatever the request's content type.
func (s *Server) bind(c echo.Context) (actionRequest, error) {
	var req actionRequest
	if err := c.Echo().JSONSerializer.Deserialize(c, &req); err != nil {
		return req, echo.NewHTTPError(http.StatusBadRequest, "invalid action body").SetInternal(err)
	}

	return req, nil
}

func (s *Server) reply(c echo.Context, name string, outcome action.Outcome, err error) error {
	switch {
	case errors.Is(err, engine.ErrUninitialized):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "scenarios not initialized").SetInternal(err)
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "action failed").SetInternal(err)
	}
	s.logger.Debug("action handled", zap.String("action", name), zap.Stringer("outcome", outcome))

	return c.String(http.StatusOK, "")
}
