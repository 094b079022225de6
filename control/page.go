package control

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/labstack/echo/v4"
)

//go:embed templates/control.html
var templateFS embed.FS

var controlPage = template.Must(template.ParseFS(templateFS, "templates/control.html"))

// Scenario is a machine listed on the control page.
type Scenario struct {
	Name        string
	MachineID   string
	Description string
}

type pageData struct {
	Title        string
	Header       string
	BasePath     string
	SuccessID    string
	Scenarios    []Scenario
	Actions      []string
	ParamActions []string
}

// handleControl renders the control page. ?success=<id> highlights the last
// action that went through.
func (s *Server) handleControl(c echo.Context) error {
	data := pageData{
		Title:        "APPsist Maschinenzustand-Simulationsdienst",
		Header:       "Simulator für Maschinenzustände",
		BasePath:     s.cfg.BasePath,
		SuccessID:    c.QueryParam("success"),
		Scenarios:    s.scenarios,
		Actions:      s.dispatcher.Actions(),
		ParamActions: s.dispatcher.ParamActions(),
	}

	var buf bytes.Buffer
	if err := controlPage.Execute(&buf, data); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "rendering control page").SetInternal(err)
	}

	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}
