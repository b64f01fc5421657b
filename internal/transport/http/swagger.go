package http

import (
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/ghodss/yaml"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/roamplan/roamplan-backend/internal/util"
)

var (
	swaggerOnce sync.Once
	swaggerJSON []byte
	swaggerErr  error
)

// RegisterSwagger serves the hand-maintained docs/swagger.yaml as JSON and
// mounts the Swagger UI under /swagger.
func RegisterSwagger(e *echo.Echo) {
	e.GET("/swagger/doc.json", serveSwaggerSpec)
	e.GET("/swagger/*", echoSwagger.WrapHandler)
}

func serveSwaggerSpec(c echo.Context) error {
	swaggerOnce.Do(func() {
		data, err := os.ReadFile(filepath.Join("docs", "swagger.yaml"))
		if err != nil {
			swaggerErr = err
			return
		}
		swaggerJSON, swaggerErr = yaml.YAMLToJSON(data)
	})
	if swaggerErr != nil {
		c.Logger().Errorf("swagger spec: %v", swaggerErr)
		return c.JSON(http.StatusInternalServerError, util.Error("swagger spec unavailable"))
	}
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSONCharsetUTF8, swaggerJSON)
}
