package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"mongobridge/internal/apis/dtos"
	"mongobridge/internal/constants"
	"mongobridge/internal/services"
	"mongobridge/pkg/connector"

	"github.com/gin-gonic/gin"
)

type ConnectorHandler struct {
	connectorService services.ConnectorService
}

func NewConnectorHandler(connectorService services.ConnectorService) *ConnectorHandler {
	if connectorService == nil {
		log.Fatal("Connector service cannot be nil")
	}
	return &ConnectorHandler{
		connectorService: connectorService,
	}
}

// @Summary Execute
// @Description Execute a database operation for a batch of items
// @Accept json
// @Produce json
// @Param executeRequest body dtos.ExecuteRequest true "Execute request"
// @Success 200 {object} dtos.Response

func (h *ConnectorHandler) Execute(c *gin.Context) {
	var req dtos.ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorMsg := err.Error()
		c.JSON(http.StatusBadRequest, dtos.Response{
			Success: false,
			Error:   &errorMsg,
		})
		return
	}

	response, statusCode, err := h.connectorService.Execute(c.Request.Context(), &req)
	if err != nil {
		errorMsg := err.Error()
		c.JSON(int(statusCode), dtos.Response{
			Success: false,
			Error:   &errorMsg,
			Data:    queryError(err),
		})
		return
	}

	c.JSON(int(statusCode), dtos.Response{
		Success: true,
		Data:    response,
	})
}

// @Summary Ping
// @Description Verify a target deployment is reachable
// @Accept json
// @Produce json
// @Param pingRequest body dtos.PingRequest true "Ping request"
// @Success 200 {object} dtos.Response

func (h *ConnectorHandler) Ping(c *gin.Context) {
	var req dtos.PingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorMsg := err.Error()
		c.JSON(http.StatusBadRequest, dtos.Response{
			Success: false,
			Error:   &errorMsg,
		})
		return
	}

	response, statusCode, err := h.connectorService.Ping(c.Request.Context(), req.Target)
	if err != nil {
		errorMsg := err.Error()
		c.JSON(int(statusCode), dtos.Response{
			Success: false,
			Error:   &errorMsg,
			Data:    queryError(err),
		})
		return
	}

	c.JSON(int(statusCode), dtos.Response{
		Success: true,
		Data:    response,
	})
}

// @Summary Logs
// @Description List recent invocation audit entries
// @Produce json
// @Param limit query int false "Maximum entries to return"
// @Success 200 {object} dtos.Response

func (h *ConnectorHandler) Logs(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil {
		errorMsg := "limit must be a number"
		c.JSON(http.StatusBadRequest, dtos.Response{
			Success: false,
			Error:   &errorMsg,
		})
		return
	}

	entries, statusCode, err := h.connectorService.Logs(limit)
	if err != nil {
		errorMsg := err.Error()
		c.JSON(int(statusCode), dtos.Response{
			Success: false,
			Error:   &errorMsg,
		})
		return
	}

	c.JSON(int(statusCode), dtos.Response{
		Success: true,
		Data:    entries,
	})
}

// queryError classifies an execution failure for the response payload.
func queryError(err error) *dtos.QueryError {
	var parseErr *connector.ParseError
	var idErr *connector.IdentifierError
	var dbErr *connector.DatabaseError

	code := constants.ErrorCodeConnection
	switch {
	case errors.As(err, &parseErr), errors.Is(err, connector.ErrEmptySort):
		code = constants.ErrorCodeParse
	case errors.As(err, &idErr):
		code = constants.ErrorCodeIdentifier
	case errors.As(err, &dbErr):
		code = constants.ErrorCodeDatabase
	case errors.Is(err, connector.ErrUnsupportedOperation):
		code = constants.ErrorCodeUnsupported
	case errors.Is(err, services.ErrCollectionNotFound):
		code = constants.ErrorCodeNotFound
	}

	return &dtos.QueryError{
		Code:    code,
		Message: err.Error(),
	}
}
