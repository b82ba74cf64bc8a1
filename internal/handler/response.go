package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/eventup/api/internal/model"
)

// DataResponse wraps a successful single resource response
type DataResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data"`
}

// CollectionResponse wraps one page of a list
type CollectionResponse struct {
	Success bool        `json:"success"`
	Count   int         `json:"count"`
	Total   int         `json:"total"`
	Page    int         `json:"page"`
	Pages   int         `json:"pages"`
	Data    interface{} `json:"data"`
}

// WriteData writes {success:true, data}
func WriteData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, DataResponse{Success: true, Data: data})
}

// WriteMessage writes {success:true, message, data}
func WriteMessage(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, DataResponse{Success: true, Message: message, Data: data})
}

// WriteCollection writes a paginated list
func WriteCollection[T any](c *gin.Context, result *model.PageResult[T]) {
	items := result.Items
	if items == nil {
		items = []T{}
	}
	c.JSON(http.StatusOK, CollectionResponse{
		Success: true,
		Count:   len(items),
		Total:   result.Total,
		Page:    result.Page.Page,
		Pages:   result.Page.Pages(result.Total),
		Data:    items,
	})
}

// WriteError writes an RFC 9457 Problem Details error response
func WriteError(c *gin.Context, p *model.ProblemDetails) {
	if p.Instance == "" {
		p.Instance = c.Request.URL.Path
	}
	c.AbortWithStatusJSON(p.Status, p)
}

// WriteNoContent writes a 204 No Content response
func WriteNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// pageFromQuery reads ?page=&limit=
func pageFromQuery(c *gin.Context) model.Page {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return model.NewPage(page, limit)
}
