package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rongwang/condo-ledger/internal/classifier"
	"github.com/rongwang/condo-ledger/internal/models"
	"github.com/rongwang/condo-ledger/internal/service"
	"github.com/rongwang/condo-ledger/internal/utils"
)

// intentFunc runs one named action. The returned fields are merged into the
// {"success": true} response.
type intentFunc func(c *gin.Context, actor models.Actor) (gin.H, error)

type intentTable map[string]intentFunc

// badRequest is a request that could not be bound or validated
type badRequest struct {
	msg string
}

func (e *badRequest) Error() string { return e.msg }

var registerOnce sync.Once

// registerValidators adds the custom binding tags used by request models
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("regex", func(fl validator.FieldLevel) bool {
			_, err := classifier.Compile(fl.Field().String())
			return err == nil
		})
	})
}

// bind decodes the request into T from a JSON body or from form fields
func bind[T any](c *gin.Context) (T, error) {
	var req T
	var err error
	if c.ContentType() == binding.MIMEJSON {
		err = c.ShouldBindBodyWith(&req, binding.JSON)
	} else {
		err = c.ShouldBind(&req)
	}
	if err != nil {
		return req, &badRequest{msg: describeBindError(err)}
	}
	return req, nil
}

func describeBindError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request body"
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return "invalid request: " + strings.Join(parts, ", ")
}

// intentName reads the action name from the query, the form or the JSON body
func intentName(c *gin.Context) string {
	if name := c.Query("intent"); name != "" {
		return name
	}
	if c.ContentType() == binding.MIMEJSON {
		var body struct {
			Intent string `json:"intent"`
		}
		if err := c.ShouldBindBodyWith(&body, binding.JSON); err != nil {
			return ""
		}
		return body.Intent
	}
	return c.PostForm("intent")
}

// dispatch routes a POST to the intent named in the request
func (h *Handler) dispatch(table intentTable) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := intentName(c)
		fn, ok := table[name]
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   fmt.Sprintf("unknown intent %q", name),
			})
			return
		}
		h.respondIntent(c, fn)
	}
}

func (h *Handler) respondIntent(c *gin.Context, fn intentFunc) {
	extra, err := fn(c, actorFrom(c))
	if err != nil {
		status, _, message := h.classify(c, err)
		c.JSON(status, gin.H{"success": false, "error": message})
		return
	}

	resp := gin.H{"success": true}
	for k, v := range extra {
		resp[k] = v
	}
	c.JSON(http.StatusOK, resp)
}

// respondError answers a read endpoint with the standard error body
func (h *Handler) respondError(c *gin.Context, err error) {
	status, code, message := h.classify(c, err)
	c.JSON(status, models.ErrorResponse{
		Status:  "error",
		Code:    code,
		Message: message,
	})
}

// classify maps an error to its HTTP status, error code and client message.
// Infrastructure errors are logged and hidden.
func (h *Handler) classify(c *gin.Context, err error) (int, string, string) {
	var br *badRequest
	switch {
	case errors.As(err, &br):
		return http.StatusBadRequest, "VALIDATION_ERROR", br.msg
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, "VALIDATION_ERROR", err.Error()
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", err.Error()
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, "CONFLICT", err.Error()
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN", err.Error()
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED", err.Error()
	}

	utils.LogError(h.logger, "api", c.HandlerName(), c.Request.Method+" "+c.FullPath(), c.Param("id"), err)
	_ = c.Error(err)
	return http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error"
}
