package echoapi

import (
	"net/http"
	"strconv"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/lesson"
)

// response messages
const (
	msgLessonGenerated = "Lesson generated successfully"
	msgLessonExists    = "Lesson already exists"
)

var errInvalidLessonID = "invalid lesson ID"

type (
	createResponse struct {
		Message string `json:"message"`
		ID      int    `json:"id"`
	}

	lessonResponse struct {
		Lesson lesson.Lesson `json:"lesson"`
	}

	lessonListResponse struct {
		Lessons []lesson.Lesson `json:"lessons"`
	}
)

type lessonApi struct {
	svc        lesson.ServiceInterface
	feed       *lesson.Feed
	validate   *validator.Validate
	translator ut.Translator
}

func registerLessonAPI(app *echo.Echo, deps ServerDeps) {
	api := lessonApi{
		svc:        deps.LessonSvc,
		feed:       deps.Feed,
		validate:   deps.Validate,
		translator: deps.Translator,
	}

	lg := app.Group("/lesson")
	lg.POST("", api.create)
	lg.GET("", api.query)
	lg.GET("/stream", api.stream)
	lg.GET("/ws", api.streamWS)
	lg.GET("/:id", api.retrieve)
}

// Handlers

func (api *lessonApi) create(ctx echo.Context) error {
	var data lesson.NewLesson
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLesson")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating lesson")
	}

	if res.Created {
		return ctx.JSON(http.StatusCreated, createResponse{Message: msgLessonGenerated, ID: res.Lesson.ID})
	}
	return ctx.JSON(http.StatusOK, createResponse{Message: msgLessonExists, ID: res.Lesson.ID})
}

func (api *lessonApi) retrieve(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return core.NewValidationError(errors.New(errInvalidLessonID))
	}

	les, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting lesson")
	}
	return ctx.JSON(http.StatusOK, lessonResponse{Lesson: les})
}

func (api *lessonApi) query(ctx echo.Context) error {
	lessons, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying lessons")
	}
	return ctx.JSON(http.StatusOK, lessonListResponse{Lessons: lessons})
}
