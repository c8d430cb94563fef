package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"question-board/internal/domain"
	"question-board/internal/service"
	"question-board/internal/storage"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	users     service.UserService
	questions service.QuestionService
	answers   service.AnswerService
	images    storage.Service
	jwtSecret string
	tokenTTL  time.Duration
	logger    logrus.FieldLogger
}

func NewHandler(
	users service.UserService,
	questions service.QuestionService,
	answers service.AnswerService,
	images storage.Service,
	jwtSecret string,
	tokenTTL time.Duration,
	logger logrus.FieldLogger,
) *Handler {
	return &Handler{
		users:     users,
		questions: questions,
		answers:   answers,
		images:    images,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestLogger(h.logger))
	router.Use(h.resolveUser())

	router.GET("/", h.index)
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": "ok"})
	})

	auth := router.Group("/auth")
	{
		auth.GET("/signup/", h.signupForm)
		auth.POST("/signup/", h.signup)
		auth.GET("/login/", h.loginForm)
		auth.POST("/login/", h.login)
		auth.GET("/logout/", h.logout)
	}

	question := router.Group("/question")
	{
		question.GET("/list/", h.listQuestions)
		question.GET("/detail/:id", h.questionDetail)

		gated := question.Group("", h.requireAuth())
		gated.GET("/create/", h.questionCreateForm)
		gated.POST("/create/", h.createQuestion)
		gated.GET("/modify/:id", h.questionModifyForm)
		gated.POST("/modify/:id", h.modifyQuestion)
		gated.GET("/delete/:id", h.deleteQuestion)
	}

	answer := router.Group("/answer", h.requireAuth())
	{
		answer.POST("/create/:question_id", h.createAnswer)
		answer.POST("/modify/:id", h.modifyAnswer)
		answer.GET("/delete/:id", h.deleteAnswer)
	}
}

func (h *Handler) index(c *gin.Context) {
	c.Redirect(http.StatusFound, "/question/list/")
}

func (h *Handler) signupForm(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"fields": []string{"username", "password1", "password2", "email"}})
}

func (h *Handler) signup(c *gin.Context) {
	_, err := h.users.Signup(
		c.Request.Context(),
		c.PostForm("username"),
		c.PostForm("password1"),
		c.PostForm("password2"),
		c.PostForm("email"),
	)
	if err != nil {
		h.writeError(c, err)
		return
	}
	// No auto-login after signup.
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) loginForm(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"fields": []string{"username", "password"}, "next": c.Query("next")})
}

func (h *Handler) login(c *gin.Context) {
	user, err := h.users.Authenticate(c.Request.Context(), c.PostForm("username"), c.PostForm("password"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	token, err := issueSessionToken(h.jwtSecret, user.ID, h.tokenTTL)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.SetCookie(sessionCookie, token, int(h.tokenTTL.Seconds()), "/", "", false, true)

	c.Redirect(http.StatusFound, safeNext(c.Query("next")))
}

func (h *Handler) logout(c *gin.Context) {
	c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) listQuestions(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	keyword := c.Query("kw")

	questions, total, err := h.questions.List(c.Request.Context(), page, keyword)
	if err != nil {
		h.writeError(c, err)
		return
	}

	list := make([]QuestionResponse, len(questions))
	for i := range questions {
		list[i] = h.questionToResponse(c, questions[i])
	}

	c.JSON(http.StatusOK, QuestionListResponse{
		Questions: list,
		Total:     total,
		Page:      page,
		PageSize:  service.PageSize,
		Keyword:   keyword,
	})
}

func (h *Handler) questionDetail(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	question, err := h.questions.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := h.questionToResponse(c, *question)
	resp.Answers = make([]AnswerResponse, len(question.Answers))
	for i := range question.Answers {
		resp.Answers[i] = answerToResponse(question.Answers[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) questionCreateForm(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"fields": []string{"subject", "content", "image"}})
}

func (h *Handler) createQuestion(c *gin.Context) {
	user := currentUser(c)

	var image *service.ImageUpload
	if file, err := c.FormFile("image"); err == nil && file != nil {
		f, err := file.Open()
		if err != nil {
			h.writeError(c, fmt.Errorf("open uploaded image: %w", err))
			return
		}
		defer f.Close()
		image = &service.ImageUpload{Filename: file.Filename, Reader: f}
	}

	_, err := h.questions.Create(
		c.Request.Context(),
		user.ID,
		c.PostForm("subject"),
		c.PostForm("content"),
		image,
	)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) questionModifyForm(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	question, err := h.questions.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if question.UserID != currentUser(c).ID {
		h.writeError(c, domain.ErrForbidden)
		return
	}

	c.JSON(http.StatusOK, h.questionToResponse(c, *question))
}

func (h *Handler) modifyQuestion(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	_, err := h.questions.Modify(
		c.Request.Context(),
		currentUser(c).ID,
		id,
		c.PostForm("subject"),
		c.PostForm("content"),
	)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Redirect(http.StatusFound, fmt.Sprintf("/question/detail/%d", id))
}

func (h *Handler) deleteQuestion(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.questions.Delete(c.Request.Context(), currentUser(c).ID, id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/question/list/")
}

func (h *Handler) createAnswer(c *gin.Context) {
	questionID, ok := pathID(c, "question_id")
	if !ok {
		return
	}

	_, err := h.answers.Create(c.Request.Context(), currentUser(c).ID, questionID, c.PostForm("content"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Redirect(http.StatusFound, fmt.Sprintf("/question/detail/%d", questionID))
}

func (h *Handler) modifyAnswer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	answer, err := h.answers.Modify(c.Request.Context(), currentUser(c).ID, id, c.PostForm("content"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Redirect(http.StatusFound, fmt.Sprintf("/question/detail/%d", answer.QuestionID))
}

func (h *Handler) deleteAnswer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	questionID, err := h.answers.Delete(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Redirect(http.StatusFound, fmt.Sprintf("/question/detail/%d", questionID))
}

// writeError maps the domain error taxonomy onto HTTP responses.
func (h *Handler) writeError(c *gin.Context, err error) {
	if ve, ok := domain.AsValidationError(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Message, "field": ve.Field})
		return
	}

	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
	case errors.Is(err, domain.ErrWrongPassword):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "wrong password"})
	case errors.Is(err, domain.ErrUserExists):
		c.JSON(http.StatusConflict, gin.H{"error": "user already exists"})
	case errors.Is(err, domain.ErrEmailExists):
		c.JSON(http.StatusConflict, gin.H{"error": "email already in use"})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "you are not the owner"})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		h.logger.Errorf("request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// safeNext keeps the post-login redirect on this site.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/"
	}
	return next
}

type QuestionListResponse struct {
	Questions []QuestionResponse `json:"question_list"`
	Total     int                `json:"total"`
	Page      int                `json:"page"`
	PageSize  int                `json:"page_size"`
	Keyword   string             `json:"kw"`
}

type QuestionResponse struct {
	ID         int64            `json:"id"`
	Subject    string           `json:"subject"`
	Content    string           `json:"content"`
	Username   string           `json:"username"`
	CreateDate string           `json:"create_date"`
	ModifyDate *string          `json:"modify_date,omitempty"`
	ImageURL   string           `json:"image_url,omitempty"`
	Answers    []AnswerResponse `json:"answers,omitempty"`
}

type AnswerResponse struct {
	ID         int64   `json:"id"`
	QuestionID int64   `json:"question_id"`
	Content    string  `json:"content"`
	Username   string  `json:"username"`
	CreateDate string  `json:"create_date"`
	ModifyDate *string `json:"modify_date,omitempty"`
}

func (h *Handler) questionToResponse(c *gin.Context, question domain.Question) QuestionResponse {
	resp := QuestionResponse{
		ID:         question.ID,
		Subject:    question.Subject,
		Content:    question.Content,
		Username:   question.Username,
		CreateDate: question.CreateDate.Format(time.RFC3339),
	}
	if question.ModifyDate != nil {
		v := question.ModifyDate.Format(time.RFC3339)
		resp.ModifyDate = &v
	}
	if question.ImagePath != "" && h.images != nil {
		url, err := h.images.URL(c.Request.Context(), question.ImagePath)
		if err != nil {
			h.logger.Warnf("resolve image url %s: %v", question.ImagePath, err)
		} else {
			resp.ImageURL = url
		}
	}
	return resp
}

func answerToResponse(answer domain.Answer) AnswerResponse {
	resp := AnswerResponse{
		ID:         answer.ID,
		QuestionID: answer.QuestionID,
		Content:    answer.Content,
		Username:   answer.Username,
		CreateDate: answer.CreateDate.Format(time.RFC3339),
	}
	if answer.ModifyDate != nil {
		v := answer.ModifyDate.Format(time.RFC3339)
		resp.ModifyDate = &v
	}
	return resp
}
