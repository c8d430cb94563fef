package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"question-board/internal/repository/sqlite"
	"question-board/internal/service"
	"question-board/internal/storage"
)

const testSecret = "test-secret"

type testServer struct {
	router *gin.Engine
	users  service.UserService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "board.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	userRepo := sqlite.NewUserRepository(db)
	questionRepo := sqlite.NewQuestionRepository(db)
	answerRepo := sqlite.NewAnswerRepository(db)
	require.NoError(t, userRepo.Init(ctx))
	require.NoError(t, questionRepo.Init(ctx))
	require.NoError(t, answerRepo.Init(ctx))

	images, err := storage.NewLocalService(filepath.Join(t.TempDir(), "static"))
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	users := service.NewUserService(userRepo)
	questions := service.NewQuestionService(questionRepo, answerRepo, images, logger)
	answers := service.NewAnswerService(answerRepo, questionRepo)

	router := gin.New()
	handler := NewHandler(users, questions, answers, images, testSecret, time.Hour, logger)
	handler.RegisterRoutes(router)

	return &testServer{router: router, users: users}
}

func (s *testServer) do(t *testing.T, method, target string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) signupAndLogin(t *testing.T, username string) *http.Cookie {
	t.Helper()

	rec := s.do(t, http.MethodPost, "/auth/signup/", url.Values{
		"username":  {username},
		"password1": {"secret"},
		"password2": {"secret"},
		"email":     {username + "@example.com"},
	})
	require.Equal(t, http.StatusFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/auth/login/", url.Values{
		"username": {username},
		"password": {"secret"},
	})
	require.Equal(t, http.StatusFound, rec.Code)

	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == sessionCookie && cookie.Value != "" {
			return cookie
		}
	}
	t.Fatalf("login did not set a session cookie")
	return nil
}

func TestIndexRedirectsToList(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/question/list/", rec.Header().Get("Location"))
}

func TestCreateRequiresLogin(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/question/create/", nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/auth/login/?next="+url.QueryEscape("/question/create/"), rec.Header().Get("Location"))

	rec = s.do(t, http.MethodPost, "/question/create/", url.Values{"subject": {"Q"}, "content": {"c"}})
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/auth/login/", rec.Header().Get("Location"))
}

func TestLoginRedirectsToNext(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/auth/signup/", url.Values{
		"username":  {"alice"},
		"password1": {"secret"},
		"password2": {"secret"},
		"email":     {"alice@example.com"},
	})
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	rec = s.do(t, http.MethodPost, "/auth/login/?next="+url.QueryEscape("/question/create/"), url.Values{
		"username": {"alice"},
		"password": {"secret"},
	})
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/question/create/", rec.Header().Get("Location"))
}

func TestLoginRejectsOffSiteNext(t *testing.T) {
	s := newTestServer(t)
	s.signupAndLogin(t, "alice")

	rec := s.do(t, http.MethodPost, "/auth/login/?next="+url.QueryEscape("https://evil.example.com/"), url.Values{
		"username": {"alice"},
		"password": {"secret"},
	})
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestLoginFailures(t *testing.T) {
	s := newTestServer(t)
	s.signupAndLogin(t, "alice")

	rec := s.do(t, http.MethodPost, "/auth/login/", url.Values{
		"username": {"alice"},
		"password": {"wrong"},
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "wrong password")

	rec = s.do(t, http.MethodPost, "/auth/login/", url.Values{
		"username": {"nobody"},
		"password": {"secret"},
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "user not found")
}

func TestLogoutClearsSession(t *testing.T) {
	s := newTestServer(t)
	cookie := s.signupAndLogin(t, "alice")

	rec := s.do(t, http.MethodGet, "/auth/logout/", nil, cookie)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	var cleared *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie {
			cleared = c
		}
	}
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)

	// Logout is idempotent for anonymous callers too.
	rec = s.do(t, http.MethodGet, "/auth/logout/", nil)
	assert.Equal(t, http.StatusFound, rec.Code)
}

func TestQuestionLifecycle(t *testing.T) {
	s := newTestServer(t)
	alice := s.signupAndLogin(t, "alice")
	bob := s.signupAndLogin(t, "bob")

	rec := s.do(t, http.MethodPost, "/question/create/", url.Values{
		"subject": {"Q1"},
		"content": {"about bees"},
	}, alice)
	require.Equal(t, http.StatusFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/question/list/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list QuestionListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Equal(t, 1, list.Total)
	require.Len(t, list.Questions, 1)
	assert.Equal(t, "Q1", list.Questions[0].Subject)
	assert.Equal(t, "alice", list.Questions[0].Username)
	id := list.Questions[0].ID

	rec = s.do(t, http.MethodGet, "/question/detail/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail QuestionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, "about bees", detail.Content)

	// Only the owner may modify.
	rec = s.do(t, http.MethodPost, "/question/modify/1", url.Values{
		"subject": {"hijacked"},
		"content": {"hijacked"},
	}, bob)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/question/modify/1", url.Values{
		"subject": {"Q1 edited"},
		"content": {"still about bees"},
	}, alice)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/question/detail/1", rec.Header().Get("Location"))

	// Bob answers alice's question.
	rec = s.do(t, http.MethodPost, "/answer/create/1", url.Values{"content": {"bees are great"}}, bob)
	require.Equal(t, http.StatusFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/question/detail/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	require.Len(t, detail.Answers, 1)
	assert.Equal(t, "bob", detail.Answers[0].Username)

	// Searching "bees" matches the question content and the answer but
	// returns the question once.
	rec = s.do(t, http.MethodGet, "/question/list/?kw=bees", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Total)
	require.Len(t, list.Questions, 1)
	assert.Equal(t, id, list.Questions[0].ID)

	// Only the owner may delete.
	rec = s.do(t, http.MethodGet, "/question/delete/1", nil, bob)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/question/delete/1", nil, alice)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/question/list/", rec.Header().Get("Location"))

	rec = s.do(t, http.MethodGet, "/question/detail/1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDetailUnknownQuestion(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/question/detail/42", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSignupValidationResponse(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/auth/signup/", url.Values{
		"username":  {"alice"},
		"password1": {"secret"},
		"password2": {"different"},
		"email":     {"alice@example.com"},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "password2", body["field"])
}

func TestDuplicateSignupConflict(t *testing.T) {
	s := newTestServer(t)
	s.signupAndLogin(t, "alice")

	rec := s.do(t, http.MethodPost, "/auth/signup/", url.Values{
		"username":  {"alice"},
		"password1": {"secret"},
		"password2": {"secret"},
		"email":     {"other@example.com"},
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestInvalidSessionCookieIsAnonymous(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/question/create/", nil, &http.Cookie{Name: sessionCookie, Value: "garbage"})
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "/auth/login/")
}
