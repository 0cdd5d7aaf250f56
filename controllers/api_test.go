package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Kirill-Khudyakov/shotline/models"
	"github.com/Kirill-Khudyakov/shotline/routes"
	"github.com/Kirill-Khudyakov/shotline/store"
	"github.com/Kirill-Khudyakov/shotline/utils"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "shotline-test-")
	if err != nil {
		panic(err)
	}
	os.Setenv("JWT_SECRET", "test-secret")
	os.Setenv("RATE_LIMIT_PER_MINUTE", "1000000")
	os.Setenv("GIN_MODE", "test")
	os.Setenv("MEDIA_ROOT", filepath.Join(dir, "media"))
	os.Setenv("GIN_PATH", filepath.Join(dir, "access.log"))
	os.Setenv("LOG_PATH", filepath.Join(dir, "app.log"))

	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestAPI(t *testing.T) (*gin.Engine, *store.Store) {
	t.Helper()
	dsn := fmt.Sprintf("file:api_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Post{}, &models.PostImage{}, &models.Like{}, &models.Comment{},
	))
	return routes.SetupRouter(db), store.New(db)
}

func do(t *testing.T, r *gin.Engine, method, path, token, contentType string, body io.Reader) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, payload interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	return do(t, r, method, path, token, "application/json", bytes.NewReader(b))
}

func register(t *testing.T, r *gin.Engine, username string) string {
	t.Helper()
	w, env := doJSON(t, r, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username": username,
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.Token)
	return data.Token
}

func superuserToken(t *testing.T, s *store.Store) string {
	t.Helper()
	user := &models.User{Username: "root", IsSuperuser: true}
	require.NoError(t, s.CreateUser(context.Background(), user))
	token, err := utils.GenerateToken(user.ID, user.Username, true, time.Hour)
	require.NoError(t, err)
	return token
}

func createPost(t *testing.T, r *gin.Engine, token, text string, imageCount int) uint {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("text", text))
	for i := 0; i < imageCount; i++ {
		fw, err := mw.CreateFormFile("images", fmt.Sprintf("shot%d.jpg", i))
		require.NoError(t, err)
		_, err = fw.Write([]byte("jpeg bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	w, env := do(t, r, http.MethodPost, "/api/v1/posts", token, mw.FormDataContentType(), &buf)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var data struct {
		Post struct {
			ID uint `json:"id"`
		} `json:"post"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.Post.ID
}

func TestCreatePostWithoutImage(t *testing.T) {
	r, _ := newTestAPI(t)
	token := register(t, r, "alice")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("text", "no pictures"))
	require.NoError(t, mw.Close())

	w, env := do(t, r, http.MethodPost, "/api/v1/posts", token, mw.FormDataContentType(), &buf)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Message, "at least one attached image")
}

func TestAnonymousMutationsAreUnauthorized(t *testing.T) {
	r, _ := newTestAPI(t)
	author := register(t, r, "alice")
	postID := createPost(t, r, author, "hello", 1)

	for _, req := range []struct {
		method, path string
	}{
		{http.MethodPost, "/api/v1/posts"},
		{http.MethodPut, fmt.Sprintf("/api/v1/posts/%d", postID)},
		{http.MethodDelete, fmt.Sprintf("/api/v1/posts/%d", postID)},
		{http.MethodPost, fmt.Sprintf("/api/v1/posts/%d/likes", postID)},
		{http.MethodPost, fmt.Sprintf("/api/v1/posts/%d/comments", postID)},
	} {
		w, _ := do(t, r, req.method, req.path, "", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", req.method, req.path)
	}

	// Reads stay public.
	w, _ := do(t, r, http.MethodGet, "/api/v1/posts", "", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = do(t, r, http.MethodGet, fmt.Sprintf("/api/v1/posts/%d", postID), "", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Like listing is the exception: it requires an authenticated caller.
	w, _ = do(t, r, http.MethodGet, fmt.Sprintf("/api/v1/posts/%d/likes", postID), "", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOwnershipDeniesStrangers(t *testing.T) {
	r, _ := newTestAPI(t)
	alice := register(t, r, "alice")
	bob := register(t, r, "bob")
	postID := createPost(t, r, alice, "mine", 1)

	w, env := doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/v1/posts/%d", postID), bob, gin.H{"text": "stolen"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, env.Message, "not owner")

	w, _ = do(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/posts/%d", postID), bob, "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Comment by alice, attacked by bob.
	w, env = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/posts/%d/comments", postID), alice, gin.H{"text": "first"})
	require.Equal(t, http.StatusCreated, w.Code)
	var commentData struct {
		Comment struct {
			ID uint `json:"id"`
		} `json:"comment"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &commentData))
	commentPath := fmt.Sprintf("/api/v1/posts/%d/comments/%d", postID, commentData.Comment.ID)

	w, _ = doJSON(t, r, http.MethodPut, commentPath, bob, gin.H{"text": "edited"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = do(t, r, http.MethodDelete, commentPath, bob, "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Like by alice, attacked by bob.
	w, env = do(t, r, http.MethodPost, fmt.Sprintf("/api/v1/posts/%d/likes", postID), alice, "", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var likeData struct {
		Like struct {
			ID uint `json:"id"`
		} `json:"like"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &likeData))

	w, _ = do(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/posts/%d/likes/%d", postID, likeData.Like.ID), bob, "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// The owner succeeds where the stranger was denied.
	w, _ = doJSON(t, r, http.MethodPut, commentPath, alice, gin.H{"text": "edited"})
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = do(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/posts/%d/likes/%d", postID, likeData.Like.ID), alice, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSuperuserOverride(t *testing.T) {
	r, s := newTestAPI(t)
	alice := register(t, r, "alice")
	root := superuserToken(t, s)

	postID := createPost(t, r, alice, "for the admin", 1)

	// Superuser may edit and delete another user's post...
	w, _ := doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/v1/posts/%d", postID), root, gin.H{"text": "moderated"})
	assert.Equal(t, http.StatusOK, w.Code)

	// ...but not another user's like.
	w, env := do(t, r, http.MethodPost, fmt.Sprintf("/api/v1/posts/%d/likes", postID), alice, "", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var likeData struct {
		Like struct {
			ID uint `json:"id"`
		} `json:"like"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &likeData))

	w, _ = do(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/posts/%d/likes/%d", postID, likeData.Like.ID), root, "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = do(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/posts/%d", postID), root, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDuplicateLikeConflict(t *testing.T) {
	r, _ := newTestAPI(t)
	alice := register(t, r, "alice")
	bob := register(t, r, "bob")
	postID := createPost(t, r, alice, "like me", 1)

	likePath := fmt.Sprintf("/api/v1/posts/%d/likes", postID)
	w, _ := do(t, r, http.MethodPost, likePath, bob, "", nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	w, env := do(t, r, http.MethodPost, likePath, bob, "", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, env.Message, "already liked")
}

func TestChildCreationOnMissingPost(t *testing.T) {
	r, _ := newTestAPI(t)
	bob := register(t, r, "bob")

	w, _ := do(t, r, http.MethodPost, "/api/v1/posts/9999/likes", bob, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = doJSON(t, r, http.MethodPost, "/api/v1/posts/9999/comments", bob, gin.H{"text": "hello?"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", "orphan.jpg")
	require.NoError(t, err)
	_, err = fw.Write([]byte("jpeg bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	w, _ = do(t, r, http.MethodPost, "/api/v1/posts/9999/images", bob, mw.FormDataContentType(), &buf)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestScenarioCreateLikeDeleteCascade(t *testing.T) {
	r, _ := newTestAPI(t)
	alice := register(t, r, "alice")
	bob := register(t, r, "bob")

	postID := createPost(t, r, alice, "hello", 1)
	postPath := fmt.Sprintf("/api/v1/posts/%d", postID)

	likesCount := func() float64 {
		w, env := do(t, r, http.MethodGet, postPath, "", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var data struct {
			Post struct {
				LikesCount float64 `json:"likes_count"`
				Images     []struct {
					ID uint `json:"id"`
				} `json:"images"`
			} `json:"post"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		return data.Post.LikesCount
	}

	assert.EqualValues(t, 0, likesCount())

	w, env := do(t, r, http.MethodPost, postPath+"/likes", bob, "", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var likeData struct {
		Like struct {
			ID uint `json:"id"`
		} `json:"like"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &likeData))
	assert.EqualValues(t, 1, likesCount())

	w, _ = do(t, r, http.MethodPost, postPath+"/likes", bob, "", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.EqualValues(t, 1, likesCount())

	// Fetch the image id before deleting.
	w, env = do(t, r, http.MethodGet, postPath, "", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var postData struct {
		Post struct {
			Images []struct {
				ID uint `json:"id"`
			} `json:"images"`
		} `json:"post"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &postData))
	require.Len(t, postData.Post.Images, 1)
	imageID := postData.Post.Images[0].ID

	w, _ = do(t, r, http.MethodDelete, postPath, alice, "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, r, http.MethodGet, postPath, "", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = do(t, r, http.MethodGet, fmt.Sprintf("%s/images/%d", postPath, imageID), "", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = do(t, r, http.MethodGet, fmt.Sprintf("%s/likes/%d", postPath, likeData.Like.ID), bob, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListPostsSearchOrderingPagination(t *testing.T) {
	r, _ := newTestAPI(t)
	alice := register(t, r, "alice")
	bob := register(t, r, "bob")

	first := createPost(t, r, alice, "sunset over the bridge", 1)
	second := createPost(t, r, bob, "morning coffee", 1)
	do(t, r, http.MethodPost, fmt.Sprintf("/api/v1/posts/%d/likes", second), alice, "", nil)

	type listing struct {
		Items []struct {
			ID uint `json:"id"`
		} `json:"items"`
		Pagination struct {
			Page       int   `json:"page"`
			PageSize   int   `json:"page_size"`
			Total      int64 `json:"total"`
			TotalPages int   `json:"total_pages"`
		} `json:"pagination"`
	}
	list := func(query string) listing {
		w, env := do(t, r, http.MethodGet, "/api/v1/posts"+query, "", "", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var data listing
		require.NoError(t, json.Unmarshal(env.Data, &data))
		return data
	}

	all := list("")
	assert.EqualValues(t, 2, all.Pagination.Total)
	assert.Equal(t, 10, all.Pagination.PageSize)

	found := list("?search=coffee")
	require.Len(t, found.Items, 1)
	assert.Equal(t, second, found.Items[0].ID)

	found = list("?search=alice")
	require.Len(t, found.Items, 1)
	assert.Equal(t, first, found.Items[0].ID)

	byLikes := list("?ordering=-likes_count")
	require.Len(t, byLikes.Items, 2)
	assert.Equal(t, second, byLikes.Items[0].ID)

	w, _ := do(t, r, http.MethodGet, "/api/v1/posts?ordering=bogus", "", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	paged := list("?page=2&page_size=1")
	assert.Len(t, paged.Items, 1)
	assert.Equal(t, 2, paged.Pagination.TotalPages)

	// Oversized page sizes clamp to the cap rather than reverting to the
	// default.
	capped := list("?page_size=500")
	assert.Equal(t, 100, capped.Pagination.PageSize)
	assert.Len(t, capped.Items, 2)
}

func TestImageAttachAndDelete(t *testing.T) {
	r, s := newTestAPI(t)
	alice := register(t, r, "alice")
	bob := register(t, r, "bob")
	root := superuserToken(t, s)
	postID := createPost(t, r, alice, "gallery", 1)

	attach := func(token string) (*httptest.ResponseRecorder, envelope) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("image", "extra.png")
		require.NoError(t, err)
		_, err = fw.Write([]byte("png bytes"))
		require.NoError(t, err)
		require.NoError(t, mw.Close())
		return do(t, r, http.MethodPost, fmt.Sprintf("/api/v1/posts/%d/images", postID), token, mw.FormDataContentType(), &buf)
	}

	// Any authenticated user may attach; ownership is only checked on
	// mutation of existing resources.
	w, env := attach(bob)
	require.Equal(t, http.StatusCreated, w.Code)
	var imgData struct {
		Image struct {
			ID  uint   `json:"id"`
			URL string `json:"url"`
		} `json:"image"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &imgData))
	assert.True(t, strings.HasPrefix(imgData.Image.URL, "/media/posts/images/"), imgData.Image.URL)

	imagePath := fmt.Sprintf("/api/v1/posts/%d/images/%d", postID, imgData.Image.ID)

	// Deleting belongs to the post author; bob attached it but does not own
	// the post.
	w, _ = do(t, r, http.MethodDelete, imagePath, bob, "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Superuser override applies to images.
	w, _ = do(t, r, http.MethodDelete, imagePath, root, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, r, http.MethodGet, imagePath, "", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	r, _ := newTestAPI(t)
	register(t, r, "alice")

	w, env := doJSON(t, r, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username": "alice",
		"password": "password123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, env.Message, "username already taken")
}

func TestLoginAndLogout(t *testing.T) {
	r, _ := newTestAPI(t)
	register(t, r, "alice")

	w, env := doJSON(t, r, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"username": "alice",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))

	w, _ = do(t, r, http.MethodGet, "/api/v1/auth/me", data.Token, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = doJSON(t, r, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"username": "alice",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, env.Message, "invalid username or password")
}
