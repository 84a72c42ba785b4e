package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cliptube/backend/internal/models"
)

func seedTweet(store *inMemoryTweetStore, id, ownerID, content string) models.Tweet {
	tweet := models.Tweet{
		ID:        id,
		OwnerID:   ownerID,
		Content:   content,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	store.tweets[id] = tweet
	return tweet
}

func tweetRequest(method, target, content string, identity models.User) *http.Request {
	var req *http.Request
	if content != "" {
		body, _ := json.Marshal(map[string]string{"content": content})
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	return withIdentity(req, identity)
}

func TestTweetHandlerCreate(t *testing.T) {
	store := newInMemoryTweetStore()
	handler := TweetHandler{Tweets: store}
	alice := models.User{ID: "user-1", Username: "alice", Role: models.RoleUser}

	req := tweetRequest(http.MethodPost, "/api/v1/tweets", "hello world", alice)
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}
	if len(store.tweets) != 1 {
		t.Fatalf("expected one stored tweet, got %d", len(store.tweets))
	}
	for _, tweet := range store.tweets {
		if tweet.OwnerID != "user-1" {
			t.Fatalf("expected owner user-1, got %q", tweet.OwnerID)
		}
	}
}

func TestTweetHandlerCreateValidation(t *testing.T) {
	store := newInMemoryTweetStore()
	handler := TweetHandler{Tweets: store}
	alice := models.User{ID: "user-1", Role: models.RoleUser}

	long := make([]byte, maxTweetLength+1)
	for i := range long {
		long[i] = 'a'
	}

	cases := []struct {
		name    string
		content string
	}{
		{"empty content", "   "},
		{"too long", string(long)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := tweetRequest(http.MethodPost, "/api/v1/tweets", tc.content, alice)
			rec := httptest.NewRecorder()

			handler.Create(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
			}
		})
	}
}

func TestTweetHandlerUpdateOwnership(t *testing.T) {
	store := newInMemoryTweetStore()
	handler := TweetHandler{Tweets: store}
	seedTweet(store, "tweet-1", "user-1", "original")

	alice := models.User{ID: "user-1", Role: models.RoleUser}
	bob := models.User{ID: "user-2", Role: models.RoleUser}
	carol := models.User{ID: "user-3", Role: models.RoleAdmin}

	run := func(identity models.User) int {
		req := tweetRequest(http.MethodPatch, "/api/v1/tweets/tweet-1", "edited", identity)
		req.SetPathValue("tweetId", "tweet-1")
		rec := httptest.NewRecorder()
		handler.Update(rec, req)
		return rec.Code
	}

	if code := run(bob); code != http.StatusForbidden {
		t.Fatalf("expected non-owner update to return 403, got %d", code)
	}
	// Admin override applies to deletes only.
	if code := run(carol); code != http.StatusForbidden {
		t.Fatalf("expected admin update to return 403, got %d", code)
	}
	if code := run(alice); code != http.StatusOK {
		t.Fatalf("expected owner update to return 200, got %d", code)
	}
	if store.tweets["tweet-1"].Content != "edited" {
		t.Fatalf("expected content to be updated, got %q", store.tweets["tweet-1"].Content)
	}
}

func TestTweetHandlerDeleteOwnership(t *testing.T) {
	store := newInMemoryTweetStore()
	handler := TweetHandler{Tweets: store}

	alice := models.User{ID: "user-1", Role: models.RoleUser}
	bob := models.User{ID: "user-2", Role: models.RoleUser}
	carol := models.User{ID: "user-3", Role: models.RoleAdmin}

	run := func(tweetID string, identity models.User) int {
		req := tweetRequest(http.MethodDelete, "/api/v1/tweets/"+tweetID, "", identity)
		req.SetPathValue("tweetId", tweetID)
		rec := httptest.NewRecorder()
		handler.Delete(rec, req)
		return rec.Code
	}

	seedTweet(store, "tweet-1", "user-1", "first")
	if code := run("tweet-1", bob); code != http.StatusForbidden {
		t.Fatalf("expected non-owner delete to return 403, got %d", code)
	}
	if code := run("tweet-1", alice); code != http.StatusOK {
		t.Fatalf("expected owner delete to return 200, got %d", code)
	}

	seedTweet(store, "tweet-2", "user-1", "second")
	if code := run("tweet-2", carol); code != http.StatusOK {
		t.Fatalf("expected admin delete to return 200, got %d", code)
	}
}

func TestTweetHandlerMissingTweetIs404BeforePermission(t *testing.T) {
	store := newInMemoryTweetStore()
	handler := TweetHandler{Tweets: store}
	bob := models.User{ID: "user-2", Role: models.RoleUser}

	// A non-owner probing a nonexistent id sees 404, not 403.
	req := tweetRequest(http.MethodDelete, "/api/v1/tweets/ghost", "", bob)
	req.SetPathValue("tweetId", "ghost")
	rec := httptest.NewRecorder()

	handler.Delete(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d got %d", http.StatusNotFound, rec.Code)
	}
}
