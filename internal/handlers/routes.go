package handlers

import (
	"net/http"
	"time"

	"github.com/cliptube/backend/internal/auth"
	"github.com/cliptube/backend/internal/media"
	"github.com/cliptube/backend/internal/middleware"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users          UserStore
	Sessions       SessionService
	Videos         VideoStore
	Tweets         TweetStore
	Comments       CommentStore
	Likes          LikeStore
	Subscriptions  SubscriptionStore
	Playlists      PlaylistStore
	Stats          StatsProvider
	Ingestor       VideoIngestor
	Media          media.AssetStorage
	Issuer         *auth.Issuer
	DB             Pinger
	MaxUploadBytes int64
	NowFunc        func() time.Time
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux. Protected
// routes sit behind the strict authentication middleware; public video and
// channel reads use the lenient variant so signed-in viewers still get
// personalized behavior.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	authn := middleware.Authenticate(deps.Issuer, deps.Users)
	identify := middleware.Identify(deps.Issuer, deps.Users)

	authH := AuthHandler{
		Users:          deps.Users,
		Sessions:       deps.Sessions,
		Media:          deps.Media,
		MaxUploadBytes: deps.MaxUploadBytes,
		NowFunc:        deps.NowFunc,
	}
	users := UserHandler{
		Users:          deps.Users,
		Media:          deps.Media,
		MaxUploadBytes: deps.MaxUploadBytes,
		NowFunc:        deps.NowFunc,
	}
	videos := VideoHandler{
		Videos:         deps.Videos,
		Users:          deps.Users,
		Ingestor:       deps.Ingestor,
		MaxUploadBytes: deps.MaxUploadBytes,
		NowFunc:        deps.NowFunc,
	}
	tweets := TweetHandler{Tweets: deps.Tweets, NowFunc: deps.NowFunc}
	comments := CommentHandler{Comments: deps.Comments, Videos: deps.Videos, NowFunc: deps.NowFunc}
	likes := LikeHandler{Likes: deps.Likes, NowFunc: deps.NowFunc}
	subscriptions := SubscriptionHandler{Subscriptions: deps.Subscriptions, NowFunc: deps.NowFunc}
	playlists := PlaylistHandler{Playlists: deps.Playlists, NowFunc: deps.NowFunc}
	dashboard := DashboardHandler{Stats: deps.Stats}
	health := HealthHandler{DB: deps.DB}

	mux.HandleFunc("GET /api/v1/healthcheck", health.Check)

	mux.HandleFunc("POST /api/v1/users/register", authH.Register)
	mux.HandleFunc("POST /api/v1/users/login", authH.Login)
	mux.HandleFunc("POST /api/v1/users/refresh-token", authH.Refresh)
	mux.Handle("POST /api/v1/users/logout", authn(http.HandlerFunc(authH.Logout)))

	mux.Handle("GET /api/v1/users/current-user", authn(http.HandlerFunc(users.CurrentUser)))
	mux.Handle("POST /api/v1/users/change-password", authn(http.HandlerFunc(users.ChangePassword)))
	mux.Handle("PATCH /api/v1/users/update-account", authn(http.HandlerFunc(users.UpdateAccount)))
	mux.Handle("PATCH /api/v1/users/avatar", authn(http.HandlerFunc(users.UpdateAvatar)))
	mux.Handle("PATCH /api/v1/users/cover-image", authn(http.HandlerFunc(users.UpdateCoverImage)))
	mux.Handle("GET /api/v1/users/c/{username}", identify(http.HandlerFunc(users.ChannelProfile)))
	mux.Handle("GET /api/v1/users/history", authn(http.HandlerFunc(users.WatchHistory)))

	mux.HandleFunc("GET /api/v1/videos", videos.List)
	mux.Handle("GET /api/v1/videos/{videoId}", identify(http.HandlerFunc(videos.Get)))
	mux.Handle("POST /api/v1/videos", authn(http.HandlerFunc(videos.Publish)))
	mux.Handle("PATCH /api/v1/videos/{videoId}", authn(http.HandlerFunc(videos.Update)))
	mux.Handle("DELETE /api/v1/videos/{videoId}", authn(http.HandlerFunc(videos.Delete)))
	mux.Handle("PATCH /api/v1/videos/toggle/publish/{videoId}", authn(http.HandlerFunc(videos.TogglePublish)))

	mux.Handle("POST /api/v1/tweets", authn(http.HandlerFunc(tweets.Create)))
	mux.HandleFunc("GET /api/v1/tweets/user/{userId}", tweets.ListByUser)
	mux.Handle("PATCH /api/v1/tweets/{tweetId}", authn(http.HandlerFunc(tweets.Update)))
	mux.Handle("DELETE /api/v1/tweets/{tweetId}", authn(http.HandlerFunc(tweets.Delete)))

	mux.HandleFunc("GET /api/v1/comments/{videoId}", comments.ListByVideo)
	mux.Handle("POST /api/v1/comments/{videoId}", authn(http.HandlerFunc(comments.Create)))
	mux.Handle("PATCH /api/v1/comments/c/{commentId}", authn(http.HandlerFunc(comments.Update)))
	mux.Handle("DELETE /api/v1/comments/c/{commentId}", authn(http.HandlerFunc(comments.Delete)))

	mux.Handle("POST /api/v1/likes/toggle/v/{videoId}", authn(http.HandlerFunc(likes.ToggleVideo)))
	mux.Handle("POST /api/v1/likes/toggle/c/{commentId}", authn(http.HandlerFunc(likes.ToggleComment)))
	mux.Handle("POST /api/v1/likes/toggle/t/{tweetId}", authn(http.HandlerFunc(likes.ToggleTweet)))
	mux.Handle("GET /api/v1/likes/videos", authn(http.HandlerFunc(likes.LikedVideos)))

	mux.Handle("POST /api/v1/subscriptions/c/{channelId}", authn(http.HandlerFunc(subscriptions.Toggle)))
	mux.Handle("GET /api/v1/subscriptions/c/{channelId}", authn(http.HandlerFunc(subscriptions.Subscribers)))
	mux.Handle("GET /api/v1/subscriptions/u/{subscriberId}", authn(http.HandlerFunc(subscriptions.SubscribedChannels)))

	mux.Handle("POST /api/v1/playlists", authn(http.HandlerFunc(playlists.Create)))
	mux.HandleFunc("GET /api/v1/playlists/{playlistId}", playlists.Get)
	mux.HandleFunc("GET /api/v1/playlists/user/{userId}", playlists.ListByUser)
	mux.Handle("PATCH /api/v1/playlists/{playlistId}", authn(http.HandlerFunc(playlists.Update)))
	mux.Handle("PATCH /api/v1/playlists/add/{videoId}/{playlistId}", authn(http.HandlerFunc(playlists.AddVideo)))
	mux.Handle("PATCH /api/v1/playlists/remove/{videoId}/{playlistId}", authn(http.HandlerFunc(playlists.RemoveVideo)))
	mux.Handle("DELETE /api/v1/playlists/{playlistId}", authn(http.HandlerFunc(playlists.Delete)))

	mux.Handle("GET /api/v1/dashboard/stats", authn(http.HandlerFunc(dashboard.Totals)))
}
