package router

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mswierczewski/socialwall/internal/http/handler"
	"github.com/mswierczewski/socialwall/internal/http/middleware"
	"github.com/mswierczewski/socialwall/internal/http/response"
)

type Dependencies struct {
	AuthHandler *handler.AuthHandler
	UserHandler *handler.UserHandler
	PostHandler *handler.PostHandler
	Sessions    middleware.TokenValidator
	Logger      *slog.Logger

	// APILimiter guards every /api route; AuthLimiter additionally guards the
	// credential endpoints. Either may be nil.
	APILimiter  func(http.Handler) http.Handler
	AuthLimiter func(http.Handler) http.Handler

	// Readiness reports whether backing dependencies can serve traffic.
	Readiness      func(ctx context.Context) error
	EnableOTelHTTP bool
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.StructuredRequestLogger(dep.Logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.BodyLimit(32 << 20))

	authLimiter := dep.AuthLimiter
	if authLimiter == nil {
		authLimiter = passthrough
	}

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if dep.Readiness != nil {
			if err := dep.Readiness(r.Context()); err != nil {
				response.Error(w, r, http.StatusServiceUnavailable, "DEPENDENCY_UNREADY", "dependencies are not ready", nil)
				return
			}
		}
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
	})

	r.Route("/api", func(r chi.Router) {
		if dep.APILimiter != nil {
			r.Use(dep.APILimiter)
		}
		r.Use(middleware.Authenticate(dep.Sessions))

		r.Route("/auth", func(r chi.Router) {
			r.With(authLimiter).Post("/signUp", dep.AuthHandler.SignUp)
			r.With(authLimiter).Post("/signIn", dep.AuthHandler.SignIn)
			r.Post("/signOut", dep.AuthHandler.SignOut)
			r.Get("/activateAccount/{token}", dep.AuthHandler.ActivateAccount)
			r.Get("/existsByUsername/{username}", dep.AuthHandler.ExistsByUsername)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/basicInfo/{id}", dep.UserHandler.BasicInfo)
			r.Get("/findBy", dep.UserHandler.FindByName)
			r.Get("/followers/{id}", dep.UserHandler.Followers)
			r.Get("/following/{id}", dep.UserHandler.Following)
			r.Get("/profileImage/download/{id}", dep.UserHandler.DownloadProfileImage)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Get("/currentUser", dep.UserHandler.CurrentUser)
				r.Get("/isFollowing/{id}", dep.UserHandler.IsFollowing)
				r.Post("/editProfile", dep.UserHandler.EditProfile)
				r.Post("/follow/{id}", dep.UserHandler.Follow)
				r.Post("/unfollow/{id}", dep.UserHandler.Unfollow)
				r.Post("/profileImage/upload", dep.UserHandler.UploadProfileImage)
			})

			r.Get("/{id}", dep.UserHandler.Info)
		})

		r.Route("/posts", func(r chi.Router) {
			r.Get("/byUser/{id}", dep.PostHandler.ByUser)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Post("/", dep.PostHandler.Create)
				r.Get("/forUser", dep.PostHandler.Feed)
				r.Delete("/{id}", dep.PostHandler.Delete)
				r.Post("/{id}/comments", dep.PostHandler.AddComment)
			})

			r.Get("/{id}", dep.PostHandler.Get)
			r.Get("/{id}/images/{imageId}", dep.PostHandler.DownloadImage)
			r.Get("/{id}/comments", dep.PostHandler.Comments)
		})

		r.Get("/comments/{id}", dep.PostHandler.GetComment)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Delete("/comments/{id}", dep.PostHandler.DeleteComment)
			r.Post("/votes", dep.PostHandler.Vote)
			r.Get("/votes/byPost/{id}", dep.PostHandler.VotesByPost)
			r.Delete("/votes/{targetType}/{id}", dep.PostHandler.Unvote)
		})
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}

func passthrough(next http.Handler) http.Handler { return next }
