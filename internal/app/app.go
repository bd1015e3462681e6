package app

import (
	"labstock-backend/internal/activity"
	"labstock-backend/internal/auth"
	"labstock-backend/internal/authtoken"
	"labstock-backend/internal/config"
	"labstock-backend/internal/database"
	"labstock-backend/internal/health"
	"labstock-backend/internal/items"
	"labstock-backend/internal/labs"
	"labstock-backend/internal/locations"
	"labstock-backend/internal/membership"
	"labstock-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// CreateApp builds the Fiber app with all global middleware and routes.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLSuffix,
		DevPassword:   cfg.DevPassword,
	}))

	sessionCfg := middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		RedisURL:          cfg.RedisURL,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.Env == "production",
	}
	sessionHandler, rdb, err := middleware.Session(sessionCfg)
	if err != nil {
		return nil, nil, nil, err
	}
	app.Use(sessionHandler)

	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		db, err = database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := database.AutoMigrate(db); err != nil {
			return nil, nil, nil, err
		}
	}

	healthHandlers := &health.Handlers{DB: db, Rdb: rdb}
	app.Get("/health", healthHandlers.Check)

	if db == nil {
		return app, db, rdb, nil
	}

	tokens := &authtoken.Codec{Secret: []byte(cfg.MobileTokenSecret), Rdb: rdb}
	app.Use(middleware.ResolveIdentity(db, tokens))

	activityService := &activity.Service{DB: db}
	memberService := &membership.Service{DB: db, Activities: activityService}
	labService := &labs.Service{DB: db, Members: memberService, Activities: activityService}
	locationService := &locations.Service{DB: db, Members: memberService, Activities: activityService}
	itemService := &items.Service{DB: db, Members: memberService, Activities: activityService}
	authService := &auth.Service{DB: db}

	authHandlers := &auth.Handlers{Service: authService, Tokens: tokens, Rdb: rdb, Config: sessionCfg}
	authGroup := app.Group("/api/v1/auth")
	authGroup.Post("/signup", authHandlers.Signup)
	authGroup.Post("/login", authHandlers.Login)
	authGroup.Post("/mobile/signin", authHandlers.MobileSignin)
	authGroup.Get("/me", authHandlers.Me)
	authGroup.Delete("/logout", authHandlers.Logout)

	labHandlers := &labs.Handlers{Service: labService}
	labGroup := app.Group("/api/v1/labs", middleware.RequireIdentity())
	labGroup.Get("/", labHandlers.List)
	labGroup.Post("/", labHandlers.Create)
	labGroup.Get("/:labId", labHandlers.Get)
	labGroup.Patch("/:labId", labHandlers.Update)
	labGroup.Delete("/:labId", labHandlers.Delete)

	locationHandlers := &locations.Handlers{Service: locationService}
	labGroup.Get("/:labId/locations", locationHandlers.List)
	labGroup.Post("/:labId/locations", locationHandlers.Create)
	labGroup.Patch("/:labId/locations/:locationId", locationHandlers.Update)
	labGroup.Delete("/:labId/locations/:locationId", locationHandlers.Delete)
	labGroup.Get("/:labId/locations/:locationId/breadcrumb", locationHandlers.Breadcrumb)

	itemHandlers := &items.Handlers{Service: itemService}
	labGroup.Get("/:labId/items", itemHandlers.List)
	labGroup.Post("/:labId/items", itemHandlers.Create)
	labGroup.Get("/:labId/items/:itemId", itemHandlers.Get)
	labGroup.Put("/:labId/items/:itemId", itemHandlers.Update)
	labGroup.Delete("/:labId/items/:itemId", itemHandlers.Delete)
	labGroup.Post("/:labId/items/:itemId/move", itemHandlers.Move)
	labGroup.Get("/:labId/items/:itemId/movements", itemHandlers.Movements)
	labGroup.Get("/:labId/expiring", itemHandlers.Expiring)

	activityHandlers := &activity.Handlers{Service: activityService, Members: memberService}
	labGroup.Get("/:labId/activities", activityHandlers.List)

	memberHandlers := &membership.Handlers{Service: memberService}
	labGroup.Get("/:labId/members", memberHandlers.ListMembers)
	labGroup.Delete("/:labId/members/:userId", memberHandlers.RemoveMember)
	labGroup.Post("/:labId/invites", memberHandlers.CreateInvite)
	app.Post("/api/v1/invites/join", middleware.RequireIdentity(), memberHandlers.Join)

	return app, db, rdb, nil
}
