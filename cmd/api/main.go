package main

import (
	"context"
	"fmt"
	"log"
	"time"

	common_api "go-lms/internal/common/api"
	"go-lms/internal/config"
	"go-lms/internal/database"
	"go-lms/internal/features/auth"
	"go-lms/internal/features/group"
	"go-lms/internal/features/message"
	"go-lms/internal/features/news"
	"go-lms/internal/features/progress"
	"go-lms/internal/features/realtime"
	"go-lms/internal/features/report"
	"go-lms/internal/features/scheduler"
	"go-lms/internal/features/user"
	"go-lms/internal/logger"
	"go-lms/internal/middleware"
	"go-lms/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(middleware.CORSMiddleware())

	return app
}

// AsRoute is a helper function to reduce boilerplate.
// It tags the constructor so Fx knows to add it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),    // Cast to Interface
		fx.ResultTags(`group:"routes"`), // Add to Group
	)
}

// RegisterAllRoutes takes the group "routes" (slice of interfaces)
// and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route) {
	for _, route := range routes {
		route.Setup(app)
	}
	log.Printf("Registered %d routes\n", len(routes))
}

// RegisterAllRoutesWithAnnotation wraps RegisterAllRoutes with fx annotations
var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`),
)

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

// InitializeIndexes ensures that necessary database indexes are created
func InitializeIndexes(lc fx.Lifecycle, userRepo user.UserRepository, progressRepo progress.ProgressRepository) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if err := userRepo.EnsureIndexes(ctx); err != nil {
					log.Printf("Failed to ensure user indexes: %v", err)
				}
				if err := progressRepo.EnsureIndexes(ctx); err != nil {
					log.Printf("Failed to ensure progress indexes: %v", err)
				}
			}()
			return nil
		},
	})
}

// membershipAdapter exposes the group service in the shape the realtime
// gateway consumes (ids only, no group documents).
type membershipAdapter struct {
	svc group.GroupService
}

func (a *membershipAdapter) GroupIDsForUser(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	groups, err := a.svc.GetGroupsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, len(groups))
	for i, g := range groups {
		ids[i] = g.ID
	}
	return ids, nil
}

func (a *membershipAdapter) IsMember(ctx context.Context, userID, groupID primitive.ObjectID) (bool, error) {
	return a.svc.IsMember(ctx, userID, groupID)
}

func main() {
	app := fx.New(
		fx.Provide(
			// Load Config
			config.LoadConfig,

			// Initialize Logger
			logger.NewLogger,

			// Initialize Fiber Server
			NewFiberServer,

			// Initialize Database
			database.NewDatabase,

			// Initialize Repositories
			user.NewUserRepository,
			group.NewGroupRepository,
			progress.NewProgressRepository,
			message.NewMessageRepository,
			news.NewNewsRepository,

			// Realtime layer
			realtime.NewHub,
			realtime.NewGateway,

			// Initialize Services
			auth.NewAuthService,
			user.NewUserService,
			group.NewGroupService,
			progress.NewProgressService,
			message.NewMessageService,
			news.NewNewsService,
			report.NewReportService,
			scheduler.NewScheduler,

			// Interface Adapters to satisfy Fx
			func() realtime.TokenVerifier { return realtime.TokenVerifierFunc(utils.ValidateToken) },
			func(r user.UserRepository) realtime.UserResolver { return r },
			func(s group.GroupService) realtime.Memberships { return &membershipAdapter{svc: s} },
			func(s group.GroupService) message.MembershipChecker { return s },
			func(g *realtime.Gateway) group.Broadcaster { return g },
			func(g *realtime.Gateway) message.Broadcaster { return g },
			func(g *realtime.Gateway) news.Broadcaster { return g },
			func(g *realtime.Gateway) progress.Broadcaster { return g },
			func(g *realtime.Gateway) scheduler.Broadcaster { return g },

			// Initialize Controllers
			auth.NewAuthController,
			user.NewUserController,
			group.NewGroupController,
			progress.NewProgressController,
			message.NewMessageController,
			news.NewNewsController,
			report.NewReportController,

			// Initialize API Routes
			AsRoute(auth.NewAuthApi),
			AsRoute(user.NewUserApi),
			AsRoute(group.NewGroupApi),
			AsRoute(progress.NewProgressApi),
			AsRoute(message.NewMessageApi),
			AsRoute(news.NewNewsApi),
			AsRoute(report.NewReportApi),
			AsRoute(realtime.NewWebSocketApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			func(cfg *config.Config) {
				utils.SetSecret(cfg.JWTSecret)
			},

			// Register Routes & Start
			RegisterAllRoutesWithAnnotation,
			StartServer,
			func(lc fx.Lifecycle, sched *scheduler.Scheduler) {
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						return sched.Start(ctx)
					},
					OnStop: func(ctx context.Context) error {
						return sched.Stop()
					},
				})
			},
			InitializeIndexes,
		),
	)

	app.Run()
}
