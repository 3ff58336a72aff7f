package router

import (
	"strings"
	"time"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/MioNatsuki/sistema-emision/internal/config"
	"github.com/MioNatsuki/sistema-emision/internal/handler"
	"github.com/MioNatsuki/sistema-emision/internal/infra"
	"github.com/MioNatsuki/sistema-emision/internal/middleware"
	"github.com/MioNatsuki/sistema-emision/internal/repository"
	"github.com/MioNatsuki/sistema-emision/internal/service"
	"github.com/MioNatsuki/sistema-emision/internal/token"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis/FileStore
// rdb may be nil; the field cache then runs in-process only.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, store infra.FileStore) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.MaxMultipartMemory = cfg.LogoMaxBytes + 1<<20

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(splitOrigins(cfg.CORSOrigins)))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	bitacoraRepo := repository.NewBitacoraRepository(db)
	padronRepo := repository.NewPadronRepository(db)
	padronDatosRepo := repository.NewPadronDatosRepository(db)
	proyectoRepo := repository.NewProyectoRepository(db)
	plantillaRepo := repository.NewPlantillaRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	bitacoraSvc := service.NewBitacoraService(bitacoraRepo)
	authSvc := service.NewAuthService(
		usuarioRepo,
		bitacoraSvc,
		token.NewIssuer(cfg.JWTSecret, cfg.JWTExpiration()),
		service.NewBcryptHasher(cfg.BcryptCost),
	)
	proyectoSvc := service.NewProyectoService(proyectoRepo, padronRepo, store, bitacoraSvc, cfg.LogoMaxBytes)

	plantillaOpts := []service.PlantillaOption{
		service.WithColumnasCache(infra.NewColumnasCache(rdb, cfg.FieldsCacheTTL())),
	}
	if local, ok := store.(*infra.LocalFileStore); ok {
		plantillaOpts = append(plantillaOpts, service.WithImagenResolver(local.Imagenes()))
	}
	plantillaSvc := service.NewPlantillaService(
		plantillaRepo, proyectoRepo, padronRepo, padronDatosRepo, bitacoraSvc, plantillaOpts...,
	)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	proyectosH := handler.NewProyectosHandler(proyectoSvc)
	plantillasH := handler.NewPlantillasHandler(plantillaSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	api := r.Group("/api/v1")

	// Auth (public)
	auth := api.Group("/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/register", authH.Register)
	}

	// Protected routes
	v1 := api.Group("", middleware.JWTAuth(authSvc))
	{
		v1.GET("/auth/me", authH.Me)
		v1.POST("/auth/logout", authH.Logout)

		proyectos := v1.Group("/proyectos")
		{
			proyectos.GET("/padrones", proyectosH.Padrones)
			proyectos.GET("", proyectosH.Listar)
			proyectos.POST("", proyectosH.Crear)
			proyectos.GET("/:id", proyectosH.Obtener)
			proyectos.PUT("/:id", proyectosH.Actualizar)
			proyectos.DELETE("/:id", proyectosH.Eliminar)
			proyectos.POST("/:id/logo", proyectosH.SubirLogo)
		}

		plantillas := v1.Group("/plantillas")
		{
			plantillas.POST("", plantillasH.Crear)
			plantillas.GET("/proyecto/:proyecto_id", plantillasH.ListarPorProyecto)
			plantillas.GET("/padron/:nombre/columnas", plantillasH.Columnas)
			plantillas.GET("/:id", plantillasH.Obtener)
			plantillas.PUT("/:id", plantillasH.Actualizar)
			plantillas.DELETE("/:id", plantillasH.Eliminar)
			plantillas.GET("/:id/preview", plantillasH.Preview)
			plantillas.GET("/:id/preview.pdf", plantillasH.PreviewPDF)
		}
	}

	// Swagger UI, only outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}

func splitOrigins(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
