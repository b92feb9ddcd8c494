package router

import (
	"time"

	"github.com/gonza-rom/jmr-stock-sub000/internal/auth"
	"github.com/gonza-rom/jmr-stock-sub000/internal/config"
	"github.com/gonza-rom/jmr-stock-sub000/internal/handler"
	"github.com/gonza-rom/jmr-stock-sub000/internal/infra"
	"github.com/gonza-rom/jmr-stock-sub000/internal/middleware"
	"github.com/gonza-rom/jmr-stock-sub000/internal/model"
	"github.com/gonza-rom/jmr-stock-sub000/internal/repository"
	"github.com/gonza-rom/jmr-stock-sub000/internal/service"
	"github.com/gonza-rom/jmr-stock-sub000/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the process-wide collaborators built in main.
// Redis, Dispatcher, MailerCB and the limiters may be nil.
type Deps struct {
	DB           *gorm.DB
	Redis        *redis.Client
	Authn        *auth.Authenticator
	Dispatcher   *worker.Dispatcher
	MailerCB     *infra.CircuitBreaker
	Limiter      *middleware.RateLimiter
	LoginLimiter *middleware.RateLimiter
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Ledger ← Repository ← DB/Redis
func New(cfg *config.Config, d Deps) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if d.Limiter == nil {
		d.Limiter = middleware.NewRateLimiter(1000, time.Minute, "Demasiadas solicitudes. Intente en 1 minuto.")
	}
	if d.LoginLimiter == nil {
		d.LoginLimiter = middleware.NewLoginRateLimiter()
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(d.Limiter.Handler())

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(d.DB)
	productoRepo := repository.NewProductoRepository(d.DB)
	movimientoRepo := repository.NewMovimientoRepository(d.DB)
	ventaRepo := repository.NewVentaRepository(d.DB)
	categoriaRepo := repository.NewCategoriaRepository(d.DB)
	proveedorRepo := repository.NewProveedorRepository(d.DB)
	historialPrecioRepo := repository.NewHistorialPrecioRepository(d.DB)
	estadisticasRepo := repository.NewEstadisticasRepository(d.DB)

	// ── Services ─────────────────────────────────────────────────────────────
	cache := infra.NewProductCache(d.Redis)
	ledger := service.NewStockLedger(productoRepo, movimientoRepo, ventaRepo, d.Dispatcher, cache)

	authSvc := service.NewAuthService(usuarioRepo, d.Authn)
	productoSvc := service.NewProductoService(productoRepo, historialPrecioRepo, categoriaRepo, proveedorRepo, ledger, cache)
	inventarioSvc := service.NewInventarioService(productoRepo, movimientoRepo, ledger)
	ventaSvc := service.NewVentaService(ventaRepo, ledger, d.Dispatcher, cfg.BusinessName)
	categoriaSvc := service.NewCategoriaService(categoriaRepo, productoRepo)
	proveedorSvc := service.NewProveedorService(proveedorRepo, productoRepo)
	estadisticasSvc := service.NewEstadisticasService(estadisticasRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usuariosH := handler.NewUsuariosHandler(authSvc)
	productosH := handler.NewProductosHandler(productoSvc)
	inventarioH := handler.NewInventarioHandler(inventarioSvc)
	ventasH := handler.NewVentasHandler(ventaSvc)
	categoriasH := handler.NewCategoriasHandler(categoriaSvc)
	proveedoresH := handler.NewProveedoresHandler(proveedorSvc)
	consultaH := handler.NewConsultaPreciosHandler(productoSvc)
	estadisticasH := handler.NewEstadisticasHandler(estadisticasSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(d.DB, d.Redis, d.MailerCB))

	authG := r.Group("/v1/auth")
	{
		authG.POST("/login", d.LoginLimiter.Handler(), authH.Login)
		authG.POST("/refresh", authH.Refresh)
	}

	// Price check, no auth required
	r.GET("/v1/precio/:codigo", consultaH.GetPrecioPorCodigo)

	// Protected routes
	v1 := r.Group("/v1", middleware.JWTAuth(d.Authn))
	anyRole := middleware.RequireRole(model.RolAdmin, model.RolEmpleado)
	adminOnly := middleware.RequireRole(model.RolAdmin)
	{
		v1.GET("/auth/me", authH.Me)

		prods := v1.Group("/productos")
		{
			prods.GET("", anyRole, productosH.Listar)
			prods.GET("/:id", anyRole, productosH.ObtenerPorID)
			prods.GET("/:id/historial-precios", anyRole, productosH.HistorialPrecios)
			prods.POST("", adminOnly, productosH.Crear)
			prods.PUT("/:id", adminOnly, productosH.Actualizar)
			prods.DELETE("/:id", adminOnly, productosH.Desactivar)
			prods.PATCH("/:id/reactivar", adminOnly, productosH.Reactivar)
		}

		v1.GET("/inventario/alertas", anyRole, inventarioH.ObtenerAlertas)

		movs := v1.Group("/movimientos")
		{
			movs.GET("", anyRole, inventarioH.ListarMovimientos)
			movs.GET("/:id", anyRole, inventarioH.ObtenerMovimiento)
			movs.POST("", anyRole, inventarioH.RegistrarMovimiento)
			movs.PUT("/:id", adminOnly, inventarioH.EditarMovimiento)
			movs.POST("/:id/cancelar", adminOnly, inventarioH.CancelarMovimiento)
		}

		ventas := v1.Group("/ventas")
		{
			ventas.POST("", anyRole, ventasH.RegistrarVenta)
			ventas.GET("", anyRole, ventasH.ListarVentas)
			ventas.GET("/:id", anyRole, ventasH.ObtenerVenta)
			ventas.GET("/:id/ticket", anyRole, ventasH.Ticket)
			ventas.POST("/:id/anular", adminOnly, ventasH.AnularVenta)
		}

		cats := v1.Group("/categorias")
		{
			cats.GET("", anyRole, categoriasH.Listar)
			cats.POST("", adminOnly, categoriasH.Crear)
			cats.PUT("/:id", adminOnly, categoriasH.Actualizar)
			cats.DELETE("/:id", adminOnly, categoriasH.Desactivar)
		}

		prov := v1.Group("/proveedores")
		{
			prov.GET("", anyRole, proveedoresH.Listar)
			prov.GET("/:id", anyRole, proveedoresH.ObtenerPorID)
			prov.POST("", adminOnly, proveedoresH.Crear)
			prov.PUT("/:id", adminOnly, proveedoresH.Actualizar)
			prov.DELETE("/:id", adminOnly, proveedoresH.Eliminar)
		}

		usuarios := v1.Group("/usuarios", adminOnly)
		{
			usuarios.POST("", usuariosH.Crear)
			usuarios.GET("", usuariosH.Listar)
			usuarios.PUT("/:id", usuariosH.Actualizar)
			usuarios.DELETE("/:id", usuariosH.Desactivar)
			usuarios.PATCH("/:id/reactivar", usuariosH.Reactivar)
		}

		v1.GET("/estadisticas/resumen", adminOnly, estadisticasH.Resumen)
	}

	// Swagger UI only outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
