package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"gotramite/config"
	"gotramite/internal/pkg/cache"
	"gotramite/internal/pkg/database"
	"gotramite/internal/pkg/logger"
	"gotramite/internal/pkg/token"

	"gotramite/internal/api/dashboard"
	"gotramite/internal/api/feriado"
	"gotramite/internal/api/oficina"
	"gotramite/internal/api/router"
	"gotramite/internal/api/tipodoc"
	"gotramite/internal/api/tramite"
	"gotramite/internal/api/user"

	"gotramite/internal/repository/feriadorepo"
	"gotramite/internal/repository/oficinarepo"
	"gotramite/internal/repository/tipodocrepo"
	"gotramite/internal/repository/tramiterepo"
	"gotramite/internal/repository/userrepo"

	"gotramite/internal/service/dashboardservice"
	"gotramite/internal/service/feriadoservice"
	"gotramite/internal/service/movimientoservice"
	"gotramite/internal/service/numeracion"
	"gotramite/internal/service/oficinaservice"
	"gotramite/internal/service/plazoservice"
	"gotramite/internal/service/tipodocservice"
	"gotramite/internal/service/tramiteservice"
	"gotramite/internal/service/userservice"
)

func main() {
	stdlog.Println("⚡ Inicializando servicio GoTramite...")

	// Cargar variables de entorno (.env). Si el archivo no existe seguimos:
	// las variables pueden venir del ambiente del sistema (e.g., Docker).
	if err := godotenv.Load(); err != nil {
		stdlog.Println("⚠️ Aviso: archivo .env no encontrado. Cargando configs del ambiente del sistema.")
	}

	cfg := config.LoadConfig()
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("Configuraciones cargadas.", nil)

	// --- Infraestructura ---

	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Falla al conectar al banco de datos.", err)
	}
	defer db.Close()
	log.Info("Conexión PostgreSQL establecida.", nil)

	cacheClient := cache.NewRedisClient(cfg.RedisAddr)
	log.Info("Conexión Redis establecida.", nil)

	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)

	// --- Inyección de dependencias: Repository -> Service -> Handler ---

	oficinaRepo := oficinarepo.NewOficinaRepository(db, cfg.DBTimeout, log)
	tipoDocRepo := tipodocrepo.NewTipoDocumentoRepository(db, cacheClient, cfg.DBTimeout, log)
	feriadoRepo := feriadorepo.NewFeriadoRepository(db, cfg.DBTimeout, log)
	tramiteRepo := tramiterepo.NewTramiteRepository(db, cfg.DBTimeout, log)
	userRepo := userrepo.NewUserRepository(db, cfg.DBTimeout, log)

	plazoSvc := plazoservice.NewService(feriadoRepo, log)
	numeracionSvc := numeracion.NewService(oficinaRepo)
	oficinaSvc := oficinaservice.NewService(oficinaRepo, log)
	tipoDocSvc := tipodocservice.NewService(tipoDocRepo, log)
	feriadoSvc := feriadoservice.NewService(feriadoRepo, plazoSvc, log)
	tramiteSvc := tramiteservice.NewService(tramiteRepo, oficinaRepo, tipoDocRepo, numeracionSvc, plazoSvc, log)
	movimientoSvc := movimientoservice.NewService(tramiteRepo, oficinaRepo, tipoDocRepo, numeracionSvc, cfg.RootOfficeSiglas, log)
	dashboardSvc := dashboardservice.NewService(tramiteRepo, log)
	userSvc := userservice.NewService(userRepo, tokenSvc, oficinaRepo)

	// Snapshot inicial de feriados + refresco periódico. Una recarga
	// fallida conserva el snapshot vigente.
	ctxCarga, cancelCarga := context.WithTimeout(context.Background(), cfg.DBTimeout)
	if err := plazoSvc.Recargar(ctxCarga); err != nil {
		log.Warn("El snapshot inicial de feriados no pudo cargarse; se reintentará en el ciclo periódico.", nil)
	}
	cancelCarga()

	recargaDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(cfg.FeriadosReload)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), cfg.DBTimeout)
				plazoSvc.Recargar(ctx)
				cancel()
			case <-recargaDone:
				return
			}
		}
	}()

	tramiteHandler := tramite.NewHandler(tramiteSvc, movimientoSvc, log)
	oficinaHandler := oficina.NewHandler(oficinaSvc, log)
	tipoDocHandler := tipodoc.NewHandler(tipoDocSvc, log)
	feriadoHandler := feriado.NewHandler(feriadoSvc, log)
	dashHandler := dashboard.NewHandler(dashboardSvc, log)
	userHandler := user.NewHandler(userSvc, log)

	r := router.NewRouter(router.Deps{
		TramiteHandler:       tramiteHandler,
		OficinaHandler:       oficinaHandler,
		TipoDocHandler:       tipoDocHandler,
		FeriadoHandler:       feriadoHandler,
		DashHandler:          dashHandler,
		UserHandler:          userHandler,
		TokenSvc:             tokenSvc,
		CacheClient:          cacheClient,
		RateLimitMaxRequests: cfg.RateLimitMaxRequests,
		RateLimitPeriod:      cfg.RateLimitPeriod,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Servidor GoTramite escuchando en el puerto", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("El servidor falló.", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Señal de cierre recibida. Apagando servidor...", nil)
	close(recargaDone)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Apagado del servidor forzado.", err)
	}

	log.Info("Servidor cerrado con éxito.", nil)
}
