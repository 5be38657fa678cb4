package router

import (
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	"gotramite/internal/api/dashboard"
	"gotramite/internal/api/feriado"
	"gotramite/internal/api/oficina"
	"gotramite/internal/api/tipodoc"
	"gotramite/internal/api/tramite"
	"gotramite/internal/api/user"
	"gotramite/internal/domain"
	"gotramite/internal/pkg/cache"
	"gotramite/internal/pkg/middleware"
)

// Deps agrupa los handlers e infraestructura que el roteador necesita.
type Deps struct {
	TramiteHandler *tramite.Handler
	OficinaHandler *oficina.Handler
	TipoDocHandler *tipodoc.Handler
	FeriadoHandler *feriado.Handler
	DashHandler    *dashboard.Handler
	UserHandler    *user.Handler

	TokenSvc             middleware.TokenService
	CacheClient          cache.Client
	RateLimitMaxRequests int
	RateLimitPeriod      time.Duration
}

// NewRouter configura y retorna el roteador HTTP principal. Recibe los
// Handlers ya inicializados por inyección de dependencias y aplica los
// middlewares de autenticación, permisos y rate limiting.
func NewRouter(deps Deps) http.Handler {
	mux := http.NewServeMux()

	auth := middleware.NewAuthMiddleware(deps.TokenSvc)
	soloAdmin := middleware.PermissionMiddleware(domain.RoleAdmin)
	registradores := middleware.PermissionMiddleware(domain.RoleAdmin, domain.RoleMesaPartes, domain.RoleFuncionario)

	// --- Rutas públicas ---
	mux.HandleFunc("/ping", PingHandler)
	mux.HandleFunc("/register", deps.UserHandler.RegisterHandler)
	mux.HandleFunc("/login", deps.UserHandler.LoginHandler)
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	// --- Trámites y movimientos ---
	mux.HandleFunc("/v1/tramites", auth(registradores(deps.TramiteHandler.TramitesHandler)))
	mux.HandleFunc("/v1/tramites/", auth(registradores(deps.TramiteHandler.TramiteByIDHandler)))

	// --- Catálogos ---
	mux.HandleFunc("/v1/oficinas", auth(catalogoMutacion(soloAdmin, deps.OficinaHandler.OficinasHandler)))
	mux.HandleFunc("/v1/oficinas/arbol", auth(deps.OficinaHandler.ArbolHandler))
	mux.HandleFunc("/v1/oficinas/", auth(catalogoMutacion(soloAdmin, deps.OficinaHandler.OficinaByIDHandler)))

	mux.HandleFunc("/v1/tipos-documento", auth(catalogoMutacion(soloAdmin, deps.TipoDocHandler.TiposDocumentoHandler)))
	mux.HandleFunc("/v1/tipos-documento/", auth(catalogoMutacion(soloAdmin, deps.TipoDocHandler.TipoDocumentoByIDHandler)))

	mux.HandleFunc("/v1/feriados", auth(catalogoMutacion(soloAdmin, deps.FeriadoHandler.FeriadosHandler)))
	mux.HandleFunc("/v1/feriados/", auth(catalogoMutacion(soloAdmin, deps.FeriadoHandler.FeriadoByIDHandler)))

	// --- Dashboard ---
	mux.HandleFunc("/v1/dashboard", auth(deps.DashHandler.ResumenHandler))

	// Rate limiting global por IP.
	return middleware.RateLimiter(deps.CacheClient, deps.RateLimitMaxRequests, deps.RateLimitPeriod)(mux)
}

// catalogoMutacion deja las lecturas del catálogo abiertas a todo usuario
// autenticado y exige rol admin para las mutaciones.
func catalogoMutacion(soloAdmin func(http.HandlerFunc) http.HandlerFunc, next http.HandlerFunc) http.HandlerFunc {
	admin := soloAdmin(next)
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			next(w, r)
			return
		}
		admin(w, r)
	}
}

// PingHandler es el health check del servicio.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método no permitido", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
