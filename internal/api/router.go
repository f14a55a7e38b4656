package api

import (
	"log"
	"net/http"
	"strings"

	"github.com/example/ec-shop/internal/api/middleware"
	"github.com/example/ec-shop/internal/auth"
	"github.com/example/ec-shop/internal/domain/user"
)

// RouterConfig bundles the collaborators the router needs.
type RouterConfig struct {
	Handlers        *Handlers
	AuthHandlers    *AuthHandlers
	AccountHandlers *AccountHandlers
	JWTService      *auth.JWTService
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	authed := middleware.Auth(cfg.JWTService)
	adminOnly := func(h http.Handler) http.Handler {
		return authed(middleware.RequireRole(user.RoleAdmin)(h))
	}

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Auth
	mux.HandleFunc("/api/auth/register", methodOnly(http.MethodPost, cfg.AuthHandlers.Register))
	mux.HandleFunc("/api/auth/login", methodOnly(http.MethodPost, cfg.AuthHandlers.Login))
	mux.HandleFunc("/api/auth/logout", methodOnly(http.MethodPost, cfg.AuthHandlers.Logout))
	mux.HandleFunc("/api/auth/refresh", methodOnly(http.MethodPost, cfg.AuthHandlers.Refresh))
	mux.Handle("/api/auth/me", authed(methodOnly(http.MethodGet, cfg.AuthHandlers.Me)))
	mux.Handle("/api/auth/password", authed(methodOnly(http.MethodPost, cfg.AuthHandlers.ChangePassword)))

	// Products
	mux.Handle("/api/products", routeByMethod(map[string]http.Handler{
		http.MethodGet:  http.HandlerFunc(cfg.Handlers.ListProducts),
		http.MethodPost: adminOnly(http.HandlerFunc(cfg.Handlers.CreateProduct)),
	}))
	mux.HandleFunc("/api/products/categories", methodOnly(http.MethodGet, cfg.Handlers.ListCategories))
	mux.Handle("/api/products/", routeByMethod(map[string]http.Handler{
		http.MethodGet:    http.HandlerFunc(cfg.Handlers.GetProduct),
		http.MethodPut:    adminOnly(http.HandlerFunc(cfg.Handlers.UpdateProduct)),
		http.MethodDelete: adminOnly(http.HandlerFunc(cfg.Handlers.DeleteProduct)),
	}))

	// Cart
	mux.Handle("/api/cart", authed(routeByMethod(map[string]http.Handler{
		http.MethodGet:    http.HandlerFunc(cfg.Handlers.GetCart),
		http.MethodDelete: http.HandlerFunc(cfg.Handlers.ClearCart),
	})))
	mux.Handle("/api/cart/items", authed(routeByMethod(map[string]http.Handler{
		http.MethodPost: http.HandlerFunc(cfg.Handlers.AddToCart),
		http.MethodPut:  http.HandlerFunc(cfg.Handlers.UpdateCartItem),
	})))
	mux.Handle("/api/cart/items/", authed(methodOnlyHandler(http.MethodDelete, http.HandlerFunc(cfg.Handlers.RemoveFromCart))))

	// Orders
	mux.Handle("/api/orders", adminOnly(routeByMethod(map[string]http.Handler{
		http.MethodGet:  http.HandlerFunc(cfg.Handlers.ListOrders),
		http.MethodPost: http.HandlerFunc(cfg.Handlers.CreateOrder),
	})))
	mux.Handle("/api/orders/create", authed(methodOnlyHandler(http.MethodPost, http.HandlerFunc(cfg.Handlers.CreateMyOrder))))
	mux.Handle("/api/orders/list", authed(methodOnlyHandler(http.MethodGet, http.HandlerFunc(cfg.Handlers.ListMyOrders))))
	mux.Handle("/api/orders/pay", authed(methodOnlyHandler(http.MethodPost, http.HandlerFunc(cfg.Handlers.PayOrder))))
	mux.Handle("/api/orders/confirm", authed(methodOnlyHandler(http.MethodPost, http.HandlerFunc(cfg.Handlers.ConfirmOrder))))
	mux.Handle("/api/orders/", authed(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/status") && (r.Method == http.MethodPut || r.Method == http.MethodPost):
			middleware.RequireRole(user.RoleAdmin)(http.HandlerFunc(cfg.Handlers.UpdateOrderStatus)).ServeHTTP(w, r)
		case strings.HasSuffix(path, "/cancel") && r.Method == http.MethodPost:
			cfg.Handlers.CancelOrder(w, r)
		case strings.HasSuffix(path, "/action") && r.Method == http.MethodPost:
			middleware.RequireRole(user.RoleAdmin)(http.HandlerFunc(cfg.Handlers.OrderAction)).ServeHTTP(w, r)
		case r.Method == http.MethodGet:
			cfg.Handlers.GetOrder(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	// Account
	mux.Handle("/api/users/profile", authed(methodOnlyHandler(http.MethodGet, http.HandlerFunc(cfg.AccountHandlers.Profile))))
	mux.Handle("/api/users/recharge", authed(methodOnlyHandler(http.MethodPost, http.HandlerFunc(cfg.AccountHandlers.Recharge))))
	mux.Handle("/api/users/addresses", authed(routeByMethod(map[string]http.Handler{
		http.MethodGet:  http.HandlerFunc(cfg.AccountHandlers.ListAddresses),
		http.MethodPost: http.HandlerFunc(cfg.AccountHandlers.CreateAddress),
	})))
	mux.Handle("/api/users/addresses/", authed(routeByMethod(map[string]http.Handler{
		http.MethodPut:    http.HandlerFunc(cfg.AccountHandlers.UpdateAddress),
		http.MethodDelete: http.HandlerFunc(cfg.AccountHandlers.DeleteAddress),
	})))

	return withLogging(mux)
}

func methodOnly(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	}
}

func methodOnlyHandler(method string, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.ServeHTTP(w, r)
	})
}

func routeByMethod(routes map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := routes[r.Method]
		if !ok {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.ServeHTTP(w, r)
	})
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[API] %s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
