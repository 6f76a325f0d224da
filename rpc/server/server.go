package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/didip/tollbooth/v6"
	"github.com/didip/tollbooth/v6/limiter"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/rpc/v2"
	rpcjson "github.com/gorilla/rpc/v2/json2"

	"github.com/Iamfittz/aptos-core/log"
	"github.com/Iamfittz/aptos-core/params"
	"github.com/Iamfittz/aptos-core/rpc/restapi"
	"github.com/Iamfittz/aptos-core/rpc/rpcapi"
)

// StartAPIServer start api server
func StartAPIServer() {
	router := initRouter()

	apiPort := params.GetAPIPort()
	apiServer := params.GetConfig().APIServer
	allowedOrigins := apiServer.AllowedOrigins

	corsOptions := []handlers.CORSOption{
		handlers.AllowedMethods([]string{"GET", "POST"}),
	}
	if len(allowedOrigins) != 0 {
		corsOptions = append(corsOptions,
			handlers.AllowedHeaders([]string{"X-Requested-With", "Content-Type"}),
			handlers.AllowedOrigins(allowedOrigins),
		)
	}

	log.Info("state query service listen and serving", "port", apiPort, "allowedOrigins", allowedOrigins)
	svr := http.Server{
		Addr:         fmt.Sprintf(":%v", apiPort),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		Handler:      handlers.CORS(corsOptions...)(router),
	}
	go func() {
		if err := svr.ListenAndServe(); err != nil {
			log.Error("ListenAndServe error", "err", err)
		}
	}()
}

func initRouter() *mux.Router {
	r := mux.NewRouter()

	if maxRequests := params.GetConfig().APIServer.MaxRequestsLimit; maxRequests > 0 {
		lmt := tollbooth.NewLimiter(float64(maxRequests), &limiter.ExpirableOptions{
			DefaultExpirationTTL: time.Hour,
		})
		r.Use(func(next http.Handler) http.Handler {
			return tollbooth.LimitHandler(lmt, next)
		})
	}

	rpcserver := rpc.NewServer()
	rpcserver.RegisterCodec(rpcjson.NewCodec(), "application/json")
	_ = rpcserver.RegisterService(new(rpcapi.RPCAPI), "state")

	r.Handle("/rpc", rpcserver)
	r.HandleFunc("/serverinfo", restapi.ServerInfoHandler).Methods("GET")
	r.HandleFunc("/versioninfo", restapi.VersionInfoHandler).Methods("GET")
	r.HandleFunc("/accounts/{address}/resource/{struct_tag}", restapi.GetAccountResourceHandler).Methods("GET")
	r.HandleFunc("/accounts/{address}/module/{module_name}", restapi.GetAccountModuleHandler).Methods("GET")
	r.HandleFunc("/tables/{table_handle}/item", restapi.GetTableItemHandler).Methods("POST")
	r.HandleFunc("/layouts/{struct_tag}", restapi.GetStructLayoutHandler).Methods("GET")

	methodsExcluesGet := []string{"POST", "HEAD", "PUT", "DELETE", "CONNECT", "OPTIONS", "TRACE", "PATCH"}
	methodsExcluesPost := []string{"GET", "HEAD", "PUT", "DELETE", "CONNECT", "OPTIONS", "TRACE", "PATCH"}

	r.HandleFunc("/serverinfo", warnHandler).Methods(methodsExcluesGet...)
	r.HandleFunc("/versioninfo", warnHandler).Methods(methodsExcluesGet...)
	r.HandleFunc("/accounts/{address}/resource/{struct_tag}", warnHandler).Methods(methodsExcluesGet...)
	r.HandleFunc("/accounts/{address}/module/{module_name}", warnHandler).Methods(methodsExcluesGet...)
	r.HandleFunc("/tables/{table_handle}/item", warnHandler).Methods(methodsExcluesPost...)
	r.HandleFunc("/layouts/{struct_tag}", warnHandler).Methods(methodsExcluesGet...)

	return r
}

func warnHandler(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, "Forbid '%v' on '%v'\n", r.Method, r.RequestURI)
}
