package device

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jypelle/oledanim/apimodel"
	"github.com/jypelle/oledanim/internal/player"
	"github.com/jypelle/oledanim/internal/srv/config"
	"github.com/jypelle/oledanim/internal/srv/event"
	"github.com/jypelle/oledanim/internal/tool"
	"github.com/sirupsen/logrus"
)

// PlaybackView gives the api read access to the server state. Its methods
// are called from the http goroutines.
type PlaybackView interface {
	Animations() []apimodel.Animation
	Playback() apimodel.Playback
	Snapshot() (image.Image, bool)
}

type Api struct {
	eventChannel chan event.ApiEvent

	router *mux.Router
	server *http.Server

	config *config.ServerConfig
	view   PlaybackView
}

func NewApi(config *config.ServerConfig, view PlaybackView) *Api {
	api := Api{
		config:       config,
		view:         view,
		eventChannel: make(chan event.ApiEvent),
	}

	// API Routes
	api.router = mux.NewRouter().StrictSlash(false)
	api.router.NotFoundHandler = http.HandlerFunc(ErrorNotFoundAction)
	api.router.MethodNotAllowedHandler = http.HandlerFunc(ErrorMethodNotAllowedAction)

	// Auth middleware
	api.router.Use(
		func(handler http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				defer func() {
					if rec := recover(); rec != nil {
						logrus.Warningf("recovered from panic : [%v] - stack trace : \n [%s]", rec, debug.Stack())
						strMessage := fmt.Sprintf("%v", rec)
						GlobalErrorAction(w, strMessage, http.StatusInternalServerError)
					}
				}()

				// Check API Key
				apiKey := r.Header.Get("x-api-key")
				if apiKey != config.ServerParam.ApiParam.ApiKey {
					ErrorStatusAction(w, r, http.StatusForbidden)
					return
				}

				logrus.Debugf("PATH: %s %s", r.Host, r.URL.Path)

				handler.ServeHTTP(w, r)
			})
		})

	// Create server check endpoint
	api.router.HandleFunc("/api/is_alive",
		func(w http.ResponseWriter, r *http.Request) {
			ErrorStatusAction(w, r, http.StatusOK)
		}).Methods("GET")
	api.router.HandleFunc("/api/animations",
		func(w http.ResponseWriter, r *http.Request) {
			jsonAction(w, api.view.Animations())
		}).Methods("GET")
	api.router.HandleFunc("/api/playback",
		func(w http.ResponseWriter, r *http.Request) {
			jsonAction(w, api.view.Playback())
		}).Methods("GET")
	api.router.HandleFunc("/api/playback/select/{index}",
		func(w http.ResponseWriter, r *http.Request) {
			index, err := strconv.Atoi(mux.Vars(r)["index"])
			if err != nil {
				ErrorStatusAction(w, r, http.StatusBadRequest)
				return
			}
			api.dispatch(w, r, event.ApiEventSelectData{Index: index})
		}).Methods("POST")
	api.router.HandleFunc("/api/display/power/{state}",
		func(w http.ResponseWriter, r *http.Request) {
			var on bool
			switch mux.Vars(r)["state"] {
			case "on":
				on = true
			case "off":
				on = false
			default:
				ErrorStatusAction(w, r, http.StatusBadRequest)
				return
			}
			api.dispatch(w, r, event.ApiEventPowerData{On: on})
		}).Methods("POST")
	api.router.HandleFunc("/api/display/snapshot",
		func(w http.ResponseWriter, r *http.Request) {
			img, ok := api.view.Snapshot()
			if !ok {
				GlobalErrorAction(w, "Snapshot only available in simulation mode", http.StatusServiceUnavailable)
				return
			}
			w.Header().Set("Content-Type", "image/png")
			if err := png.Encode(w, img); err != nil {
				logrus.Warnf("Unable to encode snapshot: %v", err)
			}
		}).Methods("GET")

	// Tell the browser that it's OK for JS to communicate with the server
	headersOk := handlers.AllowedHeaders([]string{"Authorization", "x-api-key"})
	originsOk := handlers.AllowedOrigins([]string{"*"})
	methodsOk := handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"})

	api.server = &http.Server{
		Addr:         ":" + strconv.FormatInt(config.ServerParam.ApiParam.SslPort, 10),
		Handler:      handlers.CompressHandler(handlers.CORS(originsOk, headersOk, methodsOk)(api.router)),
		ReadTimeout:  time.Second * 240,
		WriteTimeout: time.Second * 240,
		IdleTimeout:  time.Second * 240,
	}

	return &api
}

func (d *Api) Start() {
	if !d.config.ApiParam.Enabled {
		logrus.Infof("Api device disabled")
		return
	}
	logrus.Infof("Start api device")

	existServerCert, err := tool.IsFileExists(d.config.GetCompleteCertFilename())
	if err != nil {
		logrus.Fatalf("Unable to access %s: %v\n", d.config.GetCompleteCertFilename(), err)
	}

	existServerKey, err := tool.IsFileExists(d.config.GetCompleteKeyFilename())
	if err != nil {
		logrus.Fatalf("Unable to access %s: %v\n", d.config.GetCompleteKeyFilename(), err)
	}

	if !existServerCert || !existServerKey {
		logrus.Info("Missing cert and key files, trying to generate them...")
		err = tool.GenerateTlsCertificate(
			"jypelle",
			"Oledanim Server",
			d.config.GetCompleteKeyFilename(),
			d.config.GetCompleteCertFilename(),
			[]string{})
		if err != nil {
			logrus.Fatalf("Unable to generate cert and key files : %v\n", err)
		}
		logrus.Info("Self-signed cert and key files generated")
	}

	// Launch https server
	go func() {
		err := d.server.ListenAndServeTLS(d.config.GetCompleteCertFilename(), d.config.GetCompleteKeyFilename())
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Error(err)
		}
	}()
}

func (d *Api) StopSendingEvent() {
	logrus.Infof("Stop api device")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.server.Shutdown(ctx); err != nil {
		logrus.Warnf("Unable to stop api server: %v", err)
	}
}

func (d *Api) EventChannel() chan event.ApiEvent {
	return d.eventChannel
}

// dispatch hands data over to the event loop and answers with its result.
func (d *Api) dispatch(w http.ResponseWriter, r *http.Request, data interface{}) {
	result := make(chan error, 1)
	select {
	case d.eventChannel <- event.ApiEvent{Result: result, Data: data}:
	case <-r.Context().Done():
		ErrorStatusAction(w, r, http.StatusServiceUnavailable)
		return
	}
	err := <-result
	switch {
	case err == nil:
		ErrorStatusAction(w, r, http.StatusOK)
	case errors.Is(err, player.ErrOutOfRange):
		GlobalErrorAction(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, event.ErrSelectionPending):
		GlobalErrorAction(w, err.Error(), http.StatusConflict)
	case errors.Is(err, player.ErrClosed):
		GlobalErrorAction(w, err.Error(), http.StatusServiceUnavailable)
	default:
		GlobalErrorAction(w, err.Error(), http.StatusInternalServerError)
	}
}

func jsonAction(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Warnf("Unable to encode response: %v", err)
	}
}

func ErrorNotFoundAction(w http.ResponseWriter, r *http.Request) {
	ErrorStatusAction(w, r, http.StatusNotFound)
}

func ErrorMethodNotAllowedAction(w http.ResponseWriter, r *http.Request) {
	ErrorStatusAction(w, r, http.StatusMethodNotAllowed)
}

func ErrorStatusAction(w http.ResponseWriter, r *http.Request, status int) {
	ErrorMessageAction(w, "", status)
}

func GlobalErrorAction(w http.ResponseWriter, message string, status int) {
	ErrorMessageAction(w, message, status)
}

func ErrorMessageAction(w http.ResponseWriter, title string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(apimodel.NewErrorMessage(status, title)); err != nil {
		logrus.Debugf("Unable to encode error message: %v", err)
	}
}
