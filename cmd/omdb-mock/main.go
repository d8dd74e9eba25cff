package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/Clark-Hu/movie-comments-api/internal/details"
)

type failure struct {
	Response string `json:"Response"`
	Error    string `json:"Error"`
}

func main() {
	var (
		app = kingpin.New("omdb-mock", "Serves a fixed OMDb catalogue for local runs.")

		port    = app.Flag("port", "port to listen on").Default("9099").String()
		data    = app.Flag("data", "path to a JSON array of OMDb detail sets").String()
		apiKey  = app.Flag("apikey", "require this apikey query value").String()
		verbose = app.Flag("log", "log every lookup").Bool()
	)
	kingpin.MustParse(app.Parse(os.Args[1:]))

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.Named("omdb-mock")

	entries, err := loadEntries(*data)
	if err != nil {
		logger.Fatal("load mock data", zap.String("path", *data), zap.Error(err))
	}

	lookupLogger := zap.NewNop()
	if *verbose {
		lookupLogger = logger
	}
	handler := newHandler(details.NewFixed(entries...), *apiKey, lookupLogger)

	addr := ":" + *port
	logger.Info("mock omdb listening", zap.String("addr", addr), zap.Int("titles", len(entries)))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

// newHandler answers OMDb-style `GET /?t=<title>&apikey=<key>` lookups from
// provider. An empty apiKey accepts any key.
func newHandler(provider details.Provider, apiKey string, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		if apiKey != "" && query.Get("apikey") != apiKey {
			logger.Warn("rejected api key")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(failure{Response: "False", Error: "Invalid API key!"})
			return
		}

		title := query.Get("t")
		d, err := provider.Details(r.Context(), title)
		if err != nil {
			reason := err.Error()
			var unavailable *details.UnavailableError
			if errors.As(err, &unavailable) {
				reason = unavailable.Reason
			}
			logger.Info("lookup missed", zap.String("title", title), zap.String("reason", reason))
			_ = json.NewEncoder(w).Encode(failure{Response: "False", Error: reason})
			return
		}
		logger.Info("lookup", zap.String("title", title), zap.String("formal", d.Title))
		if err := json.NewEncoder(w).Encode(d); err != nil {
			logger.Warn("encode response", zap.Error(err))
		}
	})
	return mux
}

func loadEntries(path string) ([]details.Details, error) {
	if path == "" {
		return []details.Details{details.SampleIt()}, nil
	}
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []details.Details
	if err := json.Unmarshal(file, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
