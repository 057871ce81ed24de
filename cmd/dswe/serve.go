package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/project-spencer/dswe/internal/log"
	"github.com/project-spencer/dswe/pkg/export"
	"github.com/project-spencer/dswe/pkg/model"
	"github.com/project-spencer/dswe/pkg/zonal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Accept scenes over HTTP and answer with zonal rows",
		RunE:  runServe,
	}

	cmd.Flags().Int("port", 8080, "port to listen on")
	_ = viper.BindPFlag("port", cmd.Flags().Lookup("port"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	s, err := loadSettings()
	if err != nil {
		return err
	}

	all, err := s.loadSites()
	if err != nil {
		return err
	}

	dem, err := s.loadDEM()
	if err != nil {
		return err
	}

	srv := &server{run: newRunner(s, all, dem), sink: export.NewSink()}

	h := &http.Server{
		Addr:    fmt.Sprintf(":%d", viper.GetInt("port")),
		Handler: srv.router(),
	}

	go func() {
		<-ctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		h.Shutdown(shutdownCtx)
	}()

	log.Infof("listening on %s", h.Addr)

	if err := h.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type server struct {
	run  *runner
	sink *export.Sink
}

func (s *server) router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/scenes", s.postScene).Methods(http.MethodPost)
	r.HandleFunc("/scenes/zip", s.postZip).Methods(http.MethodPost)
	r.HandleFunc("/tables", s.listTables).Methods(http.MethodGet)
	r.HandleFunc("/tables/{name}", s.getTable).Methods(http.MethodGet)
	r.HandleFunc("/tables/{name}/drain", s.drainTable).Methods(http.MethodPost)
	r.HandleFunc("/exports", s.sink.Receive).Methods(http.MethodPost)
	r.HandleFunc("/exports", s.listExports).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)
	return r
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("could not write response: %v", err)
	}
}

func (s *server) postScene(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	t1 := time.Now()

	var scene model.Scene
	if err := scene.Decode(r.Body); err != nil {
		http.Error(w, "could not decode scene", http.StatusBadRequest)
		return
	}

	log.Debugf("decoded scene %s in %s", scene.ID, time.Since(t1))

	s.handle(w, r, &scene)
}

func (s *server) postZip(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	b, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "could not read bundle", http.StatusBadRequest)
		return
	}

	scene, err := model.SceneFromZip(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.handle(w, r, scene)
}

func (s *server) handle(w http.ResponseWriter, r *http.Request, scene *model.Scene) {
	if err := scene.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	log.Infof("received scene %s (%s, path %d row %d)", scene.ID, scene.Sensor, scene.Path, scene.Row)

	rows, err := s.run.process(r.Context(), scene)
	if err != nil {
		log.Errorf("scene %s: %v", scene.ID, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if rows == nil {
		rows = []zonal.Row{}
	}
	writeJSON(w, rows)
}

func (s *server) listTables(w http.ResponseWriter, _ *http.Request) {
	out := make(map[string]int)
	for _, n := range s.run.tableNames() {
		if t, ok := s.run.lookup(n); ok {
			out[n] = t.Len()
		}
	}
	writeJSON(w, out)
}

func (s *server) getTable(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	t, ok := s.run.lookup(name)
	if !ok {
		http.Error(w, "no such table", http.StatusNotFound)
		return
	}

	rows := t.Rows()
	if rows == nil {
		rows = []zonal.Row{}
	}
	writeJSON(w, rows)
}

// drainTable answers the buffered rows and empties the table.
func (s *server) drainTable(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	t, ok := s.run.lookup(name)
	if !ok {
		http.Error(w, "no such table", http.StatusNotFound)
		return
	}

	rows := t.Drain()
	if rows == nil {
		rows = []zonal.Row{}
	}

	log.Infof("drained %d rows from %s", len(rows), name)
	writeJSON(w, rows)
}

func (s *server) listExports(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.sink.Names())
}
