package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/robfig/bracket"
	"github.com/robfig/bracket/config"
	"github.com/robfig/bracket/data"
)

func serve(ctx context.Context, set *bracket.Set, name string, cfg *config.Config, port int) error {
	var log = logger()
	var srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler(set, name, cfg, log),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	log.Info("listening", "addr", srv.Addr, "template", name)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// handler renders the template with the query parameters as data.  The first
// value of a repeated parameter wins.
func handler(set *bracket.Set, name string, cfg *config.Config, log *slog.Logger) http.HandlerFunc {
	return func(res http.ResponseWriter, req *http.Request) {
		var tmpl = set.Template(name)
		if tmpl == nil {
			http.Error(res, fmt.Sprintf("Template %s not found", name), http.StatusInternalServerError)
			return
		}

		var query = req.URL.Query()
		var keys = make([]string, 0, len(query))
		for k := range query {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var m = data.NewMap()
		for _, k := range keys {
			m.Set(k, data.String(query.Get(k)))
		}

		var buf bytes.Buffer
		if err := tmpl.Execute(req.Context(), &buf, m); err != nil {
			log.Error("rendering", "template", name, "error", err)
			http.Error(res, cfg.PublicError(err), http.StatusInternalServerError)
			return
		}
		res.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.Copy(res, &buf)
	}
}
