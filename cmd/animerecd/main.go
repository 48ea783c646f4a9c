// animerecd 是混合动漫推荐引擎的 HTTP 服务进程。
//
// 启动流程：加载 YAML 配置 → 加载目录/评分 CSV → 装配存储、过滤器与
// 外部补全客户端 → 构建引擎并 Warmup → 暴露 /recommend 与 /popular。
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/rushteam/animerec/catalog"
	"github.com/rushteam/animerec/config"
	"github.com/rushteam/animerec/core"
	"github.com/rushteam/animerec/engine"
	"github.com/rushteam/animerec/enrich"
)

func main() {
	configPath := flag.String("config", "config.yaml", "配置文件路径")
	flag.Parse()

	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.LoadFromYAML(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("load config")
	}

	items, err := catalog.LoadAnime(cfg.Data.AnimeCSV)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Data.AnimeCSV).Msg("load anime csv")
	}
	ratings, err := catalog.LoadRatings(cfg.Data.RatingCSV)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Data.RatingCSV).Msg("load rating csv")
	}
	log.Info().Int("anime", len(items)).Int("ratings", len(ratings)).Msg("catalog loaded")

	st, err := cfg.BuildStore()
	if err != nil {
		log.Fatal().Err(err).Msg("build store")
	}
	defer st.Close()

	filters, err := cfg.BuildFilters()
	if err != nil {
		log.Fatal().Err(err).Msg("build filters")
	}

	var enricher engine.Enricher
	if cfg.Enrich.BaseURL != "" {
		enricher = enrich.NewClient(cfg.Enrich.BaseURL, cfg.Enrich.ClientID, cfg.EnrichTimeout())
	}

	eng := engine.New(engine.Options{
		Catalog:         catalog.New(items),
		Ratings:         ratings,
		Store:           st,
		HotKey:          cfg.Recommend.HotKey,
		Enricher:        enricher,
		Filters:         filters,
		PageSize:        cfg.Recommend.PageSize,
		PopularPageSize: cfg.Recommend.PopularPageSize,
		Pool:            cfg.Recommend.CandidatePool,
		EnrichTimeout:   cfg.EnrichTimeout(),
		Logger:          log,
	})
	if err := eng.Warmup(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("warmup")
	}

	srv := &server{engine: eng, log: log}
	mux := http.NewServeMux()
	mux.HandleFunc("/recommend", srv.handleRecommend)
	mux.HandleFunc("/popular", srv.handlePopular)

	addr := cfg.Server.Addr
	if addr == "" {
		addr = ":8080"
	}
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	log.Info().Str("addr", addr).Msg("listening")
	if err := httpSrv.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("serve")
	}
}

type server struct {
	engine *engine.Engine
	log    zerolog.Logger
}

// GET /recommend?q=naruto&type=TV&type=Movie&page=1
func (s *server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	qctx := &core.QueryContext{
		Query: r.URL.Query().Get("q"),
		Types: r.URL.Query()["type"],
		Page:  queryPage(r),
	}
	page, err := s.engine.Recommend(r.Context(), qctx)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// GET /popular?type=TV&page=1
func (s *server) handlePopular(w http.ResponseWriter, r *http.Request) {
	mediaType := r.URL.Query().Get("type")
	if mediaType == "" {
		mediaType = "TV"
	}
	page, err := s.engine.Popular(r.Context(), mediaType, queryPage(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func queryPage(r *http.Request) int {
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return 1
	}
	page, err := strconv.Atoi(raw)
	if err != nil {
		return 0 // 交给引擎按 INVALID_PAGE 拒绝
	}
	return page
}

// writeError 把领域错误映射为 HTTP 状态码。
func (s *server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case core.IsInvalidPage(err):
		status = http.StatusBadRequest
	case core.IsNotFoundLocally(err), core.IsNotFoundAnywhere(err):
		status = http.StatusNotFound
	case core.IsIndexNotReady(err):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		s.log.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
