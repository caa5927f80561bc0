package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"reflect"
	"strconv"
	"strings"
	"syscall"

	"github.com/acadlib/rtree"
	"github.com/acadlib/rtree/dataset"
	rtreemetrics "github.com/acadlib/rtree/metrics"
	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/go-tooling/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/encoding/json"
)

const (
	errTypeInvalidConfig = "rtree_invalid_config"

	queryIntersects = "intersects"
	queryContains   = "contains"
	queryNearest    = "nearest"
)

var (
	version = "rtree-" + rtree.Version

	infoGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name:        "rtree_info",
		Help:        "R-Tree index information.",
		ConstLabels: prometheus.Labels{"version": version},
	})
)

// Keeps the config field names readable by the cli package when the binary
// is obfuscated.
var _ = reflect.TypeOf(config{})

type config struct {
	Input          string  `cli:""        env:"RTREE_INPUT"            help:"JSON lines file with the entries to index."`
	Output         string  `cli:""        env:"RTREE_OUTPUT"           help:"File where the indexed entries are written."`
	Generate       int     `cli:""        env:"RTREE_GENERATE"         help:"Number of random entries to index when no input is given."`
	Seed           int64   `cli:""        env:"RTREE_SEED"             help:"Seed for the random entries."`
	Extent         float64 `cli:""        env:"RTREE_EXTENT"           help:"Size of the cube random entries are placed in."`
	MaxSize        float64 `cli:""        env:"RTREE_MAX_SIZE"         help:"Largest size of a random entry along any axis."`
	MaxNodeEntries int     `cli:",hidden" env:"RTREE_MAX_NODE_ENTRIES" help:"Maximum number of entries per node."`
	MinNodeEntries int     `cli:",hidden" env:"RTREE_MIN_NODE_ENTRIES" help:"Minimum number of entries per node."`
	CheckOnChange  bool    `cli:",hidden" env:"RTREE_CHECK_ON_CHANGE"  help:"Verify the index after every change."`
	Query          string  `cli:""        env:"RTREE_QUERY"            help:"Query to run (intersects|contains|nearest)."`
	Min            string  `cli:""        env:"RTREE_MIN"              help:"Comma separated lower corner of the query box."`
	Max            string  `cli:""        env:"RTREE_MAX"              help:"Comma separated upper corner of the query box."`
	Point          string  `cli:""        env:"RTREE_POINT"            help:"Comma separated point of a nearest query."`
	Furthest       float64 `cli:""        env:"RTREE_FURTHEST"         help:"Largest distance of a nearest match."`
	DeleteMatches  bool    `cli:""        env:"RTREE_DELETE_MATCHES"   help:"Delete the matched entries from the index."`
	MetricsAddr    string  `cli:""        env:"RTREE_METRICS_ADDR"     help:"Listening address for metrics, served until interrupted."`
	LogLevel       string  `cli:""        env:"RTREE_LOG_LEVEL"        help:"Log level (debug|info|warning|error)."`
	LogIndent      bool    `cli:""        env:"RTREE_LOG_INDENT"       help:"Indent logs."`
	Version        bool    `cli:""        env:"-"                      help:"Show version."`
	Help           bool    `cli:""        env:"-"                      help:"Show help."`
}

func main() {
	conf := config{
		Generate:       1000,
		Seed:           1,
		Extent:         100,
		MaxSize:        5,
		MaxNodeEntries: rtree.DefaultMaxNodeEntries,
		MinNodeEntries: rtree.DefaultMinNodeEntries,
		Query:          queryIntersects,
		Min:            "0,0,0",
		Max:            "10,10,10",
		Furthest:       10,
		LogLevel:       logs.InfoLevel.String(),
	}

	infoGauge.Set(1)

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Builds an R-Tree index and queries it.").
		Options(&conf)
	cli.Load()

	if conf.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if conf.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}

	errors.Encoder = json.Marshal

	q, err := parseQuery(conf)
	if err != nil {
		logs.Fatal(err)
	}

	idx, err := build(conf)
	if err != nil {
		logs.Fatal(err)
	}
	prometheus.MustRegister(rtreemetrics.NewCollector("main", idx))

	logs.WithTag("version", version).
		WithTag("items", idx.Stats().Items).
		WithTag("height", idx.Stats().Height).
		Info("index built")

	matches := q.run(idx)
	logs.WithTag("query", q.kind).
		WithTag("matches", len(matches)).
		Info("query done")
	for _, id := range matches {
		logs.WithTag("id", id).Debug("match")
	}

	if conf.DeleteMatches {
		deleted := deleteAll(idx, matches)
		bounds, _ := idx.bounds()
		logs.WithTag("deleted", deleted).
			WithTag("items", idx.Stats().Items).
			WithTag("bounds", bounds.String()).
			Info("matches deleted")
	}

	if conf.MetricsAddr == "" {
		return
	}

	var admin http.ServeMux
	admin.Handle("/metrics", promhttp.Handler())
	serve(ctx, &http.Server{
		Addr:    conf.MetricsAddr,
		Handler: metrics.HTTPHandler(&admin, metricsPathFormatter),
	})
}

// build creates the index from the input file, or from random entries when
// there is none. The entries are written to the output file when one is
// given.
func build(conf config) (*index, error) {
	entries, err := loadEntries(conf)
	if err != nil {
		return nil, err
	}

	if conf.Output != "" {
		if err := saveEntries(conf.Output, entries); err != nil {
			return nil, err
		}
	}

	opts := []rtree.Option{
		rtree.WithNodeEntries(conf.MaxNodeEntries, conf.MinNodeEntries),
	}
	if conf.CheckOnChange {
		opts = append(opts, rtree.WithConsistencyChecks())
	}

	idx := newIndex(opts...)
	if err := idx.load(entries); err != nil {
		return nil, err
	}
	return idx, nil
}

func loadEntries(conf config) ([]dataset.Entry, error) {
	if conf.Input == "" {
		return dataset.Generate(rand.New(rand.NewSource(conf.Seed)), dataset.GenerateOptions{
			Count:   conf.Generate,
			Extent:  conf.Extent,
			MaxSize: conf.MaxSize,
		})
	}

	f, err := os.Open(conf.Input)
	if err != nil {
		return nil, errors.New("opening input failed").
			WithTag("input", conf.Input).
			Wrap(err)
	}
	defer f.Close()

	entries, err := dataset.Read(f)
	if err != nil {
		return nil, errors.New("reading input failed").
			WithTag("input", conf.Input).
			Wrap(err)
	}
	return entries, nil
}

func saveEntries(filename string, entries []dataset.Entry) error {
	f, err := os.Create(filename)
	if err != nil {
		return errors.New("creating output failed").
			WithTag("output", filename).
			Wrap(err)
	}
	defer f.Close()

	if err := dataset.Write(f, entries); err != nil {
		return errors.New("writing output failed").
			WithTag("output", filename).
			Wrap(err)
	}
	return f.Close()
}

type query struct {
	kind     string
	rect     rtree.Rect
	point    rtree.Point
	furthest float64
}

func parseQuery(conf config) (query, error) {
	q := query{kind: conf.Query, furthest: conf.Furthest}

	switch conf.Query {
	case queryIntersects, queryContains:
		lo, err := parseCoords(conf.Min)
		if err != nil {
			return q, err
		}
		hi, err := parseCoords(conf.Max)
		if err != nil {
			return q, err
		}
		if q.rect, err = rtree.NewRect(lo, hi); err != nil {
			return q, errors.New("invalid query box").
				WithType(errTypeInvalidConfig).
				Wrap(err)
		}

	case queryNearest:
		coords, err := parseCoords(conf.Point)
		if err != nil {
			return q, err
		}
		if q.point, err = rtree.NewPoint(coords); err != nil {
			return q, errors.New("invalid query point").
				WithType(errTypeInvalidConfig).
				Wrap(err)
		}

	default:
		return q, errors.New("unknown query").
			WithType(errTypeInvalidConfig).
			WithTag("query", conf.Query)
	}

	return q, nil
}

func (q query) run(idx *index) []string {
	switch q.kind {
	case queryContains:
		return idx.contains(q.rect)

	case queryNearest:
		return idx.nearest(q.point, q.furthest)

	default:
		return idx.intersects(q.rect)
	}
}

func parseCoords(s string) ([]float64, error) {
	fields := strings.Split(s, ",")
	coords := make([]float64, len(fields))

	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, errors.New("invalid coordinate").
				WithType(errTypeInvalidConfig).
				WithTag("coords", s).
				Wrap(err)
		}
		coords[i] = v
	}
	return coords, nil
}

func deleteAll(idx *index, ids []string) int {
	deleted := 0
	for _, id := range ids {
		if idx.delete(id) {
			deleted++
		} else {
			logs.WithTag("id", id).Warn("deleting match failed")
		}
	}
	return deleted
}

func serve(ctx context.Context, s *http.Server) {
	go func() {
		<-ctx.Done()

		if err := s.Shutdown(context.Background()); err != nil {
			logs.Warn(errors.New("shutting down the server failed").
				WithTag("addr", s.Addr).
				Wrap(err))
		}
	}()

	logs.WithTag("addr", s.Addr).Info("serving metrics")

	switch err := s.ListenAndServe(); err {
	case nil, http.ErrServerClosed, context.Canceled:
		logs.WithTag("addr", s.Addr).Info("stopping server")

	default:
		logs.Warn(errors.New("server stopped").
			WithTag("addr", s.Addr).
			Wrap(err))
	}
}

// metricsPathFormatter drops the path label of requests that didn't hit a
// route.
func metricsPathFormatter(statusCode int, path string) string {
	if statusCode == http.StatusNotFound ||
		statusCode == http.StatusMethodNotAllowed {
		return ""
	}
	return path
}
