package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/fyerfyer/doc-extract-service/api/model"
	"github.com/fyerfyer/doc-extract-service/config"
	"github.com/fyerfyer/doc-extract-service/internal/models"
	"github.com/fyerfyer/doc-extract-service/internal/services"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "docextract",
		Usage: "Extract normalized text documents from PDFs, web pages and HTML",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "path to config file"},
			&cli.StringFlag{Name: "log-level", Value: "warn", Usage: "log level written to stderr"},
		},
		Commands: []*cli.Command{
			{
				Name:      "pdf",
				Usage:     "extract the full text of a PDF file",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "source", Usage: "source recorded in metadata (default: upload)"},
				},
				Action: pdfAction,
			},
			{
				Name:      "url",
				Usage:     "fetch one or more web pages and convert them to documents",
				ArgsUsage: "URL [URL...]",
				Flags: append(chunkFlags(),
					&cli.BoolFlag{Name: "js", Usage: "always render with a headless browser"},
					&cli.StringFlag{Name: "wait-selector", Usage: "CSS selector to wait for after rendering"},
					&cli.IntFlag{Name: "fallback-threshold", Value: -1, Usage: "render when static text is shorter than this (default from config)"},
				),
				Action: urlAction,
			},
			{
				Name:      "html",
				Usage:     "convert an HTML file (or - for stdin) to documents",
				ArgsUsage: "FILE",
				Flags: append(chunkFlags(),
					&cli.StringSliceFlag{Name: "meta", Usage: "metadata entry key=value, repeatable"},
				),
				Action: htmlAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

func chunkFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{Name: "split", Usage: "split text into chunks"},
		&cli.IntFlag{Name: "chunk-size", Usage: "chunk size in characters (default from config)"},
		&cli.IntFlag{Name: "chunk-overlap", Value: -1, Usage: "chunk overlap in characters (default from config)"},
	}
}

// setup 加载配置并创建提取服务，日志只写到stderr以免污染输出
func setup(c *cli.Context) (*config.Config, *services.ExtractService, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, err
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	level, err := logrus.ParseLevel(c.String("log-level"))
	if err != nil {
		return nil, nil, models.NewConfigError(fmt.Sprintf("invalid log level %q", c.String("log-level")), err)
	}
	logger.SetLevel(level)

	return cfg, services.NewExtractServiceFromConfig(cfg, logger, nil), nil
}

func pdfAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return models.NewInputError("No file provided", nil)
	}
	_, service, err := setup(c)
	if err != nil {
		return err
	}

	path := c.Args().First()
	data, err := os.ReadFile(path)
	if err != nil {
		return models.NewInputError(fmt.Sprintf("cannot read %s", path), err)
	}

	meta := map[string]any{models.MetaFilename: filepath.Base(path)}
	if c.IsSet("source") {
		meta[models.MetaSource] = c.String("source")
	}

	doc, err := service.PDFToText(c.Context, data, meta)
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, model.TextResponse{Text: doc.PageContent})
}

func urlAction(c *cli.Context) error {
	cfg, service, err := setup(c)
	if err != nil {
		return err
	}

	threshold := cfg.Web.FallbackThreshold
	if c.Int("fallback-threshold") >= 0 {
		threshold = c.Int("fallback-threshold")
	}

	result, err := service.URLsToDocuments(c.Context, c.Args().Slice(), services.URLOptions{
		ChunkOptions:      chunkOptions(c, cfg),
		ForceRender:       c.Bool("js"),
		WaitSelector:      c.String("wait-selector"),
		FallbackThreshold: threshold,
	})
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, model.NewDocumentsResponse(result.Documents, result.Errors))
}

func htmlAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return models.NewInputError("Missing 'html'", models.ErrEmptyHTML)
	}
	cfg, service, err := setup(c)
	if err != nil {
		return err
	}

	html, err := readInput(c.Args().First(), c.App.Reader)
	if err != nil {
		return err
	}
	meta, err := parseMeta(c.StringSlice("meta"))
	if err != nil {
		return err
	}

	docs, err := service.HTMLToDocuments(c.Context, html, meta, chunkOptions(c, cfg))
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, model.NewDocumentsResponse(docs, nil))
}

// chunkOptions 命令行未设置时使用配置中的分块参数
func chunkOptions(c *cli.Context, cfg *config.Config) services.ChunkOptions {
	opts := services.ChunkOptions{
		Split:        c.Bool("split"),
		ChunkSize:    cfg.Chunk.Size,
		ChunkOverlap: cfg.Chunk.Overlap,
	}
	if c.IsSet("chunk-size") {
		opts.ChunkSize = c.Int("chunk-size")
	}
	if c.IsSet("chunk-overlap") {
		opts.ChunkOverlap = c.Int("chunk-overlap")
	}
	return opts
}

func readInput(path string, stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", models.NewInputError(fmt.Sprintf("cannot read %s", path), err)
	}
	return string(data), nil
}

// parseMeta 解析key=value形式的元数据
func parseMeta(entries []string) (map[string]any, error) {
	meta := make(map[string]any, len(entries))
	for _, e := range entries {
		key, value, ok := strings.Cut(e, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, models.NewInputError(fmt.Sprintf("invalid meta entry %q, expected key=value", e), nil)
		}
		meta[strings.TrimSpace(key)] = value
	}
	return meta, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// exitCode 输入和配置错误返回2，其他错误返回1
func exitCode(err error) int {
	switch models.KindOf(err) {
	case models.KindInput, models.KindConfig:
		return 2
	default:
		return 1
	}
}
