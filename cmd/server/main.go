// Command server exposes the transaction analyzer over HTTP: /api/health,
// /api/analyze, and /metrics for Prometheus scraping. It's a peripheral
// collaborator over the same internal/ core the CLI uses, not a second
// implementation of it.
package main

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"blockforensics/internal/metrics"
	"blockforensics/pkg/parser"
	"blockforensics/pkg/types"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(logger))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: true,
	}))

	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})
	r.POST("/api/analyze", handleAnalyze)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if _, err := os.Stat("web/build"); err == nil {
		r.Static("/static", "web/build/static")
		r.StaticFile("/", "web/build/index.html")
		r.NoRoute(func(c *gin.Context) {
			c.File("web/build/index.html")
		})
	} else {
		r.GET("/", func(c *gin.Context) {
			c.Data(200, "text/html", []byte(fallbackHTML))
		})
	}

	logger.Info("listening", zap.String("addr", "http://127.0.0.1:"+port))
	if err := r.Run(":" + port); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
		metrics.RequestsTotal.WithLabelValues(c.Request.URL.Path, statusBucket(c.Writer.Status())).Inc()
	}
}

func statusBucket(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	default:
		return "2xx"
	}
}

func handleAnalyze(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(400, types.TransactionOutput{
			OK:    false,
			Error: &types.ErrorInfo{Code: "INVALID_REQUEST", Message: "failed to read request body"},
		})
		return
	}

	start := time.Now()
	result, err := decodeAndAnalyze(body)
	metrics.ParseDuration.WithLabelValues("transaction").Observe(time.Since(start).Seconds())
	if err != nil {
		c.JSON(400, types.TransactionOutput{
			OK:    false,
			Error: &types.ErrorInfo{Code: "INVALID_REQUEST", Message: err.Error()},
		})
		return
	}

	c.JSON(200, result)
}

func decodeAndAnalyze(body []byte) (*types.TransactionOutput, error) {
	var fixture types.Fixture
	if err := json.Unmarshal(body, &fixture); err != nil {
		return nil, err
	}
	return parser.ParseTransaction(fixture)
}

const fallbackHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Block Forensics</title>
    <style>
        body { font-family: Arial, sans-serif; max-width: 800px; margin: 50px auto; padding: 20px; }
        h1 { color: #f7931a; }
        textarea { width: 100%; height: 200px; font-family: monospace; }
        button { background: #f7931a; color: white; padding: 10px 20px; border: none; cursor: pointer; }
        pre { background: #f5f5f5; padding: 15px; overflow-x: auto; }
    </style>
</head>
<body>
    <h1>Block Forensics</h1>
    <p>Paste a transaction fixture JSON below:</p>
    <textarea id="input" placeholder='{"network":"mainnet","raw_tx":"...","prevouts":[...]}'></textarea>
    <br><br>
    <button onclick="analyze()">Analyze Transaction</button>
    <h2>Result:</h2>
    <pre id="output">Results will appear here...</pre>

    <script>
        async function analyze() {
            const input = document.getElementById('input').value;
            const output = document.getElementById('output');

            try {
                const response = await fetch('/api/analyze', {
                    method: 'POST',
                    headers: {'Content-Type': 'application/json'},
                    body: input
                });
                const result = await response.json();
                output.textContent = JSON.stringify(result, null, 2);
            } catch (err) {
                output.textContent = 'Error: ' + err.message;
            }
        }
    </script>
</body>
</html>`
