// Package http hosts the local reverse proxy the dashboard talks to. The
// private backend URL never reaches the client: the proxy injects it
// server-side and forwards the Authorization header and body unchanged.
package http

import (
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

type ProxyHandler struct {
	backendURL string
	client     *http.Client
}

func NewProxyHandler(backendURL string) *ProxyHandler {
	return &ProxyHandler{
		backendURL: strings.TrimRight(backendURL, "/"),
		client:     &http.Client{Timeout: 60 * time.Second},
	}
}

// Forward relays one /api request upstream. JSON passes through as JSON,
// binary content (images, pdf) is streamed with immutable caching, anything
// else goes through as text.
func (p *ProxyHandler) Forward(c *gin.Context) {
	target := p.backendURL + "/api" + c.Param("path")
	if raw := c.Request.URL.RawQuery; raw != "" {
		target += "?" + raw
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, target, c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "invalid upstream request"})
		return
	}
	if authz := c.GetHeader("Authorization"); authz != "" {
		req.Header.Set("Authorization", authz)
	}
	if ct := c.GetHeader("Content-Type"); ct != "" {
		req.Header.Set("Content-Type", ct)
	}
	if lang := c.GetHeader("Accept-Language"); lang != "" {
		req.Header.Set("Accept-Language", lang)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		log.Printf("[PROXY] %s %s: upstream error: %v", c.Request.Method, target, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "backend unreachable"})
		return
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(contentType, "application/json"):
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "backend read failed"})
			return
		}
		c.Data(resp.StatusCode, contentType, body)

	case isBinary(contentType):
		c.Header("Cache-Control", "public, max-age=31536000, immutable")
		c.DataFromReader(resp.StatusCode, resp.ContentLength, contentType, resp.Body, nil)

	default:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "backend read failed"})
			return
		}
		if contentType == "" {
			contentType = "text/plain; charset=utf-8"
		}
		c.Data(resp.StatusCode, contentType, body)
	}
}

func isBinary(contentType string) bool {
	return strings.HasPrefix(contentType, "image/") ||
		strings.HasPrefix(contentType, "application/pdf") ||
		strings.HasPrefix(contentType, "application/octet-stream")
}

// NewRouter wires the proxy routes. Auth is the upstream's concern: the
// proxy forwards tokens, it never interprets them.
func NewRouter(proxy *ProxyHandler, corsMiddleware gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(corsMiddleware)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.Any("/api/*path", proxy.Forward)

	return router
}
