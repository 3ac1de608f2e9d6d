package handler

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"html/template"
	"net/http"
	"net/netip"
	"strings"

	"github.com/Masterminds/sprig/v3"
	"github.com/Payphone-Digital/accounts/config"
	"github.com/Payphone-Digital/accounts/internal/constants"
	"github.com/Payphone-Digital/accounts/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//go:embed docs/openapi.json
var embeddedOpenAPI []byte

//go:embed docs/swagger.html
var swaggerPage string

const (
	DocsPath     = "/docs"
	DocsSpecPath = "/docs/openapi.json"

	msgSpecNotFound = "OpenAPI specification not found."
	msgSpecInvalid  = "Invalid OpenAPI specification."
)

type DocsHandler struct {
	spec    []byte
	page    *template.Template
	baseURL string
	prefix  string
	docs    config.DocsConfig
	proxies []netip.Prefix
}

type swaggerPageData struct {
	Title          string
	SwaggerVersion string
	SpecURL        string
}

func NewDocsHandler(cfg *config.Config) (*DocsHandler, error) {
	return newDocsHandler(embeddedOpenAPI, cfg)
}

func newDocsHandler(spec []byte, cfg *config.Config) (*DocsHandler, error) {
	page, err := template.New("swagger").Funcs(sprig.HtmlFuncMap()).Parse(swaggerPage)
	if err != nil {
		return nil, err
	}
	proxies := make([]netip.Prefix, 0, len(cfg.App.TrustedProxies))
	for _, proxy := range cfg.App.TrustedProxies {
		prefix, err := config.ParseTrustedProxy(proxy)
		if err != nil {
			return nil, err
		}
		proxies = append(proxies, prefix)
	}
	return &DocsHandler{
		spec:    spec,
		page:    page,
		baseURL: strings.TrimRight(cfg.App.URL, "/"),
		prefix:  cfg.App.APIPrefix,
		docs:    cfg.Docs,
		proxies: proxies,
	}, nil
}

// Page renders the Swagger UI pointed at the OpenAPI document
func (h *DocsHandler) Page(c *gin.Context) {
	var buf bytes.Buffer
	err := h.page.Execute(&buf, swaggerPageData{
		Title:          h.docs.Title,
		SwaggerVersion: h.docs.SwaggerVersion,
		SpecURL:        h.base(c) + DocsSpecPath,
	})
	if err != nil {
		logger.GetLogger().Error("Failed to render documentation page", zap.Error(err))
		c.JSON(http.StatusInternalServerError, constants.BuildErrorResponse(constants.MsgInternalError))
		return
	}

	c.Data(http.StatusOK, constants.ContentTypeHTML, buf.Bytes())
}

// Spec serves the OpenAPI document with servers pointing at this deployment
func (h *DocsHandler) Spec(c *gin.Context) {
	if len(h.spec) == 0 {
		c.JSON(http.StatusNotFound, constants.BuildErrorResponse(msgSpecNotFound))
		return
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(h.spec, &doc); err != nil || doc == nil {
		logger.GetLogger().Error("Embedded OpenAPI document is not valid JSON", zap.Error(err))
		c.JSON(http.StatusInternalServerError, constants.BuildErrorResponse(msgSpecInvalid))
		return
	}

	doc["servers"] = []map[string]string{
		{
			"url":         h.base(c) + h.prefix,
			"description": "API base URL",
		},
	}

	c.JSON(http.StatusOK, doc)
}

// base is APP_URL when set, otherwise the origin the request came in on.
// X-Forwarded-Proto counts only when the peer is a trusted proxy.
func (h *DocsHandler) base(c *gin.Context) string {
	if h.baseURL != "" {
		return h.baseURL
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if h.fromTrustedProxy(c) {
		if proto := c.GetHeader("X-Forwarded-Proto"); proto == "http" || proto == "https" {
			scheme = proto
		}
	}
	return scheme + "://" + c.Request.Host
}

func (h *DocsHandler) fromTrustedProxy(c *gin.Context) bool {
	if len(h.proxies) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(c.RemoteIP())
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range h.proxies {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}
