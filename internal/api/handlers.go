package api

import (
	"errors"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"pivotd/internal/engine"
	"pivotd/internal/metrics"
	"pivotd/internal/models"
	"pivotd/internal/pivot"
)

type Handler struct {
	log   *zap.Logger
	cache *engine.Cache
	data  atomic.Pointer[engine.ColumnStore]
}

// NewHandler serves data, which may be nil until the dataset is loaded; the
// dataset routes answer 503 meanwhile.
func NewHandler(log *zap.Logger, data *engine.ColumnStore, cache *engine.Cache) *Handler {
	h := &Handler{log: log, cache: cache}
	h.SetData(data)
	return h
}

// SetData swaps in a freshly loaded dataset and drops cached query results.
func (h *Handler) SetData(data *engine.ColumnStore) {
	h.data.Store(data)
	if h.cache != nil {
		h.cache.Purge()
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")
	api.POST("/pivot", h.Pivot)
	api.POST("/query", h.Query)
	api.GET("/schema", h.GetSchema)
	api.GET("/dimensions/:attribute/elements", h.GetElements)
}

// --- HANDLERS ---
func getPaginationParams(c echo.Context, defaultLimit int) (int, int) {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	offset, err := strconv.Atoi(c.QueryParam("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (h *Handler) store() (*engine.ColumnStore, error) {
	cs := h.data.Load()
	if cs == nil {
		return nil, echo.NewHTTPError(http.StatusServiceUnavailable, "dataset is loading")
	}
	return cs, nil
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, models.Health{Status: "ok", Ready: h.data.Load() != nil})
}

// Pivot aggregates the rows supplied in the request body.
func (h *Handler) Pivot(c echo.Context) error {
	var req models.PivotRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := req.Selection.Validate(); err != nil {
		metrics.AggregationsTotal.WithLabelValues("inline", "invalid").Inc()
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, h.aggregate(c, "inline", req.Rows, req.Selection))
}

// Query runs the selection against the loaded dataset and aggregates the
// result.
func (h *Handler) Query(c echo.Context) error {
	cs, err := h.store()
	if err != nil {
		return err
	}
	var req models.QueryRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	rows, err := h.cache.Query(c.Request().Context(), cs, req.Selection)
	if err != nil {
		metrics.AggregationsTotal.WithLabelValues("query", "error").Inc()
		return queryError(err)
	}
	return c.JSON(http.StatusOK, h.aggregate(c, "query", rows, req.Selection))
}

func (h *Handler) aggregate(c echo.Context, source string, rows []pivot.DataRow, sel pivot.Selection) *models.PivotResponse {
	start := time.Now()
	res := pivot.Aggregate(rows, sel)
	metrics.AggregationDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	metrics.AggregationsTotal.WithLabelValues(source, "ok").Inc()
	metrics.MalformedFieldsTotal.Add(float64(res.Stats.MalformedFields))

	if res.Stats.MalformedFields > 0 || res.Stats.AmbiguousFields > 0 {
		h.log.Debug("aggregation tolerated input problems",
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			zap.Int("malformed", res.Stats.MalformedFields),
			zap.Int("ambiguous", res.Stats.AmbiguousFields),
			zap.Strings("ambiguous_attributes", sel.Ambiguous()))
	}
	return models.NewPivotResponse(res)
}

func queryError(err error) error {
	switch {
	case errors.Is(err, pivot.ErrInvalidSelection):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, engine.ErrUnknownAttribute), errors.Is(err, engine.ErrUnknownMeasure):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return err
	}
}

func (h *Handler) GetSchema(c echo.Context) error {
	cs, err := h.store()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.SchemaResponse{
		Dimensions: cs.Dimensions(),
		Attributes: cs.Attributes,
		Measures:   cs.MeasureNames,
		Rows:       cs.Rows,
	})
}

// GetElements lists the members of one attribute, used to fill filter choices.
func (h *Handler) GetElements(c echo.Context) error {
	cs, err := h.store()
	if err != nil {
		return err
	}
	attribute := c.Param("attribute")
	elements, err := cs.Elements(attribute)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}

	total := len(elements)
	limit, offset := getPaginationParams(c, total)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	return c.JSON(http.StatusOK, models.ElementsPage{
		Attribute: attribute,
		Data:      elements[offset:end],
		Total:     total,
		Limit:     limit,
		Offset:    offset,
	})
}
