package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/Eninte/ai-resource-navigator/infrastructure/logger"
	"github.com/Eninte/ai-resource-navigator/internal/domain"
	"github.com/Eninte/ai-resource-navigator/internal/iphash"
	"github.com/Eninte/ai-resource-navigator/internal/metrics"
	"github.com/Eninte/ai-resource-navigator/internal/ratelimit"
	"github.com/Eninte/ai-resource-navigator/internal/sanitize"
	"github.com/Eninte/ai-resource-navigator/internal/store"
)

// Submission error codes.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeRateLimited  = "RATE_LIMIT_EXCEEDED"
	CodeDuplicateURL = "DUPLICATE_URL"
	CodeInternal     = "INTERNAL_ERROR"
)

// Submission outcomes.
const (
	submitAccepted  = "accepted"
	submitInvalid   = "invalid"
	submitDuplicate = "duplicate"
	submitLimited   = "rate_limited"
	submitFailed    = "error"
)

// SubmitPolicy bounds submissions per client.
type SubmitPolicy struct {
	Max    int
	Window time.Duration
}

// DefaultSubmitPolicy admits ten submissions per hour.
func DefaultSubmitPolicy() SubmitPolicy {
	return SubmitPolicy{Max: 10, Window: time.Hour}
}

// SubmitRequest is the public submission body.
type SubmitRequest struct {
	Name         string `binding:"required,max=100"                 json:"name"`
	URL          string `binding:"required,http_url"                json:"url"`
	Category     string `json:"category"`
	Price        string `binding:"omitempty,oneof=Free Freemium Paid" json:"price"`
	IsOpenSource bool   `json:"is_open_source"`
	Description  string `binding:"max=500"                          json:"description"`
}

// FieldError describes one rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorBody is the submission error envelope.
type ErrorBody struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
}

// SubmitHandler accepts new resources into the moderation queue.
type SubmitHandler struct {
	store   store.Store
	limiter *ratelimit.Limiter
	policy  SubmitPolicy
	hasher  *iphash.Hasher
	logger  logger.Logger
	metrics *metrics.Provider
	now     func() time.Time
}

// NewSubmitHandler creates a SubmitHandler.
func NewSubmitHandler(
	s store.Store,
	limiter *ratelimit.Limiter,
	policy SubmitPolicy,
	hasher *iphash.Hasher,
	log logger.Logger,
	m *metrics.Provider,
) *SubmitHandler {
	def := DefaultSubmitPolicy()
	if policy.Max <= 0 {
		policy.Max = def.Max
	}
	if policy.Window <= 0 {
		policy.Window = def.Window
	}
	registerJSONFieldNames()
	return &SubmitHandler{
		store:   s,
		limiter: limiter,
		policy:  policy,
		hasher:  hasher,
		logger:  log,
		metrics: m,
		now:     time.Now,
	}
}

// Submit validates and stores a pending resource.
func (h *SubmitHandler) Submit(c *gin.Context) {
	ctx := c.Request.Context()
	ipHash := h.hasher.Hash(iphash.ClientIP(c.Request))

	res, err := h.limiter.Allow(ctx, "submit:"+ipHash, h.policy.Max, h.policy.Window)
	if err != nil {
		// fail open
		h.logger.Warn("Submission rate limit check failed", logger.Error(err))
	} else if !res.Allowed {
		h.metrics.RecordSubmission(submitLimited)
		h.metrics.RecordRateLimited("submit")
		c.Header("Retry-After", strconv.Itoa(int(res.RetryAfter(h.now()).Seconds())))
		failSubmit(c, http.StatusTooManyRequests, CodeRateLimited, "提交过于频繁，请稍后再试", nil)
		return
	}

	var req SubmitRequest
	if err = c.ShouldBindJSON(&req); err != nil {
		h.metrics.RecordSubmission(submitInvalid)
		failSubmit(c, http.StatusBadRequest, CodeValidation, "数据验证失败", fieldErrors(err))
		return
	}
	if details := validateSubmission(&req); details != nil {
		h.metrics.RecordSubmission(submitInvalid)
		failSubmit(c, http.StatusBadRequest, CodeValidation, "数据验证失败", details)
		return
	}

	exists, err := h.store.URLExists(ctx, req.URL, domain.StatusPending, domain.StatusPublished)
	if err != nil {
		h.internalError(c, "Failed to check duplicate URL", err)
		return
	}
	if exists {
		h.metrics.RecordSubmission(submitDuplicate)
		failSubmit(c, http.StatusConflict, CodeDuplicateURL, "该资源已存在", nil)
		return
	}

	resource := newSubmission(&req, ipHash, h.now())
	if err = h.store.CreateResource(ctx, resource); err != nil {
		h.internalError(c, "Failed to create resource", err)
		return
	}

	h.metrics.RecordSubmission(submitAccepted)
	h.logger.Info("Resource submitted",
		logger.String("resource_id", resource.ID),
		logger.String("category", resource.Category),
	)
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "提交成功，等待审核",
		"resourceId": resource.ID,
	})
}

func (h *SubmitHandler) internalError(c *gin.Context, msg string, err error) {
	h.metrics.RecordSubmission(submitFailed)
	h.logger.Error(msg, logger.Error(err))
	failSubmit(c, http.StatusInternalServerError, CodeInternal, "提交失败，请稍后重试", nil)
}

func newSubmission(req *SubmitRequest, ipHash string, now time.Time) *domain.Resource {
	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = domain.DefaultCategory
	}
	price := domain.PriceTier(req.Price)
	if price == "" {
		price = domain.PriceFreemium
	}
	return &domain.Resource{
		ID:              domain.NewID(),
		Name:            strings.TrimSpace(req.Name),
		Description:     sanitize.StripTags(req.Description),
		URL:             strings.TrimSpace(req.URL),
		Category:        category,
		Price:           price,
		IsOpenSource:    req.IsOpenSource,
		Status:          domain.StatusPending,
		CreatedAt:       now.UTC(),
		SubmitterIPHash: ipHash,
		Source:          "web",
	}
}

func failSubmit(c *gin.Context, status int, code, message string, details []FieldError) {
	c.JSON(status, gin.H{
		"success": false,
		"error":   ErrorBody{Code: code, Message: message, Details: details},
	})
}

// validateSubmission covers what binding tags cannot: a blank name and the
// category, which may be empty, the default or a built-in slug.
func validateSubmission(req *SubmitRequest) []FieldError {
	var out []FieldError
	if strings.TrimSpace(req.Name) == "" {
		out = append(out, FieldError{Field: "name", Message: fieldMessages["name.required"]})
	}
	category := strings.TrimSpace(req.Category)
	if category != "" && category != domain.DefaultCategory && !domain.IsKnownCategory(category) {
		out = append(out, FieldError{Field: "category", Message: "分类无效"})
	}
	return out
}

var fieldMessages = map[string]string{
	"name.required":   "名称不能为空",
	"name.max":        "名称不能超过100字符",
	"url.required":    "请输入有效的URL",
	"url.http_url":    "请输入有效的URL",
	"price.oneof":     "价格类型必须是 Free、Freemium 或 Paid",
	"description.max": "描述不能超过500字符",
}

func fieldErrors(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "body", Message: "请求体不是有效的JSON"}}
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg = "字段无效"
		}
		out = append(out, FieldError{Field: fe.Field(), Message: msg})
	}
	return out
}

var registerOnce sync.Once

// registerJSONFieldNames makes validation errors report JSON field names.
func registerJSONFieldNames() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
}
