package httpapi

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/nightdesk/backend/internal/config"
	"github.com/nightdesk/backend/internal/http/handlers"
	"github.com/nightdesk/backend/internal/http/middleware"
	"github.com/nightdesk/backend/internal/service"
	"github.com/nightdesk/backend/internal/store"
	"github.com/nightdesk/backend/internal/telephony"

	_ "github.com/nightdesk/backend/docs"
)

func Router(cfg config.Config, calls *service.CallService, backend store.Backend, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Key", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = strings.Split(cfg.CORSAllowed, ",")
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Calls:          calls,
		Cases:          backend,
		Health:         backend,
		TwiML:          telephony.NewBuilder(cfg.PublicBaseURL, cfg.UseConference),
		Validator:      validator.New(),
		Logger:         logger,
		AssistantID:    cfg.AssistantID,
		RequestTimeout: cfg.RequestTimeout,
		Location:       cfg.Location(),
	}

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	twilio := r.Group("/webhooks/twilio")
	twilio.Use(middleware.VerifyTwilio(cfg.TwilioAuthToken, cfg.PublicBaseURL, cfg.TwilioValidateSignature, logger))
	{
		twilio.POST("/voice", h.TwilioVoice)
		twilio.POST("/gather", h.TwilioGather)
		twilio.POST("/status", h.TwilioStatus)
		twilio.POST("/sms", h.TwilioSMS)
	}
	r.POST("/webhooks/assistant/gather", h.AssistantGather)

	admin := r.Group("/api")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.POST("/classify", h.Classify)
		admin.GET("/calls/:id/state", h.CallState)
		admin.GET("/lexicon", h.Lexicon)
		admin.GET("/cases", h.CasesList)
		admin.GET("/cases/:id", h.CaseDetails)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
