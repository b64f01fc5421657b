package main

import (
	"io"
	"log"
	"os"

	"github.com/roamplan/roamplan-backend/internal/ai"
	"github.com/roamplan/roamplan-backend/internal/amap"
	"github.com/roamplan/roamplan-backend/internal/config"
	"github.com/roamplan/roamplan-backend/internal/logging"
	"github.com/roamplan/roamplan-backend/internal/repository/postgres"
	"github.com/roamplan/roamplan-backend/internal/service"
	"github.com/roamplan/roamplan-backend/internal/speech"
	transporthttp "github.com/roamplan/roamplan-backend/internal/transport/http"
	"github.com/roamplan/roamplan-backend/internal/transport/mail"
	"github.com/roamplan/roamplan-backend/internal/util"
)

func main() {
	cfg := config.Load()

	if cfg.LogstashTCPAddr != "" {
		writer, err := logging.NewLogstashWriter(cfg.LogstashTCPAddr)
		if err != nil {
			log.Printf("logstash disabled: %v", err)
		} else {
			defer writer.Close()
			log.SetOutput(io.MultiWriter(os.Stderr, writer))
		}
	}

	db, err := postgres.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect to database: %v", err)
	}
	defer db.Close()

	userRepo := postgres.NewUserRepo(db)
	sessionRepo := postgres.NewSessionRepo(db)
	resetRepo := postgres.NewPasswordResetRepo(db)
	planRepo := postgres.NewPlanRepo(db)

	mailer := mail.NewPasswordResetMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	jwtManager := util.NewJWTManager(cfg.JWTSecret, cfg.SessionTTL)

	authService := service.NewAuthService(userRepo, sessionRepo, resetRepo, mailer, jwtManager, service.AuthServiceConfig{
		GoogleAudience: cfg.GoogleAudience,
		SessionTTL:     cfg.SessionTTL,
		ResetTTL:       cfg.PasswordResetTTL,
	})

	modelClient := ai.NewClient(cfg.AIBaseURL, cfg.AIAPIKey, cfg.AIModel, cfg.AIProvider)
	geocoder := amap.NewClient(cfg.AmapKey, cfg.AmapSecurityCode)
	planService := service.NewPlanService(modelClient, geocoder, planRepo)

	speechConfig := speech.Config{
		AppID:     cfg.XfyunAppID,
		APIKey:    cfg.XfyunAPIKey,
		APISecret: cfg.XfyunAPISecret,
	}

	e := transporthttp.NewRouter(cfg.AllowOrigins)
	transporthttp.RegisterAuth(e, authService)
	transporthttp.RegisterPlans(e, authService, planService)
	transporthttp.RegisterGeo(e, authService, geocoder)
	transporthttp.RegisterSpeech(e, authService, speechConfig)
	transporthttp.RegisterSwagger(e)

	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
