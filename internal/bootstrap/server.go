package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jetstreamair/jetshare/api"
	"github.com/jetstreamair/jetshare/config"
	"github.com/jetstreamair/jetshare/internal/payment"
	"github.com/jetstreamair/jetshare/internal/service/offers"
	"github.com/jetstreamair/jetshare/internal/service/payments"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Run starts the HTTP server and blocks until ctx is canceled or the server
// fails.
func Run(ctx context.Context, cfg *config.Config, offerSvc offers.OfferUseCase, paymentSvc payments.PaymentUseCase, cardGW, cryptoGW payment.Gateway) error {
	router := newRouter(cfg, offerSvc, paymentSvc, cardGW, cryptoGW)

	httpSrv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func newRouter(cfg *config.Config, offerSvc offers.OfferUseCase, paymentSvc payments.PaymentUseCase, cardGW, cryptoGW payment.Gateway) *gin.Engine {
	router := gin.Default()

	offerHandler := api.NewOfferHandler(offerSvc)
	paymentHandler := api.NewPaymentHandler(paymentSvc)
	webhookHandler := api.NewWebhookHandler(cardGW, cryptoGW, paymentSvc)

	offersGroup := router.Group("/offers")
	offerHandler.Register(offersGroup)
	paymentHandler.Register(offersGroup)

	webhooksGroup := router.Group("/webhooks")
	webhookHandler.Register(webhooksGroup)

	if cfg.HTTP.SwaggerDir != "" {
		router.Static("/swagger", cfg.HTTP.SwaggerDir)
		router.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(
			httpSwagger.URL("/swagger/openapi.json"),
		)))
	}

	return router
}
