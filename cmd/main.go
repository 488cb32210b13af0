package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	// Nossos pacotes de infraestrutura e utilitários
	"gosupply/config"
	"gosupply/internal/domain"
	"gosupply/internal/pkg/businesshours"
	"gosupply/internal/pkg/cache"
	"gosupply/internal/pkg/clock"
	"gosupply/internal/pkg/database"
	"gosupply/internal/pkg/logger"
	"gosupply/internal/pkg/metrics"
	"gosupply/internal/pkg/notifier"
	"gosupply/internal/pkg/token"

	// Camadas de pedidos para Injeção de Dependências
	"gosupply/internal/api/order"
	"gosupply/internal/api/product"
	"gosupply/internal/api/router"
	"gosupply/internal/repository/orderrepo"
	"gosupply/internal/repository/productrepo"
	"gosupply/internal/service/autocloseservice"
	"gosupply/internal/service/orderservice"
	"gosupply/internal/service/productservice"
	"gosupply/internal/worker/autoclose"
)

// catalogStore atende o motor de aprovação (preço) e a consulta de catálogo (produto).
type catalogStore interface {
	domain.PriceCatalog
	productservice.ProductRepository
}

// @title GoSupply API
// @version 1.0
// @description Aprovação de pedidos de reposição das filiais, com auto-fechamento por SLA em horas úteis.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	// 1. Configuração e Inicialização
	log.Println("⚡ Inicializando serviço GoSupply...")
	if err := godotenv.Load(); err != nil {
		// as variáveis podem vir do ambiente do sistema (ex: Docker)
		log.Println("⚠️ Aviso: Arquivo .env não encontrado ou erro de leitura. Carregando configs apenas do ambiente do sistema.")
	}

	cfg := config.LoadConfig()
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("Configurações carregadas.", map[string]interface{}{
		"env":            cfg.Environment,
		"storage_driver": cfg.StorageDriver,
	})

	calendar, err := businesshours.Load(cfg.BusinessTimezone)
	if err != nil {
		log.Fatal("Fuso horário comercial inválido.", err)
	}
	clk := clock.System()
	m := metrics.New(prometheus.DefaultRegisterer)

	// 2. Conexão com Recursos de Infraestrutura

	// A. Cache (Redis). Sem Redis, o processo segue com cache local (uma única réplica).
	var cacheClient cache.Client
	redisClient, err := cache.NewRedisClient(cfg.RedisAddr, cfg.CacheTimeout)
	if err != nil {
		log.Warn("Redis indisponível, usando cache em memória.", map[string]interface{}{"addr": cfg.RedisAddr, "error": err.Error()})
		cacheClient = cache.NewMemoryClient(nil)
	} else {
		cacheClient = redisClient
		log.Info("Conexão Redis estabelecida.", nil)
	}

	// B. Persistência
	var (
		orderRepo domain.OrderRepository
		catalog   catalogStore
	)
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		pool := database.DefaultPoolConfig
		db, err := database.NewPostgresDB(cfg.DatabaseURL, pool, log)
		if err != nil {
			log.Fatal("Falha ao conectar ao banco de dados.", err)
		}
		defer db.Close()
		log.Info("Conexão PostgreSQL estabelecida.", nil)

		orderRepo = orderrepo.NewPostgresRepository(db, cfg.DBTimeout, log)
		catalog = productrepo.NewProductRepository(db, cacheClient, cfg.DBTimeout, cfg.PriceCacheTTL, log)
	default:
		log.Warn("STORAGE_DRIVER=memory: pedidos não sobrevivem a reinícios.", nil)
		orderRepo = orderrepo.NewMemoryRepository()
		catalog = seedCatalog(cfg.CatalogSeed, log)
	}
	log.Debug("Repositórios inicializados.", nil)

	// C. Notificações: log sempre, Kafka quando houver brokers.
	sinks := notifier.Multi{notifier.NewLogNotifier(log)}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaNotifier := notifier.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kafkaNotifier.Close()
		sinks = append(sinks, kafkaNotifier)
		log.Info("Notificações Kafka habilitadas.", map[string]interface{}{"topic": cfg.KafkaTopic})
	}

	// 3. INJEÇÃO DE DEPENDÊNCIAS
	// Ordem: Repository -> Service -> Handler

	orderSvc := orderservice.NewService(orderRepo, catalog, sinks, clk, calendar, orderservice.Options{
		SLAHours:      cfg.AutoCloseSLAHours,
		NotifyTimeout: cfg.NotifyTimeout,
		Metrics:       m,
	}, log)
	log.Debug("Motor de aprovação inicializado.", nil)

	sweepSvc := autocloseservice.NewService(orderRepo, sinks, calendar, cfg.AutoCloseSLAHours, cfg.NotifyTimeout, m, log)
	worker := autoclose.NewWorker(sweepSvc, clk, cacheClient, cfg.AutoCloseInterval, cfg.AutoCloseLockTTL, log)

	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)
	log.Debug("Serviço de Tokens JWT inicializado.", nil)

	orderHandler := order.NewHandler(orderSvc, worker, log)
	productHandler := product.NewHandler(productservice.NewService(catalog, log), log)

	// 4. Configuração e Início do Roteador/Servidor
	r := router.NewRouter(orderHandler, productHandler, tokenSvc, cacheClient, m, router.RateLimit{
		MaxRequests: cfg.RateLimitMaxRequests,
		Period:      cfg.RateLimitPeriod,
	}, log)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	go worker.Start(workerCtx)

	// 5. Execução e Graceful Shutdown
	go func() {
		log.Info("Servidor GoSupply ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Servidor falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	worker.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Desligamento do servidor forçado.", err)
	}

	if rc, ok := redisClient.(*cache.RedisClient); ok {
		rc.Close()
	}

	log.Info("Servidor encerrado com sucesso.", nil)
}

// seedCatalog monta o catálogo em memória a partir de pares SKU=preço.
func seedCatalog(pairs []string, log logger.Logger) productrepo.StaticCatalog {
	catalog := productrepo.StaticCatalog{}
	for _, pair := range pairs {
		sku, raw, found := strings.Cut(pair, "=")
		price, err := decimal.NewFromString(strings.TrimSpace(raw))
		if !found || err != nil || price.IsNegative() {
			log.Warn("Entrada de CATALOG_SEED ignorada.", map[string]interface{}{"entry": pair})
			continue
		}
		catalog[strings.TrimSpace(sku)] = price
	}
	log.Info("Catálogo em memória carregado.", map[string]interface{}{"skus": len(catalog)})
	return catalog
}
